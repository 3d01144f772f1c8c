// Command testclient is the CLI load/smoke-test harness described in §6
// "CLI surface (test client)": it creates a room through the cluster
// directory, then spins up num_clients WebSocket sessions that join it and
// log each robot id newly seen in Update broadcasts until interrupted.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"

	"roboscapesim/client"
	"roboscapesim/cluster"
	"roboscapesim/shared"
)

func main() {
	roboscapeServer := flag.String("r", "", "roboscape-online server endpoint")
	netsBloxServices := flag.String("n", "", "NetsBlox services server endpoint")
	netsBloxCloud := flag.String("c", "", "NetsBlox cloud server endpoint")
	directoryURL := flag.String("directory", envOr("DIRECTORY_URL", "http://localhost:8080"), "cluster directory base URL")
	username := flag.String("username", "testclient", "username to join as")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: testclient [-r server] [-n server] [-c server] num_clients [scenario]")
		os.Exit(2)
	}
	numClients, err := parsePositiveInt(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid num_clients %q: %v\n", args[0], err)
		os.Exit(2)
	}
	scenario := ""
	if len(args) > 1 {
		scenario = args[1]
	}

	if scenario != "" {
		shared.DebugPrint("requested scenario %q against roboscape=%q netsblox-services=%q netsblox-cloud=%q (resolved by the node's scenario package)",
			scenario, *roboscapeServer, *netsBloxServices, *netsBloxCloud)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	resp, err := createRoom(ctx, *directoryURL, *username, scenario)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating room: %v\n", err)
		os.Exit(1)
	}
	shared.DebugPrint("created room %s on %s", resp.RoomID, resp.Server)

	wsURL := fmt.Sprintf("ws://%s/ws", resp.Server)

	var wg sync.WaitGroup
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		clientName := fmt.Sprintf("%s-%d", *username, i)
		go func() {
			defer wg.Done()
			runClient(ctx, wsURL, resp.RoomID, clientName)
		}()
	}

	wg.Wait()
	os.Exit(0)
}

func createRoom(ctx context.Context, directoryURL, username, scenario string) (cluster.CreateRoomResponse, error) {
	body, err := json.Marshal(cluster.CreateRoomRequest{Username: username, Environment: scenario})
	if err != nil {
		return cluster.CreateRoomResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, directoryURL+"/rooms/create", bytes.NewReader(body))
	if err != nil {
		return cluster.CreateRoomResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return cluster.CreateRoomResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return cluster.CreateRoomResponse{}, fmt.Errorf("directory returned %s", resp.Status)
	}

	var out cluster.CreateRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return cluster.CreateRoomResponse{}, err
	}
	return out, nil
}

// runClient joins roomID over a WebSocket session and logs each robot id
// newly seen in Update broadcasts until ctx is cancelled or the connection
// drops.
func runClient(ctx context.Context, wsURL, roomID, username string) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		shared.DebugError(fmt.Errorf("%s: dialing %s: %w", username, wsURL, err))
		return
	}
	defer conn.Close()

	join, err := client.EncodeClientMessage(client.ClientMessage{
		Type:     client.CMJoinRoom,
		RoomID:   roomID,
		Username: username,
	})
	if err != nil {
		shared.DebugError(err)
		return
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, join); err != nil {
		shared.DebugError(err)
		return
	}

	seenRobots := make(map[string]bool)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := client.DecodeUpdate(data)
			if err != nil {
				shared.DebugPrint("%s: malformed update: %v", username, err)
				continue
			}
			if msg.Type == client.UMUpdate {
				for name := range msg.Objects {
					robotID := strings.TrimPrefix(name, "robot_")
					if robotID != name && !seenRobots[robotID] {
						seenRobots[robotID] = true
						shared.DebugPrint("%s: robot %s seen", username, robotID)
					}
				}
			}
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a number")
		}
		n = n*10 + int(r-'0')
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return n, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
