// Command roomnode runs one simulation node: it hosts rooms (physics,
// robots, services, the 60Hz tick loop), serves the node's WebSocket and
// HTTP surfaces, and periodically announces itself and its rooms to the
// cluster directory. Grounded on roboserver/main.go's component-goroutine
// supervisor (context cancellation, SIGINT/SIGTERM, bounded shutdown wait).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"roboscapesim/database"
	"roboscapesim/httpapi"
	"roboscapesim/room"
	"roboscapesim/scenario"
	"roboscapesim/shared"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(".env"); err != nil {
		shared.DebugPrint("no .env file loaded: %v", err)
	}
	shared.InitConfig()
	cfg := shared.LoadConfig()

	ioTScapeEndpoint := fmt.Sprintf("%s:%s", cfg.IoTScapeServer, cfg.IoTScapePort)
	selfAddr := fmt.Sprintf("%s%s", shared.ExternalIP(), cfg.NodeHTTPAddr)

	// The scenario catalog lives in Mongo (§12); a node that can't reach it
	// still runs, falling back to scenario.DefaultProjectXML for every room.
	var scenarios room.ScenarioResolver
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		shared.DebugError(fmt.Errorf("scenario catalog unavailable, rooms will use the default project: %w", err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = db.Disconnect(shutdownCtx)
		}()
		catalog := scenario.NewCatalog(db.Database())
		scenarios = scenario.NewResolver(catalog, cfg.NetsBloxCloudURL)
	}

	rooms := room.NewManager(cfg.MaxRooms, ioTScapeEndpoint, cfg.NetsBloxServicesURL, cfg.HibernateTimeout, cfg.FullTimeout, scenarios, nil)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rooms.RunSweep(shared.RoomSweepInterval, gctx.Done())
		return nil
	})

	srv := &http.Server{
		Addr:    cfg.NodeHTTPAddr,
		Handler: httpapi.NewNodeServer(rooms, selfAddr).Handler(),
	}
	g.Go(func() error {
		shared.DebugPrint("node HTTP listening on %s (external %s)", cfg.NodeHTTPAddr, selfAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		runAnnounceLoop(gctx, cfg, rooms, selfAddr)
		return nil
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-gctx.Done():
		shared.DebugPrint("a component failed, shutting down node...")
	case <-sigs:
		shared.DebugPrint("received termination signal, shutting down node...")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		if err := g.Wait(); err != nil {
			shared.DebugError(err)
		}
		close(done)
	}()

	select {
	case <-done:
		shared.DebugPrint("node shut down gracefully.")
	case <-time.After(60 * time.Second):
		shared.DebugPrint("timeout waiting for node shutdown, forcing exit.")
	}
}

// runAnnounceLoop pushes this node's status and room table to the cluster
// directory every ServiceAnnouncePeriod (§4.6 "Announce ingress", "Room
// push"). A failed push is logged and retried next tick; it never tears the
// node down.
func runAnnounceLoop(ctx context.Context, cfg shared.Config, rooms *room.Manager, selfAddr string) {
	hc := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(shared.ServiceAnnouncePeriod)
	defer ticker.Stop()

	announce := func() {
		tuple := []interface{}{selfAddr, map[string]int{"maxRooms": rooms.MaxRooms()}}
		if err := postJSON(ctx, hc, cfg.DirectoryURL+"/server/announce", tuple); err != nil {
			shared.DebugError(err)
			return
		}

		list := rooms.List()
		for i := range list {
			list[i].Server = selfAddr
		}
		if err := putJSON(ctx, hc, cfg.DirectoryURL+"/server/rooms", list); err != nil {
			shared.DebugError(err)
		}
	}

	announce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			announce()
		}
	}
}

func postJSON(ctx context.Context, hc *http.Client, url string, body interface{}) error {
	return doJSON(ctx, hc, http.MethodPost, url, body)
}

func putJSON(ctx context.Context, hc *http.Client, url string, body interface{}) error {
	return doJSON(ctx, hc, http.MethodPut, url, body)
}

func doJSON(ctx context.Context, hc *http.Client, method, url string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
