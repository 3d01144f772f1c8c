package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"roboscapesim/shared"
)

// CreateRoomRequest is the body a client POSTs to /rooms/create (§6).
type CreateRoomRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password,omitempty"`
	EditMode    bool   `json:"editMode"`
	Environment string `json:"environment,omitempty"`
}

// CreateRoomResponse is what a node's /rooms/create returns and what the
// directory relays back to the caller (§4.6 "Create room").
type CreateRoomResponse struct {
	Server string `json:"server"`
	RoomID string `json:"roomId"`
}

var forwardClient = &http.Client{Timeout: 5 * time.Second}

// ForwardCreateRoom picks the least-loaded live server and forwards req to
// its /rooms/create. Returns ErrNoServersLive if the directory has no live
// servers, or ErrUpstreamFailed if the forward errors or the response
// doesn't decode (§4.6, §7 "Capacity denial").
func (d *Directory) ForwardCreateRoom(ctx context.Context, req CreateRoomRequest) (CreateRoomResponse, error) {
	server, ok := d.LeastLoadedServer()
	if !ok {
		return CreateRoomResponse{}, shared.ErrNoServersLive
	}

	body, err := json.Marshal(req)
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("%w: %v", shared.ErrUpstreamFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("http://%s/rooms/create", server), bytes.NewReader(body))
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("%w: %v", shared.ErrUpstreamFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := forwardClient.Do(httpReq)
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("%w: %v", shared.ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	var out CreateRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("%w: decoding response from %s: %v", shared.ErrUpstreamFailed, server, err)
	}
	out.Server = server
	return out, nil
}
