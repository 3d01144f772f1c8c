package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roboscapesim/cluster"
	"roboscapesim/room"
)

func newTestNodeServer(maxRooms int) *NodeServer {
	rooms := room.NewManager(maxRooms, "", "", time.Hour, time.Hour, nil, nil)
	return NewNodeServer(rooms, "127.0.0.1:8000")
}

func TestNodeStatusReflectsRoomCounts(t *testing.T) {
	s := newTestNodeServer(5)

	req := httptest.NewRequest(http.MethodGet, "/server/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status nodeStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.MaxRooms != 5 {
		t.Fatalf("expected maxRooms=5, got %d", status.MaxRooms)
	}
}

func TestNodeCreateRoomThenList(t *testing.T) {
	s := newTestNodeServer(5)

	body, _ := json.Marshal(cluster.CreateRoomRequest{Username: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/rooms/create", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var created cluster.CreateRoomResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.Server != "127.0.0.1:8000" || created.RoomID == "" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	req = httptest.NewRequest(http.MethodGet, "/rooms/list", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var rooms []room.Info
	if err := json.NewDecoder(rec.Body).Decode(&rooms); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != created.RoomID {
		t.Fatalf("expected the newly created room to appear in /rooms/list, got %+v", rooms)
	}
}

func TestNodeCreateRoomAtCapacityReturns503(t *testing.T) {
	s := newTestNodeServer(1)

	body, _ := json.Marshal(cluster.CreateRoomRequest{})
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rooms/create", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("expected first room creation to succeed, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected the second room creation to be rejected at capacity, got %d", rec.Code)
		}
	}
}
