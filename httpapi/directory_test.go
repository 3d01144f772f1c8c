package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roboscapesim/cluster"
)

func TestDirectoryCreateRoomForwardsToLeastLoadedServer(t *testing.T) {
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cluster.CreateRoomResponse{RoomID: "RoomABCDE"})
	}))
	defer node.Close()
	nodeAddr := strings.TrimPrefix(node.URL, "http://")

	dir := cluster.NewDirectory()
	dir.AnnounceServer(nodeAddr, 10, time.Now())

	s := NewDirectoryServer(dir, "directory:8080")

	body, _ := json.Marshal(cluster.CreateRoomRequest{Username: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/rooms/create", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out cluster.CreateRoomResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Server != nodeAddr || out.RoomID != "RoomABCDE" {
		t.Fatalf("unexpected create response: %+v", out)
	}
}

func TestDirectoryCreateRoomWithNoServersReturns503(t *testing.T) {
	s := NewDirectoryServer(cluster.NewDirectory(), "directory:8080")

	body, _ := json.Marshal(cluster.CreateRoomRequest{})
	req := httptest.NewRequest(http.MethodPost, "/rooms/create", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with no live servers, got %d", rec.Code)
	}
}

func TestDirectoryAnnounceAndStatus(t *testing.T) {
	dir := cluster.NewDirectory()
	s := NewDirectoryServer(dir, "directory:8080")

	tuple, _ := json.Marshal([2]interface{}{"10.0.0.5:8000", map[string]int{"maxRooms": 7}})
	req := httptest.NewRequest(http.MethodPost, "/server/announce", bytes.NewReader(tuple))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/server/status", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var status directoryStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.MaxRooms != 7 {
		t.Fatalf("expected maxRooms=7 after announce, got %d", status.MaxRooms)
	}
}

func TestDirectoryPutRoomsThenList(t *testing.T) {
	dir := cluster.NewDirectory()
	s := NewDirectoryServer(dir, "directory:8080")

	rooms := []cluster.RoomInfo{{ID: "Room1", Server: "node1:8000", Visitors: []string{"alice"}}}
	body, _ := json.Marshal(rooms)
	req := httptest.NewRequest(http.MethodPut, "/server/rooms", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/rooms/list?user=alice", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var got []cluster.RoomInfo
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "Room1" {
		t.Fatalf("expected Room1 filtered by visitor alice, got %+v", got)
	}
}
