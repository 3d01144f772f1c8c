package cluster

import (
	"testing"
	"time"
)

// TestLeastLoadedServer pins Testable Property 6 / End-to-end Scenario 1.
func TestLeastLoadedServer(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.AnnounceServer("A", 10, now)
	d.AnnounceServer("B", 10, now)

	d.PutRooms([]RoomInfo{
		{ID: "r1", Server: "A"},
		{ID: "r2", Server: "A"},
		{ID: "r3", Server: "A"},
		{ID: "r4", Server: "B"},
	})

	best, ok := d.LeastLoadedServer()
	if !ok || best != "B" {
		t.Fatalf("expected B (1 active room) to win over A (3), got %q", best)
	}
}

func TestLeastLoadedServerTieBrokenByInsertionOrder(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.AnnounceServer("first", 10, now)
	d.AnnounceServer("second", 10, now)

	best, ok := d.LeastLoadedServer()
	if !ok || best != "first" {
		t.Fatalf("expected tie to favor insertion order, got %q", best)
	}
}

func TestLeastLoadedServerIgnoresHibernatingRooms(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.AnnounceServer("A", 10, now)
	d.AnnounceServer("B", 10, now)
	d.PutRooms([]RoomInfo{
		{ID: "r1", Server: "A", IsHibernating: true},
		{ID: "r2", Server: "A", IsHibernating: true},
		{ID: "r3", Server: "B", IsHibernating: false},
	})

	best, ok := d.LeastLoadedServer()
	if !ok || best != "A" {
		t.Fatalf("expected A (0 active, 2 hibernating) to win over B (1 active), got %q", best)
	}
}

// TestGCRemovesStaleServerAndItsRooms pins Testable Property 7 / End-to-end
// Scenario 2.
func TestGCRemovesStaleServerAndItsRooms(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.AnnounceServer("S", 10, now.Add(-301*time.Second))
	d.PutRooms([]RoomInfo{{ID: "R", Server: "S"}})

	d.GC(now, 5*time.Minute)

	if _, ok := d.RoomInfoByID("R"); ok {
		t.Fatalf("expected room R to be removed with its dead server")
	}
	if _, ok := d.LeastLoadedServer(); ok {
		t.Fatalf("expected no live servers after GC")
	}
}

func TestGCKeepsFreshServers(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.AnnounceServer("S", 10, now.Add(-10*time.Second))
	d.PutRooms([]RoomInfo{{ID: "R", Server: "S"}})

	d.GC(now, 5*time.Minute)

	if _, ok := d.RoomInfoByID("R"); !ok {
		t.Fatalf("expected fresh server's room to survive GC")
	}
}

func TestListRoomsFiltersByVisitor(t *testing.T) {
	d := NewDirectory()
	d.PutRooms([]RoomInfo{
		{ID: "r1", Visitors: []string{"alice"}},
		{ID: "r2", Visitors: []string{"bob"}},
	})

	all := d.ListRooms("")
	if len(all) != 2 {
		t.Fatalf("expected 2 rooms unfiltered, got %d", len(all))
	}
	alices := d.ListRooms("alice")
	if len(alices) != 1 || alices[0].ID != "r1" {
		t.Fatalf("expected only r1 for alice, got %+v", alices)
	}
}
