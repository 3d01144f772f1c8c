package room

import (
	"context"
	"testing"
	"time"

	"roboscapesim/scenario"
)

func TestManagerCreateAndResolve(t *testing.T) {
	m := NewManager(2, "", "", time.Hour, time.Hour, nil, nil)

	rm, err := m.Create(context.Background(), Options{Creator: "alice"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rm.ProjectXML != scenario.DefaultProjectXML {
		t.Fatalf("expected a manager with no scenarios resolver to fall back to the default project")
	}

	handler, ok := m.Resolve(rm.Name)
	if !ok || handler == nil {
		t.Fatalf("expected Resolve to find the created room")
	}
}

func TestManagerRespectsRoomLimit(t *testing.T) {
	m := NewManager(1, "", "", time.Hour, time.Hour, nil, nil)

	if _, err := m.Create(context.Background(), Options{}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := m.Create(context.Background(), Options{}); err == nil {
		t.Fatalf("expected second Create to fail once at capacity")
	}
}

func TestManagerCounts(t *testing.T) {
	m := NewManager(5, "", "", time.Hour, time.Hour, nil, nil)
	rm, err := m.Create(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	active, hibernating := m.Counts()
	if active != 0 || hibernating != 1 {
		t.Fatalf("expected a freshly created room to start hibernating, got active=%d hibernating=%d", active, hibernating)
	}

	rm.hibernating.Store(false)
	active, hibernating = m.Counts()
	if active != 1 || hibernating != 0 {
		t.Fatalf("expected the room to count as active once woken, got active=%d hibernating=%d", active, hibernating)
	}
}

func TestManagerSweepRemovesDeadRooms(t *testing.T) {
	m := NewManager(5, "", "", time.Hour, time.Hour, nil, nil)
	rm, err := m.Create(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rm.Kill()

	removed := m.Sweep(time.Now())
	if removed != 1 {
		t.Fatalf("expected Sweep to remove 1 dead room, removed %d", removed)
	}
	if _, ok := m.Get(rm.Name); ok {
		t.Fatalf("expected the killed room to be gone from the manager")
	}
}
