package service

import "testing"

func TestDrainDispatchesQueuedRequests(t *testing.T) {
	svc := NewService(Key{ID: "world", Type: World}, Def{Methods: []string{"addRobot"}}, "", func(req Request) Response {
		return Response{Value: "ok"}
	})

	respCh := make(chan Response, 1)
	svc.Enqueue(Request{Method: "addRobot", Response: respCh})

	events := svc.Drain()
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
	select {
	case resp := <-respCh:
		if resp.Value != "ok" {
			t.Fatalf("expected ok, got %v", resp.Value)
		}
	default:
		t.Fatal("expected a response to be delivered")
	}
}

func TestDrainCollectsEmittedEvents(t *testing.T) {
	svc := NewService(Key{ID: "world", Type: World}, Def{}, "", func(req Request) Response {
		return Response{Event: &Event{Service: Key{ID: "world", Type: World}, Name: "userJoined", Params: map[string]interface{}{"username": "alice"}}}
	})
	svc.Enqueue(Request{Method: "join"})

	events := svc.Drain()
	if len(events) != 1 || events[0].Name != "userJoined" {
		t.Fatalf("expected one userJoined event, got %+v", events)
	}
}

func TestCoerceNumberAcceptsStringsAndRejectsOthers(t *testing.T) {
	if v, err := CoerceNumber("3.5"); err != nil || v != 3.5 {
		t.Fatalf("expected 3.5, got %v, %v", v, err)
	}
	if v, err := CoerceNumber(42); err != nil || v != 42 {
		t.Fatalf("expected 42, got %v, %v", v, err)
	}
	if _, err := CoerceNumber("not-a-number"); err == nil {
		t.Fatal("expected an error for a non-numeric string")
	}
	if _, err := CoerceNumber(true); err == nil {
		t.Fatal("expected an error for a bool")
	}
}

func TestRegistryByType(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewService(Key{ID: "a", Type: PositionSensor}, Def{}, "", nil))
	reg.Register(NewService(Key{ID: "b", Type: PositionSensor}, Def{}, "", nil))
	reg.Register(NewService(Key{ID: "c", Type: LIDAR}, Def{}, "", nil))

	if got := len(reg.ByType(PositionSensor)); got != 2 {
		t.Fatalf("expected 2 position sensors, got %d", got)
	}
	if got := len(reg.ByType(LIDAR)); got != 1 {
		t.Fatalf("expected 1 lidar, got %d", got)
	}
}
