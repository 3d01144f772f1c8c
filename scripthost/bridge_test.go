package scripthost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roboscapesim/service"
)

func TestCallDispatchesLocalService(t *testing.T) {
	registry := service.NewRegistry()
	svc := service.NewService(service.Key{ID: "world1", Type: service.World}, service.Def{Methods: []string{"addBlock"}}, "", func(req service.Request) service.Response {
		return service.Response{Value: "blockA"}
	})
	registry.Register(svc)

	b := NewBridge(registry, "", "RoomTEST", func() []string { return nil })

	done := make(chan struct{})
	var result interface{}
	var callErr error
	go func() {
		result, callErr = b.Call(context.Background(), "RoboScapeWorld", "world1", "addBlock", nil)
		close(done)
	}()

	deadline := time.After(time.Second)
	for {
		select {
		case <-done:
			if callErr != nil {
				t.Fatalf("Call: %v", callErr)
			}
			if result != "blockA" {
				t.Fatalf("expected the local service's response value, got %v", result)
			}
			return
		case <-deadline:
			t.Fatalf("timed out waiting for Call to resolve")
		default:
			svc.Drain()
			time.Sleep(time.Millisecond)
		}
	}
}

func TestCallForwardsUnknownServiceRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(req.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"echo": body["id"]})
	}))
	defer srv.Close()

	registry := service.NewRegistry()
	b := NewBridge(registry, srv.URL, "RoomTEST", func() []string { return nil })

	out, err := b.Call(context.Background(), "SomeExternalService", "dev1", "getValue", []interface{}{1, 2})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	m, ok := out.(map[string]interface{})
	if !ok || m["echo"] != "dev1" {
		t.Fatalf("expected the remote host's echoed device id, got %#v", out)
	}
}

func TestUnknownBlock(t *testing.T) {
	b := NewBridge(service.NewRegistry(), "", "RoomTEST", func() []string { return []string{"r1", "r2"} })

	if v, ok := b.UnknownBlock("roomID"); !ok || v != "RoomTEST" {
		t.Fatalf("expected roomID block to return RoomTEST, got %v, %v", v, ok)
	}
	if v, ok := b.UnknownBlock("robotsInRoom"); !ok {
		t.Fatalf("expected robotsInRoom block to be handled")
	} else if robots, ok := v.([]string); !ok || len(robots) != 2 {
		t.Fatalf("expected 2 robot ids, got %#v", v)
	}
	if _, ok := b.UnknownBlock("somethingElse"); ok {
		t.Fatalf("expected an unrecognized block name to be unhandled")
	}
}
