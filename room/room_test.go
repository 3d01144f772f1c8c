package room

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"roboscapesim/client"
	"roboscapesim/physics"
	"roboscapesim/service"
)

func newTestRoom() *Room {
	return New(Options{Name: "RoomTEST01"})
}

// TestUpdatedFlagInvariant pins Testable Property 1: Updated is true only
// when a transform actually diverges from the prior tick's, and a full
// update clears it unconditionally.
func TestUpdatedFlagInvariant(t *testing.T) {
	r := newTestRoom()
	resp := r.dispatchWorld(service.Request{Method: "addBlock", Params: []interface{}{0.0, 0.0, 0.0, 0.0}})
	if resp.Err != nil {
		t.Fatalf("addBlock: %v", resp.Err)
	}
	name := resp.Value.(string)

	obj, ok := r.Object(name)
	if !ok {
		t.Fatalf("object %s not found", name)
	}
	obj.Updated = false

	r.World.Step(1.0 / 60)
	r.recomputeTransforms()
	if obj.Updated {
		t.Fatalf("stationary block should not be marked updated")
	}

	body, _ := r.World.BodyByLabel(name)
	r.World.SetVelocity(body, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{})
	r.World.Step(1.0 / 60)
	r.recomputeTransforms()
	if !obj.Updated {
		t.Fatalf("moved block should be marked updated")
	}

	r.clearUpdated()
	if obj.Updated {
		t.Fatalf("clearUpdated should unconditionally clear Updated")
	}
}

// TestClaimLifecycle pins Testable Property 8: at most one username may hold
// a claim, and every successful claim/unclaim rebroadcasts RobotClaimed.
func TestClaimLifecycle(t *testing.T) {
	r := newTestRoom()
	resp := r.dispatchWorld(service.Request{Method: "addRobot", Params: []interface{}{0.0, 0.0, 0.0, 0.0}})
	if resp.Err != nil {
		t.Fatalf("addRobot: %v", resp.Err)
	}
	robotID := resp.Value.(string)

	s := &client.Session{Send: make(chan client.UpdateMessage, 8)}
	r.RegisterSession("c1", s)

	r.claimRobot(robotID, "alice")
	msg := <-s.Send
	if msg.Type != client.UMRobotClaimed || msg.RobotID != robotID || msg.Username != "alice" {
		t.Fatalf("expected RobotClaimed(%s, alice), got %+v", robotID, msg)
	}

	rb, _ := r.Robot(robotID)
	rb.Motor.SpeedL = 5
	before := rb.Motor.SpeedL

	// bob is not the claim owner; ResetRobot must be dropped silently.
	r.applyClientCommand(clientCommand{clientID: "c2", username: "bob", msg: client.ClientMessage{Type: client.CMResetRobot, RobotID: robotID}})
	select {
	case m := <-s.Send:
		t.Fatalf("unauthorized ResetRobot must not broadcast, got %+v", m)
	default:
	}
	if rb.Motor.SpeedL != before {
		t.Fatalf("unauthorized ResetRobot must not mutate robot state")
	}

	r.unclaimRobot(robotID, "alice")
	msg = <-s.Send
	if msg.Type != client.UMRobotClaimed || msg.Username != "" {
		t.Fatalf("expected release RobotClaimed(%s, \"\"), got %+v", robotID, msg)
	}
}

// TestJoinPasswordGate pins End-to-end Scenario 6.
func TestJoinPasswordGate(t *testing.T) {
	r := New(Options{Name: "RoomTEST02", Password: "p"})

	wrong := &client.Session{ID: "c1", Send: make(chan client.UpdateMessage, 4)}
	if err := r.Join(wrong, "alice", "q"); err == nil {
		t.Fatalf("expected wrong-password join to fail")
	}

	right := &client.Session{ID: "c2", Send: make(chan client.UpdateMessage, 4)}
	if err := r.Join(right, "alice", "p"); err != nil {
		t.Fatalf("expected correct-password join to succeed, got %v", err)
	}
	first := <-right.Send
	if first.Type != client.UMRoomInfo {
		t.Fatalf("expected RoomInfo first, got %+v", first)
	}
	second := <-right.Send
	if second.Type != client.UMUpdate || !second.IsFull {
		t.Fatalf("expected a full Update second, got %+v", second)
	}
}

// TestLIDARBeamAngles pins Testable Property 5 and the §4.3 beam direction
// formula in an empty world, where every beam reports maxDist.
func TestLIDARBeamAngles(t *testing.T) {
	r := newTestRoom()
	chassis := r.World.InsertBody(physics.BodyFixed, mgl32.Vec3{}, mgl32.QuatIdent())
	r.World.Label("lidar_target", chassis)

	resp := r.rpcAddSensor([]interface{}{"lidar", "lidar_target", map[string]interface{}{
		"numBeams": 3.0, "startAngle": 0.0, "endAngle": 1.0, "maxDist": 3.0,
	}})
	if resp.Err != nil {
		t.Fatalf("addSensor: %v", resp.Err)
	}
	id := resp.Value.(string)

	svc, ok := r.Services.Get(service.Key{ID: id, Type: service.LIDAR})
	if !ok {
		t.Fatalf("lidar service %s not registered", id)
	}
	out := svc.Handler(service.Request{Method: "getRange"})
	if out.Err != nil {
		t.Fatalf("getRange: %v", out.Err)
	}
	dists, ok := out.Value.([]float64)
	if !ok || len(dists) != 3 {
		t.Fatalf("expected 3 distances, got %#v", out.Value)
	}
	for _, d := range dists {
		if d != 3.0 {
			t.Fatalf("expected every beam to report maxDist in an empty world, got %v", d)
		}
	}
}

func TestTimedOut(t *testing.T) {
	r := New(Options{Name: "RoomTEST03", FullTimeout: time.Hour})
	if r.TimedOut(time.Now()) {
		t.Fatalf("freshly created room should not be timed out")
	}
	if !r.TimedOut(time.Now().Add(2 * time.Hour)) {
		t.Fatalf("room should time out after FullTimeout elapses")
	}
}
