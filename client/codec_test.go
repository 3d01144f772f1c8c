package client

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestEncodeDecodeRoundTripsViaMsgpack(t *testing.T) {
	original := ClientMessage{Type: CMJoinRoom, RoomID: "RoomABCDE", Username: "alice", Password: "p"}

	// Round-trip through the msgpack path the session's readLoop uses.
	data, err := msgpack.Marshal(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeClientMessage(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != original {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestDecodeFallsBackToJSON(t *testing.T) {
	jsonFrame := []byte(`{"type":"claimRobot","robotId":"abc123"}`)
	msg, err := DecodeClientMessage(jsonFrame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != CMClaimRobot || msg.RobotID != "abc123" {
		t.Fatalf("unexpected decode result: %+v", msg)
	}
}

func TestUpdateMessageEncodesWithoutError(t *testing.T) {
	msg := Update(12.5, false, map[string]ObjectSnapshot{
		"robot_abc123": {Name: "robot_abc123", Position: [3]float32{1, 2, 3}},
	})
	if _, err := EncodeUpdate(msg); err != nil {
		t.Fatalf("expected Update to encode cleanly, got %v", err)
	}
}
