package client

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeUpdate serializes an outbound UpdateMessage as MessagePack (§4.5
// "Encoding: MessagePack on the wire").
func EncodeUpdate(msg UpdateMessage) ([]byte, error) {
	return msgpack.Marshal(msg)
}

// DecodeClientMessage decodes an inbound frame. MessagePack is tried first;
// a frame that fails to decode as MessagePack is retried as JSON, since
// "Text JSON is accepted as a fallback on the same frame" (§4.5).
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := msgpack.Unmarshal(data, &msg); err == nil && msg.Type != "" {
		return msg, nil
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, err
	}
	return msg, nil
}

// EncodeClientMessage serializes an outbound ClientMessage as MessagePack,
// the wire format any WebSocket peer of a room — including the CLI test
// client — must speak (§4.5).
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	return msgpack.Marshal(msg)
}

// DecodeUpdate decodes an inbound UpdateMessage, MessagePack first with a
// JSON fallback, mirroring DecodeClientMessage's leniency for a test client
// reading a room's broadcasts.
func DecodeUpdate(data []byte) (UpdateMessage, error) {
	var msg UpdateMessage
	if err := msgpack.Unmarshal(data, &msg); err == nil && msg.Type != "" {
		return msg, nil
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return UpdateMessage{}, err
	}
	return msg, nil
}
