// Package client implements the WebSocket client channel: a session per
// connected browser, the inbound ClientMessage / outbound UpdateMessage
// variant types (§4.5), and their MessagePack wire codec with JSON as a
// textual fallback on the same frame. Grounded on http_server/robot.go's
// gorilla/websocket upgrade path, promoted from an indirect teacher
// dependency to this package's direct one (see SPEC_FULL §11).
package client

// ClientMessageType tags the inbound variants a client may send.
type ClientMessageType string

const (
	CMHeartbeat     ClientMessageType = "heartbeat"
	CMResetAll      ClientMessageType = "resetAll"
	CMResetRobot    ClientMessageType = "resetRobot"
	CMClaimRobot    ClientMessageType = "claimRobot"
	CMUnclaimRobot  ClientMessageType = "unclaimRobot"
	CMEncryptRobot  ClientMessageType = "encryptRobot"
	CMJoinRoom      ClientMessageType = "joinRoom"
)

// ClientMessage is one inbound message from a browser session (§4.5).
// RobotID, Username and Password are populated depending on Type; unused
// fields are left zero.
type ClientMessage struct {
	Type     ClientMessageType `msgpack:"type" json:"type"`
	RobotID  string            `msgpack:"robotId,omitempty" json:"robotId,omitempty"`
	RoomID   string            `msgpack:"roomId,omitempty" json:"roomId,omitempty"`
	Username string            `msgpack:"username,omitempty" json:"username,omitempty"`
	Password string            `msgpack:"password,omitempty" json:"password,omitempty"`
}

// UpdateMessageType tags the outbound variants the room sends to clients.
type UpdateMessageType string

const (
	UMHeartbeat    UpdateMessageType = "heartbeat"
	UMRoomInfo     UpdateMessageType = "roomInfo"
	UMUpdate       UpdateMessageType = "update"
	UMDisplayText  UpdateMessageType = "displayText"
	UMClearText    UpdateMessageType = "clearText"
	UMBeep         UpdateMessageType = "beep"
	UMHibernating  UpdateMessageType = "hibernating"
	UMRemoveObject UpdateMessageType = "removeObject"
	UMRemoveAll    UpdateMessageType = "removeAll"
	UMRobotClaimed UpdateMessageType = "robotClaimed"
	UMVMError      UpdateMessageType = "vmError"
)

// RoomState is the snapshot sent as the payload of a RoomInfo update: enough
// for a joining client to render the room chrome (§4.5 "sends RoomInfo").
type RoomState struct {
	ID          string   `msgpack:"id" json:"id"`
	Environment string   `msgpack:"environment" json:"environment"`
	HasPassword bool     `msgpack:"hasPassword" json:"hasPassword"`
	Visitors    []string `msgpack:"visitors" json:"visitors"`
}

// UpdateMessage is one outbound message to a browser session (§4.5).
type UpdateMessage struct {
	Type     UpdateMessageType         `msgpack:"type" json:"type"`
	RoomTime float64                   `msgpack:"roomtime,omitempty" json:"roomtime,omitempty"`
	IsFull   bool                      `msgpack:"isFull,omitempty" json:"isFull,omitempty"`
	Objects  map[string]ObjectSnapshot `msgpack:"objects,omitempty" json:"objects,omitempty"`
	BoxID    string                    `msgpack:"boxId,omitempty" json:"boxId,omitempty"`
	Text     string                    `msgpack:"text,omitempty" json:"text,omitempty"`
	Timeout  *float64                  `msgpack:"timeout,omitempty" json:"timeout,omitempty"`
	RobotID  string                    `msgpack:"robotId,omitempty" json:"robotId,omitempty"`
	Freq     uint16                    `msgpack:"freq,omitempty" json:"freq,omitempty"`
	Duration uint16                    `msgpack:"duration,omitempty" json:"duration,omitempty"`
	Name     string                    `msgpack:"name,omitempty" json:"name,omitempty"`
	Username string                    `msgpack:"username,omitempty" json:"username,omitempty"`
	ErrorText string                   `msgpack:"errorText,omitempty" json:"errorText,omitempty"`
	ErrorPos string                    `msgpack:"errorPos,omitempty" json:"errorPos,omitempty"`
	Room     *RoomState                `msgpack:"room,omitempty" json:"room,omitempty"`
}

// ObjectSnapshot is the wire-shape of physics.ObjectData sent to clients: a
// delta update strips VisualInfo (§4.4 step 7), so it's modeled separately
// here rather than reusing the physics package's richer type directly.
type ObjectSnapshot struct {
	Name        string   `msgpack:"name" json:"name"`
	Position    [3]float32 `msgpack:"position" json:"position"`
	IsQuaternion bool    `msgpack:"isQuaternion" json:"isQuaternion"`
	Rotation    [4]float32 `msgpack:"rotation" json:"rotation"`
	Scale       [3]float32 `msgpack:"scale" json:"scale"`
	IsKinematic bool     `msgpack:"isKinematic" json:"isKinematic"`
	Visual      *VisualSnapshot `msgpack:"visual,omitempty" json:"visual,omitempty"`
}

type VisualSnapshot struct {
	Kind      string  `msgpack:"kind" json:"kind"`
	Color     [3]float32 `msgpack:"color,omitempty" json:"color,omitempty"`
	Texture   string  `msgpack:"texture,omitempty" json:"texture,omitempty"`
	AssetPath string  `msgpack:"assetPath,omitempty" json:"assetPath,omitempty"`
	Shape     string  `msgpack:"shape,omitempty" json:"shape,omitempty"`
}

func Heartbeat() UpdateMessage { return UpdateMessage{Type: UMHeartbeat} }

func Hibernating() UpdateMessage { return UpdateMessage{Type: UMHibernating} }

func ClearText() UpdateMessage { return UpdateMessage{Type: UMClearText} }

func RemoveAll() UpdateMessage { return UpdateMessage{Type: UMRemoveAll} }

func RemoveObject(name string) UpdateMessage {
	return UpdateMessage{Type: UMRemoveObject, Name: name}
}

func Beep(robotID string, freq, duration uint16) UpdateMessage {
	return UpdateMessage{Type: UMBeep, RobotID: robotID, Freq: freq, Duration: duration}
}

func DisplayText(boxID, text string, timeout *float64) UpdateMessage {
	return UpdateMessage{Type: UMDisplayText, BoxID: boxID, Text: text, Timeout: timeout}
}

func RobotClaimed(robotID, username string) UpdateMessage {
	return UpdateMessage{Type: UMRobotClaimed, RobotID: robotID, Username: username}
}

func VMError(text, pos string) UpdateMessage {
	return UpdateMessage{Type: UMVMError, ErrorText: text, ErrorPos: pos}
}

func RoomInfo(state RoomState) UpdateMessage {
	return UpdateMessage{Type: UMRoomInfo, Room: &state}
}

func Update(roomtime float64, isFull bool, objects map[string]ObjectSnapshot) UpdateMessage {
	return UpdateMessage{Type: UMUpdate, RoomTime: roomtime, IsFull: isFull, Objects: objects}
}
