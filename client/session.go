package client

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roboscapesim/shared"
)

// RoomHandler is the subset of room.Room a client session needs. Room
// implements it directly; keeping the dependency as an interface here
// avoids an import cycle (room needs client's message types, client must
// not need room's).
type RoomHandler interface {
	// Join authorizes and registers s under username, then sends RoomInfo, a
	// full Update, and replayed RobotClaimed state directly to s.Send (§4.5).
	Join(s *Session, username, password string) error
	HandleClientMessage(clientID, username string, msg ClientMessage)
	Leave(clientID, username string)
}

// RoomResolver looks up a room by id for an incoming JoinRoom message.
type RoomResolver interface {
	Resolve(roomID string) (RoomHandler, bool)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Session is one connected browser's WebSocket channel. It owns the
// connection's read and write loops; outbound messages are queued on Send
// and flushed FIFO (§5 "Client broadcasts are FIFO per client").
type Session struct {
	ID       string
	conn     *websocket.Conn
	Send     chan UpdateMessage
	resolver RoomResolver

	room     RoomHandler
	username string
	done     chan struct{}
}

// Upgrade accepts a WebSocket connection and starts its read/write loops.
// The session has no room until its first JoinRoom message arrives;
// sessions may be served from a single node-wide endpoint (room id travels
// in the message, not the URL) per the teacher's http_server/robot.go
// upgrade idiom.
func Upgrade(w http.ResponseWriter, r *http.Request, resolver RoomResolver) (*Session, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:       uuid.New().String(),
		conn:     conn,
		Send:     make(chan UpdateMessage, 64),
		resolver: resolver,
		done:     make(chan struct{}),
	}
	go s.writeLoop()
	go s.readLoop()
	return s, nil
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer s.conn.Close()

	for {
		select {
		case msg, ok := <-s.Send:
			if !ok {
				return
			}
			data, err := EncodeUpdate(msg)
			if err != nil {
				shared.DebugError(err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				shared.DebugPrint("write to client %s failed: %v", s.ID, err)
				return
			}
		case <-ticker.C:
			select {
			case s.Send <- Heartbeat():
			default:
			}
		case <-s.done:
			return
		}
	}
}

// readLoop has no read timeout (§5): disconnection is observed at the next
// read and triggers Leave + removal.
func (s *Session) readLoop() {
	defer close(s.done)
	defer func() {
		if s.room != nil {
			s.room.Leave(s.ID, s.username)
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := DecodeClientMessage(data)
		if err != nil {
			shared.DebugPrint("malformed client message from %s: %v", s.ID, err)
			continue
		}

		if msg.Type == CMJoinRoom {
			s.handleJoin(msg)
			continue
		}
		if s.room == nil {
			continue
		}
		s.room.HandleClientMessage(s.ID, s.username, msg)
	}
}

func (s *Session) handleJoin(msg ClientMessage) {
	room, ok := s.resolver.Resolve(msg.RoomID)
	if !ok {
		s.Send <- VMError("room not found", "")
		return
	}
	if err := room.Join(s, msg.Username, msg.Password); err != nil {
		s.Send <- VMError(err.Error(), "")
		return
	}
	s.room = room
	s.username = msg.Username
}

// Close tears down the session's write loop.
func (s *Session) Close() {
	close(s.Send)
}
