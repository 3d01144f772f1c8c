package room

import (
	"fmt"
	"time"

	"roboscapesim/client"
	"roboscapesim/shared"
)

// Join implements client.RoomHandler. Authorization gate: rejects with
// ErrWrongPassword if a password is configured and mismatches. On success
// the room adds username to visitors, registers s.ID under it, and sends
// RoomInfo, a full Update and the replayed RobotClaimed state directly to
// s.Send (§4.5).
func (r *Room) Join(s *client.Session, username, password string) error {
	if r.Password != "" && password != r.Password {
		return fmt.Errorf("%w", shared.ErrWrongPassword)
	}

	r.visitorsMu.Lock()
	wasEmpty := len(r.sockets) == 0
	r.visitors[username] = true
	if r.sockets[username] == nil {
		r.sockets[username] = make(map[string]bool)
	}
	r.sockets[username][s.ID] = true
	r.visitorsMu.Unlock()

	r.RegisterSession(s.ID, s)

	if wasEmpty {
		r.hibernating.Store(false)
	}
	r.touch()

	state := client.RoomState{
		ID:          r.Name,
		Environment: r.Environment,
		HasPassword: r.Password != "",
		Visitors:    r.Visitors(),
	}
	s.Send <- client.RoomInfo(state)
	s.Send <- client.Update(r.roomtime, true, r.snapshotObjects(nil))
	r.replayClaimedRobots(s)

	r.emitWorldEvent("userJoined", map[string]interface{}{"username": username})
	r.announce()

	return nil
}

// RegisterSession associates a client.Session with a client id so the room
// can push broadcasts to it (called by Join once the password gate passes).
func (r *Room) RegisterSession(clientID string, s *client.Session) {
	r.sessions.Set(clientID, s)
}

// Leave implements client.RoomHandler. Removes clientID from username's
// socket set; if that empties the username's set entirely, the username is
// dropped from visitors and a userLeft event fires. If the room has no
// sockets left at all, it enters hibernation.
func (r *Room) Leave(clientID, username string) {
	r.sessions.Delete(clientID)

	r.visitorsMu.Lock()
	stillPresent := false
	if set, ok := r.sockets[username]; ok {
		delete(set, clientID)
		if len(set) == 0 {
			delete(r.sockets, username)
			delete(r.visitors, username)
		} else {
			stillPresent = true
		}
	}
	empty := len(r.sockets) == 0
	r.visitorsMu.Unlock()

	if !stillPresent {
		r.emitWorldEvent("userLeft", map[string]interface{}{"username": username})
	}
	if empty {
		r.hibernating.Store(true)
		r.hibernatingSince = time.Now()
		r.BroadcastAll(client.Hibernating())
	}
	r.announce()
}

// HandleClientMessage implements client.RoomHandler. JoinRoom is handled by
// Join directly; every other variant is queued for the next tick's step 1
// (§4.4), since only the tick loop may mutate robot/object state.
func (r *Room) HandleClientMessage(clientID, username string, msg client.ClientMessage) {
	if msg.Type == client.CMJoinRoom || msg.Type == client.CMHeartbeat {
		return
	}
	select {
	case r.inbound <- clientCommand{clientID: clientID, username: username, msg: msg}:
	default:
		shared.DebugPrint("room %s: inbound queue full, dropping %s from %s", r.Name, msg.Type, username)
	}
}

// BroadcastAll sends msg to every connected session.
func (r *Room) BroadcastAll(msg client.UpdateMessage) {
	for _, id := range r.sessions.GetKeys() {
		if s, ok := r.sessions.Get(id); ok {
			select {
			case s.Send <- msg:
			default:
			}
		}
	}
}

// BroadcastTo sends msg to every session registered under username.
func (r *Room) BroadcastTo(username string, msg client.UpdateMessage) {
	r.visitorsMu.Lock()
	ids := make([]string, 0, len(r.sockets[username]))
	for id := range r.sockets[username] {
		ids = append(ids, id)
	}
	r.visitorsMu.Unlock()

	for _, id := range ids {
		if s, ok := r.sessions.Get(id); ok {
			select {
			case s.Send <- msg:
			default:
			}
		}
	}
}
