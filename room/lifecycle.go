package room

import (
	"roboscapesim/client"
	"roboscapesim/robot"
	"roboscapesim/service"
	"roboscapesim/shared"
)

// drainInbound applies every authorized client command queued since the last
// tick (§4.4 step 1, §5 "Claims"). Only the tick loop may reach this point,
// so robot/object mutation here is safe without additional locking.
func (r *Room) drainInbound() {
	for {
		select {
		case cmd := <-r.inbound:
			r.applyClientCommand(cmd)
		default:
			return
		}
	}
}

func (r *Room) applyClientCommand(cmd clientCommand) {
	switch cmd.msg.Type {
	case client.CMResetAll:
		r.resetAll()
		r.emitWorldEvent("reset", nil)
	case client.CMResetRobot:
		r.withAuthorizedRobot(cmd.msg.RobotID, cmd.username, func(rb *robot.Robot) {
			rb.Reset(r.World)
		})
	case client.CMClaimRobot:
		r.claimRobot(cmd.msg.RobotID, cmd.username)
	case client.CMUnclaimRobot:
		r.unclaimRobot(cmd.msg.RobotID, cmd.username)
	case client.CMEncryptRobot:
		r.withAuthorizedRobot(cmd.msg.RobotID, cmd.username, func(rb *robot.Robot) {
			if err := rb.Send([]byte{robot.MsgButtonPress, 0}); err != nil {
				shared.DebugError(err)
			}
			if err := rb.Send([]byte{robot.MsgButtonPress, 1}); err != nil {
				shared.DebugError(err)
			}
		})
	default:
		shared.DebugPrint("room %s: dropping unhandled command %s from %s", r.Name, cmd.msg.Type, cmd.username)
	}
	r.touch()
}

// isAuthorized reports whether username may operate on robotID: the robot
// must exist and be either unclaimed or claimed by username (§5 "Claims").
func (r *Room) isAuthorized(robotID, username string) (*robot.Robot, bool) {
	rb, ok := r.Robot(robotID)
	if !ok {
		return nil, false
	}
	return rb, rb.ClaimedBy == "" || rb.ClaimedBy == username
}

// withAuthorizedRobot runs fn against robotID's robot iff username is
// authorized; otherwise the command is silently dropped with a log line
// (§5 "Claims", §7 "Authorization denial").
func (r *Room) withAuthorizedRobot(robotID, username string, fn func(*robot.Robot)) {
	rb, ok := r.isAuthorized(robotID, username)
	if !ok {
		shared.DebugPrint("room %s: %s not authorized for robot %s", r.Name, username, robotID)
		return
	}
	fn(rb)
}

// claimRobot succeeds iff the robot is unclaimed or already claimed by
// username; every successful claim (including a no-op re-claim) rebroadcasts
// RobotClaimed (§5 "Claims", Testable Property 8).
func (r *Room) claimRobot(robotID, username string) {
	rb, ok := r.Robot(robotID)
	if !ok {
		return
	}
	if rb.ClaimedBy != "" && rb.ClaimedBy != username {
		shared.DebugPrint("room %s: robot %s already claimed by %s, %s's claim rejected", r.Name, robotID, rb.ClaimedBy, username)
		return
	}
	rb.ClaimedBy = username
	r.BroadcastAll(client.RobotClaimed(robotID, username))
}

// unclaimRobot releases a robot iff username is the current claim owner.
func (r *Room) unclaimRobot(robotID, username string) {
	rb, ok := r.Robot(robotID)
	if !ok || rb.ClaimedBy != username {
		shared.DebugPrint("room %s: robot %s not claimed by %s, unclaim rejected", r.Name, robotID, username)
		return
	}
	rb.ClaimedBy = ""
	r.BroadcastAll(client.RobotClaimed(robotID, ""))
}

// dispatchEvents turns per-tick service events into client broadcasts and
// re-announces (§4.3 Trigger enter/exit, World reset/userJoined/userLeft).
func (r *Room) dispatchEvents(events []service.Event) {
	for _, ev := range events {
		r.Events.PublishData(ev.Name, ev.Params)
		switch ev.Name {
		case "triggerEnter", "triggerExit":
			// Clients observe trigger state through entitiesInside polling from
			// the script host, not a dedicated broadcast; the event bus publish
			// above is this tick's source of truth for script-host subscribers.
		case "reset":
			r.BroadcastAll(client.RemoveAll())
		}
	}
}

// replayClaimedRobots sends RobotClaimed(id, username) for every currently
// claimed robot to a single newly-joined session (§4.5 "replays current
// RobotClaimed state").
func (r *Room) replayClaimedRobots(s *client.Session) {
	for _, id := range r.RobotIDs() {
		rb, ok := r.Robot(id)
		if !ok || rb.ClaimedBy == "" {
			continue
		}
		select {
		case s.Send <- client.RobotClaimed(id, rb.ClaimedBy):
		default:
		}
	}
}

// Resolve implements client.RoomResolver trivially for a single room value,
// used where a node looks up a room by id before handing a session to it.
type SingleRoomResolver struct{ Room *Room }

func (s SingleRoomResolver) Resolve(roomID string) (client.RoomHandler, bool) {
	if s.Room == nil || s.Room.Name != roomID || !s.Room.IsAlive() {
		return nil, false
	}
	return s.Room, true
}
