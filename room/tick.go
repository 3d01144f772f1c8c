package room

import (
	"context"
	"time"

	"roboscapesim/client"
	"roboscapesim/physics"
	"roboscapesim/robot"
	"roboscapesim/shared"
)

// Run drives the room's 60Hz tick loop until ctx is cancelled or the room's
// isAlive flag clears (§4.4, §5 "Cancellation and timeout"). It is the sole
// writer of the room's physics world, object table, robot table and service
// queues (§5 "Scheduling"); a panic here is caught and marks the room dead
// rather than crashing the node (§7 "Fatal room").
func (r *Room) Run(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			shared.DebugPrint("room %s: tick loop panicked, killing room: %v", r.Name, rec)
			r.Kill()
		}
	}()

	ticker := time.NewTicker(time.Duration(shared.TickDelta * float64(time.Second)))
	defer ticker.Stop()

	last := time.Now()
	for r.IsAlive() {
		select {
		case <-ctx.Done():
			r.Kill()
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			r.tick(dt, now)
		}
	}
}

// tick runs one 60Hz step in the §4.4 order. Hibernating rooms skip
// everything but the clock and queued authorized commands — "physics does
// not advance beyond a minimal keep-alive" (GLOSSARY, Hibernation).
func (r *Room) tick(dt float32, wallClock time.Time) {
	r.drainInbound()

	if r.IsHibernating() {
		r.roomtime += float64(dt)
		return
	}

	r.tickRobots(dt)

	events := r.Services.DrainAll()
	events = append(events, r.diffTriggers()...)
	r.dispatchEvents(events)

	r.World.Step(dt)
	r.recomputeTransforms()
	r.tickWhiskers()
	r.broadcastUpdates(wallClock)

	r.roomtime += float64(dt)
}

// tickRobots runs each robot's protocol bridge and motor update (§4.4 step
// 2): at most one inbound UDP frame per robot per tick, then dt motor
// integration, then the resulting wheel joint velocities pushed to physics.
func (r *Room) tickRobots(dt float32) {
	for _, id := range r.RobotIDs() {
		rb, ok := r.Robot(id)
		if !ok {
			continue
		}
		if frame, has := rb.Poll(); has {
			response, events := rb.Dispatch(r.World, frame)
			if response != nil {
				if err := rb.Send(response); err != nil {
					shared.DebugError(err)
				}
			}
			r.handleRobotEvents(id, events)
		}
		rb.Motor.Update(float64(dt))
		rb.ApplyMotor(r.World)
	}
}

func (r *Room) handleRobotEvents(robotID string, events []robot.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case "beep":
			r.BroadcastAll(client.Beep(ev.RobotID, ev.Freq, ev.Duration))
		case "displayText":
			timeout := ev.Timeout
			r.BroadcastAll(client.DisplayText(robotID, ev.Text, &timeout))
		}
	}
}

// recomputeTransforms mirrors each object's physics body back into the
// object table, setting Updated on any observed difference (§4.4 step 5,
// Testable Property 1).
func (r *Room) recomputeTransforms() {
	for _, name := range r.ObjectNames() {
		obj, ok := r.Object(name)
		if !ok {
			continue
		}
		body, ok := r.World.BodyByLabel(name)
		if !ok {
			continue
		}
		pos, rot, ok := r.World.GetTransform(body)
		if !ok {
			continue
		}
		if obj.Transform.Position != pos || obj.Transform.Rotation() != rot {
			obj.Transform.Position = pos
			obj.Transform.Kind = physics.OrientationQuaternion
			obj.Transform.Quat = rot
			obj.Transform.Normalize()
			obj.Updated = true
		}
	}
}

// tickWhiskers checks each robot's whisker intersections and sends a 'W'
// frame over its protocol connection on change (§4.4 step 6).
func (r *Room) tickWhiskers() {
	for _, id := range r.RobotIDs() {
		rb, ok := r.Robot(id)
		if !ok {
			continue
		}
		if rb.UpdateWhiskers(r.World) {
			frame := robot.WhiskerFrame(rb.WhiskerState[0], rb.WhiskerState[1])
			if err := rb.Send(frame); err != nil {
				shared.DebugError(err)
			}
		}
	}
}

// broadcastUpdates implements §4.4 step 7's cadence: a full update every
// FullUpdateInterval clears every object's Updated flag; otherwise a delta
// update carrying only changed objects fires every DeltaUpdateInterval.
func (r *Room) broadcastUpdates(wallClock time.Time) {
	if wallClock.Sub(r.lastFullUpdate) > shared.FullUpdateInterval {
		r.lastFullUpdate = wallClock
		r.lastUpdate = wallClock
		snapshot := r.snapshotObjects(nil)
		r.BroadcastAll(client.Update(r.roomtime, true, snapshot))
		r.clearUpdated()
		return
	}
	if wallClock.Sub(r.lastUpdate) > shared.DeltaUpdateInterval {
		r.lastUpdate = wallClock
		changed := r.changedObjectNames()
		if len(changed) == 0 {
			return
		}
		snapshot := r.snapshotObjects(changed)
		r.BroadcastAll(client.Update(r.roomtime, false, snapshot))
		r.clearUpdated()
	}
}

func (r *Room) changedObjectNames() []string {
	var out []string
	for _, name := range r.ObjectNames() {
		if obj, ok := r.Object(name); ok && obj.Updated {
			out = append(out, name)
		}
	}
	return out
}

func (r *Room) clearUpdated() {
	for _, name := range r.ObjectNames() {
		if obj, ok := r.Object(name); ok {
			obj.Updated = false
		}
	}
}

// snapshotObjects builds the wire-shape ObjectSnapshot map for a broadcast.
// names == nil means "every object" (a full update); a delta update strips
// VisualInfo (§4.4 step 7).
func (r *Room) snapshotObjects(names []string) map[string]client.ObjectSnapshot {
	full := names == nil
	if full {
		names = r.ObjectNames()
	}
	out := make(map[string]client.ObjectSnapshot, len(names))
	for _, name := range names {
		obj, ok := r.Object(name)
		if !ok {
			continue
		}
		snap := client.ObjectSnapshot{
			Name:         obj.Name,
			IsQuaternion: obj.Transform.Kind == physics.OrientationQuaternion,
			IsKinematic:  obj.IsKinematic,
		}
		pos := obj.Transform.Position
		snap.Position = [3]float32{pos.X(), pos.Y(), pos.Z()}
		rot := obj.Transform.Rotation()
		snap.Rotation = [4]float32{rot.V.X(), rot.V.Y(), rot.V.Z(), rot.W}
		scale := obj.Transform.Scale
		snap.Scale = [3]float32{scale.X(), scale.Y(), scale.Z()}
		if full && obj.Visual != nil {
			snap.Visual = &client.VisualSnapshot{
				Kind:      visualKindName(obj.Visual.Kind),
				Color:     [3]float32{obj.Visual.R, obj.Visual.G, obj.Visual.B},
				Texture:   obj.Visual.Texture,
				AssetPath: obj.Visual.AssetPath,
				Shape:     string(obj.Visual.Shape),
			}
		}
		out[name] = snap
	}
	return out
}

func visualKindName(k physics.VisualInfoKind) string {
	switch k {
	case physics.VisualColor:
		return "color"
	case physics.VisualTexture:
		return "texture"
	case physics.VisualMesh:
		return "mesh"
	default:
		return "none"
	}
}
