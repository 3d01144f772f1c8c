package room

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"roboscapesim/client"
	"roboscapesim/physics"
	"roboscapesim/robot"
	"roboscapesim/service"
	"roboscapesim/shared"
)

// registerServices installs the room's World service. Entity/PositionSensor/ProximitySensor/LIDAR/
// Trigger/WaypointList services are created on demand by World.addSensor and
// World.addEntity (§4.3), since they're always attached to a specific
// object-table entry that doesn't exist until then.
func (r *Room) registerServices() {
	def := service.Def{
		Methods: []string{
			"addRobot", "addBlock", "addEntity", "addSensor", "instantiateEntities",
			"listEntities", "removeEntity", "removeAllEntities", "reset", "showText",
			"clearText", "listTextures", "listMeshes", "listUsers",
		},
		Events: []string{"reset", "userJoined", "userLeft"},
	}
	key := service.Key{ID: r.Name, Type: service.World}
	svc := service.NewService(key, def, r.RoboScapeEndpoint, r.dispatchWorld)
	r.Services.Register(svc)
}

// emitWorldEvent publishes an event straight to the room's event bus; used
// for events the room itself originates (userJoined/userLeft) rather than
// ones produced by an RPC call. Nothing is enqueued on the World service.
func (r *Room) emitWorldEvent(name string, params map[string]interface{}) {
	r.Events.PublishData(name, params)
}

// dispatchWorld implements the World service's method table (§4.3).
func (r *Room) dispatchWorld(req service.Request) service.Response {
	switch req.Method {
	case "addRobot":
		return r.rpcAddRobot(req.Params)
	case "addBlock":
		return r.rpcAddBlock(req.Params)
	case "addEntity":
		return r.rpcAddEntity(req.Params)
	case "addSensor":
		return r.rpcAddSensor(req.Params)
	case "instantiateEntities":
		return r.rpcInstantiateEntities(req.Params)
	case "listEntities":
		return service.Response{Value: r.ObjectNames()}
	case "removeEntity":
		return r.rpcRemoveEntity(req.Params)
	case "removeAllEntities":
		for _, name := range r.ObjectNames() {
			r.RemoveObject(name)
		}
		return service.Response{Value: true}
	case "reset":
		r.resetAll()
		return service.Response{
			Value: true,
			Event: &service.Event{Service: service.Key{ID: r.Name, Type: service.World}, Name: "reset"},
		}
	case "showText":
		return r.rpcShowText(req.Params)
	case "clearText":
		r.BroadcastAll(client.ClearText())
		return service.Response{Value: true}
	case "listTextures":
		return service.Response{Value: []string{}}
	case "listMeshes":
		return service.Response{Value: []string{}}
	case "listUsers":
		return service.Response{Value: r.Visitors()}
	default:
		return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrUnknownMethod, req.Method)}
	}
}

func (r *Room) rpcAddRobot(params []interface{}) service.Response {
	x, y, z, heading, err := coord4(params)
	if err != nil {
		return service.Response{Err: err}
	}
	if len(r.RobotIDs()) >= shared.RobotLimit {
		return service.Response{Value: false}
	}
	pos := mgl32.Vec3{clampCoord(x), clampCoord(y), clampCoord(z)}
	rot := mgl32.QuatRotate(heading, mgl32.Vec3{0, 1, 0})
	rb := robot.NewRobot(r.World, pos, rot, robot.Scale)
	if r.RoboScapeEndpoint != "" {
		if err := rb.Dial(r.RoboScapeEndpoint); err != nil {
			shared.DebugError(err)
		}
	}
	r.robots.Set(rb.ID, rb)
	r.objects.Set("robot_"+rb.ID, &physics.ObjectData{
		Name:      "robot_" + rb.ID,
		Transform: rb.InitialTransform,
		Updated:   true,
	})
	return service.Response{Value: rb.ID}
}

func (r *Room) rpcAddBlock(params []interface{}) service.Response {
	if len(r.ObjectNames()) >= shared.DynamicEntityLimit {
		return service.Response{Value: false}
	}
	x, y, z, heading, err := coord4(params)
	if err != nil {
		return service.Response{Err: err}
	}
	w, h, d := 1.0, 1.0, 1.0
	if v, err := service.Arg(params, 4); err == nil {
		if f, err := service.CoerceNumber(v); err == nil {
			w = f
		}
	}
	if v, err := service.Arg(params, 5); err == nil {
		if f, err := service.CoerceNumber(v); err == nil {
			h = f
		}
	}
	if v, err := service.Arg(params, 6); err == nil {
		if f, err := service.CoerceNumber(v); err == nil {
			d = f
		}
	}
	kinematic := false
	if v, err := service.Arg(params, 7); err == nil {
		if b, err := service.CoerceBool(v); err == nil {
			kinematic = b
		}
	}
	if kinematic && r.kinematicCount() >= shared.KinematicEntityLimit {
		return service.Response{Value: false}
	}

	id := "block_" + uuid.NewString()[:8]
	pos := mgl32.Vec3{clampCoord(x), clampCoord(y), clampCoord(z)}
	rot := mgl32.QuatRotate(heading, mgl32.Vec3{0, 1, 0})
	kind := physics.BodyDynamic
	if kinematic {
		kind = physics.BodyKinematicPosition
	}
	body := r.World.InsertBody(kind, pos, rot)
	r.World.InsertCollider(body, physics.ShapeBox,
		mgl32.Vec3{float32(w) / 2, float32(h) / 2, float32(d) / 2}, mgl32.Vec3{}, mgl32.QuatIdent(), false)
	r.World.Label(id, body)

	transform := physics.NewTransform(pos, rot)
	transform.Scale = mgl32.Vec3{float32(w), float32(h), float32(d)}
	obj := &physics.ObjectData{Name: id, Transform: transform, IsKinematic: kinematic, Updated: true}
	r.AddObject(id, obj)
	r.reseters.Set(id, func() {
		r.World.SetTransform(body, pos, rot)
		obj.Transform = transform
		obj.Updated = true
	})
	return service.Response{Value: id}
}

func (r *Room) kinematicCount() int {
	n := 0
	for _, name := range r.ObjectNames() {
		if obj, ok := r.Object(name); ok && obj.IsKinematic {
			n++
		}
	}
	return n
}

func (r *Room) rpcAddEntity(params []interface{}) service.Response {
	typ, err := service.CoerceString(mustArg(params, 0))
	if err != nil {
		return service.Response{Err: err}
	}
	// addEntity("robot", x, y, z, rotation) is the same operation as addRobot.
	if typ == "robot" {
		return r.rpcAddRobot(params[1:])
	}
	if len(r.ObjectNames()) >= shared.DynamicEntityLimit {
		return service.Response{Value: false}
	}
	x, y, z, heading, err := coord4shift(params, 1)
	if err != nil {
		return service.Response{Err: err}
	}

	id := typ + "_" + uuid.NewString()[:8]
	pos := mgl32.Vec3{clampCoord(x), clampCoord(y), clampCoord(z)}
	rot := mgl32.QuatRotate(heading, mgl32.Vec3{0, 1, 0})
	body := r.World.InsertBody(physics.BodyKinematicPosition, pos, rot)
	r.World.InsertCollider(body, physics.ShapeBox, mgl32.Vec3{0.25, 0.25, 0.25}, mgl32.Vec3{}, mgl32.QuatIdent(), false)
	r.World.Label(id, body)

	obj := &physics.ObjectData{Name: id, Transform: physics.NewTransform(pos, rot), IsKinematic: true, Updated: true}
	r.AddObject(id, obj)

	entKey := service.Key{ID: id, Type: service.Entity}
	entDef := service.Def{Methods: []string{"setPosition", "setRotation", "reset"}}
	r.Services.Register(service.NewService(entKey, entDef, r.RoboScapeEndpoint, r.makeEntityHandler(id, body)))

	return service.Response{Value: id}
}

func (r *Room) rpcInstantiateEntities(params []interface{}) service.Response {
	list, ok := mustArg(params, 0).([]interface{})
	if !ok {
		return service.Response{Err: fmt.Errorf("%w: expected a list", shared.ErrInvalidArgument)}
	}
	ids := make([]interface{}, 0, len(list))
	for _, item := range list {
		spec, ok := item.([]interface{})
		if !ok {
			continue
		}
		resp := r.rpcAddEntity(spec)
		if resp.Err == nil {
			ids = append(ids, resp.Value)
		}
	}
	return service.Response{Value: ids}
}

func (r *Room) rpcAddSensor(params []interface{}) service.Response {
	typ, err := service.CoerceString(mustArg(params, 0))
	if err != nil {
		return service.Response{Err: err}
	}
	target, err := service.CoerceString(mustArg(params, 1))
	if err != nil {
		return service.Response{Err: err}
	}
	body, ok := r.World.BodyByLabel(target)
	if !ok {
		return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrEntityNotFound, target)}
	}

	id := typ + "_" + uuid.NewString()[:8]
	var svcType service.Type
	var def service.Def
	var handler service.Handler

	switch typ {
	case "position":
		svcType = service.PositionSensor
		def = service.Def{Methods: []string{"getPosition", "getX", "getY", "getZ", "getHeading"}}
		handler = r.makePositionSensorHandler(body)
	case "proximity":
		svcType = service.ProximitySensor
		def = service.Def{Methods: []string{"getIntensity", "dig"}}
		multiplier, offset, target := proximityOptions(params)
		handler = r.makeProximitySensorHandler(body, multiplier, offset, target)
	case "lidar":
		svcType = service.LIDAR
		def = service.Def{Methods: []string{"getRange"}}
		opts := lidarOptions(params)
		handler = r.makeLIDARHandler(body, opts)
	case "trigger":
		svcType = service.Trigger
		def = service.Def{Methods: []string{"entitiesInside"}, Events: []string{"triggerEnter", "triggerExit"}}
		collider := r.World.InsertCollider(body, physics.ShapeBox, mgl32.Vec3{0.3, 0.3, 0.3}, mgl32.Vec3{}, mgl32.QuatIdent(), true)
		r.triggers.Set(id, collider)
		r.triggerState.Set(id, map[string]bool{})
		handler = r.makeTriggerHandler(collider)
	case "waypoint":
		svcType = service.WaypointList
		def = service.Def{Methods: []string{"getNextWaypoint"}}
		wp := waypointOption(params)
		handler = r.makeWaypointHandler(wp)
	default:
		return service.Response{Err: fmt.Errorf("%w: unknown sensor type %q", shared.ErrInvalidArgument, typ)}
	}

	key := service.Key{ID: id, Type: svcType}
	svc := service.NewService(key, def, r.RoboScapeEndpoint, handler)
	svc.Attached = []string{target}
	r.Services.Register(svc)
	return service.Response{Value: id}
}

func (r *Room) rpcRemoveEntity(params []interface{}) service.Response {
	name, err := service.CoerceString(mustArg(params, 0))
	if err != nil {
		return service.Response{Err: err}
	}
	r.RemoveObject(name)
	return service.Response{Value: true}
}

func (r *Room) rpcShowText(params []interface{}) service.Response {
	boxID, err := service.CoerceString(mustArg(params, 0))
	if err != nil {
		return service.Response{Err: err}
	}
	text, err := service.CoerceString(mustArg(params, 1))
	if err != nil {
		return service.Response{Err: err}
	}
	var timeout *float64
	if v, err := service.Arg(params, 2); err == nil {
		if f, err := service.CoerceNumber(v); err == nil {
			timeout = &f
		}
	}
	r.BroadcastAll(client.DisplayText(boxID, text, timeout))
	return service.Response{Value: true}
}

// resetAll restores every registered reseter and every robot to its initial
// state (§4.3 "reset").
func (r *Room) resetAll() {
	for _, name := range r.reseters.GetKeys() {
		if fn, ok := r.reseters.Get(name); ok {
			fn()
		}
	}
	for _, id := range r.RobotIDs() {
		if rb, ok := r.Robot(id); ok {
			rb.Reset(r.World)
		}
	}
}

func (r *Room) makeEntityHandler(id string, body physics.BodyHandle) service.Handler {
	return func(req service.Request) service.Response {
		obj, ok := r.Object(id)
		if !ok {
			return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrEntityNotFound, id)}
		}
		switch req.Method {
		case "setPosition":
			x, y, z, err := coord3(req.Params)
			if err != nil {
				return service.Response{Err: err}
			}
			pos := mgl32.Vec3{clampCoord(x), clampCoord(y), clampCoord(z)}
			rot := obj.Transform.Rotation()
			r.World.SetTransform(body, pos, rot)
			obj.Transform.Position = pos
			obj.Updated = true
			return service.Response{Value: true}
		case "setRotation":
			heading, err := service.CoerceNumber(mustArg(req.Params, 0))
			if err != nil {
				return service.Response{Err: err}
			}
			rot := mgl32.QuatRotate(float32(heading), mgl32.Vec3{0, 1, 0})
			pos, _, _ := r.World.GetTransform(body)
			r.World.SetTransform(body, pos, rot)
			obj.Transform.Kind = physics.OrientationQuaternion
			obj.Transform.Quat = rot
			obj.Transform.Normalize()
			obj.Updated = true
			return service.Response{Value: true}
		case "reset":
			if fn, ok := r.reseters.Get(id); ok {
				fn()
			}
			return service.Response{Value: true}
		default:
			return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrUnknownMethod, req.Method)}
		}
	}
}

func (r *Room) makePositionSensorHandler(body physics.BodyHandle) service.Handler {
	return func(req service.Request) service.Response {
		pos, rot, ok := r.World.GetTransform(body)
		if !ok {
			return service.Response{Err: shared.ErrSensorNotAttached}
		}
		switch req.Method {
		case "getPosition":
			return service.Response{Value: []float32{pos.X(), pos.Y(), pos.Z()}}
		case "getX":
			return service.Response{Value: pos.X()}
		case "getY":
			return service.Response{Value: pos.Y()}
		case "getZ":
			return service.Response{Value: pos.Z()}
		case "getHeading":
			return service.Response{Value: yawOf(rot)}
		default:
			return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrUnknownMethod, req.Method)}
		}
	}
}

func (r *Room) makeProximitySensorHandler(body physics.BodyHandle, multiplier, offset float32, target mgl32.Vec3) service.Handler {
	return func(req service.Request) service.Response {
		switch req.Method {
		case "getIntensity":
			pos, _, ok := r.World.GetTransform(body)
			if !ok {
				return service.Response{Err: shared.ErrSensorNotAttached}
			}
			dist := pos.Sub(target).Len()
			return service.Response{Value: float64(multiplier / (dist + offset))}
		case "dig":
			return service.Response{Value: true}
		default:
			return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrUnknownMethod, req.Method)}
		}
	}
}

// lidarOpts carries the addSensor-time configuration a LIDAR handler closes
// over (§4.3 LIDAR).
type lidarOpts struct {
	numBeams             int
	startAngle, endAngle float32
	offsetPos            mgl32.Vec3
	maxDist              float32
}

func lidarOptions(params []interface{}) lidarOpts {
	opts := lidarOpts{numBeams: 1, startAngle: 0, endAngle: 0, maxDist: 3.0}
	if v, err := service.Arg(params, 2); err == nil {
		if m, ok := v.(map[string]interface{}); ok {
			if f, err := service.CoerceNumber(m["numBeams"]); err == nil {
				opts.numBeams = int(f)
			}
			if f, err := service.CoerceNumber(m["startAngle"]); err == nil {
				opts.startAngle = float32(f)
			}
			if f, err := service.CoerceNumber(m["endAngle"]); err == nil {
				opts.endAngle = float32(f)
			}
			if f, err := service.CoerceNumber(m["maxDist"]); err == nil {
				opts.maxDist = float32(f)
			}
			if ox, ok := m["offsetX"]; ok {
				if f, err := service.CoerceNumber(ox); err == nil {
					opts.offsetPos[0] = float32(f)
				}
			}
			if oy, ok := m["offsetY"]; ok {
				if f, err := service.CoerceNumber(oy); err == nil {
					opts.offsetPos[1] = float32(f)
				}
			}
			if oz, ok := m["offsetZ"]; ok {
				if f, err := service.CoerceNumber(oz); err == nil {
					opts.offsetPos[2] = float32(f)
				}
			}
		}
	}
	if opts.numBeams < 1 {
		opts.numBeams = 1
	}
	return opts
}

// makeLIDARHandler implements getRange(): rays span [startAngle,endAngle] in
// numBeams equal steps (a single beam uses startAngle), each cast from
// bodyPos + bodyRotation*offsetPos in direction
// bodyRotation * Ry(angle) * +Z, clamped to maxDist (§4.3 LIDAR).
func (r *Room) makeLIDARHandler(body physics.BodyHandle, opts lidarOpts) service.Handler {
	return func(req service.Request) service.Response {
		if req.Method != "getRange" {
			return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrUnknownMethod, req.Method)}
		}
		pos, rot, ok := r.World.GetTransform(body)
		if !ok {
			return service.Response{Err: shared.ErrSensorNotAttached}
		}
		origin := pos.Add(rot.Rotate(opts.offsetPos))
		exclude := map[physics.BodyHandle]bool{body: true}

		// Beam k uses angle a + (b-a) * k / max(1, n-1) (§4.3 LIDAR, Testable
		// Property 5); a single beam uses startAngle.
		denom := opts.numBeams - 1
		if denom < 1 {
			denom = 1
		}
		dists := make([]float64, opts.numBeams)
		for i := 0; i < opts.numBeams; i++ {
			angle := opts.startAngle + (opts.endAngle-opts.startAngle)*float32(i)/float32(denom)
			beamRot := mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
			dir := rot.Rotate(beamRot.Rotate(mgl32.Vec3{0, 0, 1}))
			hit := r.World.RayCast(origin, dir, opts.maxDist, exclude)
			d := float64(opts.maxDist)
			if hit.Hit {
				d = math.Min(float64(opts.maxDist), float64(hit.Distance))
			}
			dists[i] = d
		}
		return service.Response{Value: dists}
	}
}

func (r *Room) makeTriggerHandler(collider physics.ColliderHandle) service.Handler {
	return func(req service.Request) service.Response {
		if req.Method != "entitiesInside" {
			return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrUnknownMethod, req.Method)}
		}
		set := r.World.Intersections(collider)
		out := make([]string, 0, len(set))
		for name := range set {
			out = append(out, name)
		}
		return service.Response{Value: out}
	}
}

func (r *Room) makeWaypointHandler(wp mgl32.Vec3) service.Handler {
	return func(req service.Request) service.Response {
		if req.Method != "getNextWaypoint" {
			return service.Response{Err: fmt.Errorf("%w: %s", shared.ErrUnknownMethod, req.Method)}
		}
		return service.Response{Value: []float32{wp.X(), wp.Y(), wp.Z()}}
	}
}

// diffTriggers compares every registered trigger's current intersection set
// against its last-tick snapshot and returns the triggerEnter/triggerExit
// events the difference implies (§4.3 Trigger, §4.4 step 3).
func (r *Room) diffTriggers() []service.Event {
	var events []service.Event
	for _, id := range r.triggers.GetKeys() {
		collider, ok := r.triggers.Get(id)
		if !ok {
			continue
		}
		current := r.World.Intersections(collider)
		prev, _ := r.triggerState.Get(id)

		for name := range current {
			if !prev[name] {
				events = append(events, service.Event{
					Service: service.Key{ID: id, Type: service.Trigger},
					Name:    "triggerEnter",
					Params:  map[string]interface{}{"entity": name, "trigger": id},
				})
			}
		}
		for name := range prev {
			if !current[name] {
				events = append(events, service.Event{
					Service: service.Key{ID: id, Type: service.Trigger},
					Name:    "triggerExit",
					Params:  map[string]interface{}{"entity": name, "trigger": id},
				})
			}
		}
		r.triggerState.Set(id, current)
	}
	return events
}

func proximityOptions(params []interface{}) (multiplier, offset float32, target mgl32.Vec3) {
	multiplier, offset = 1.0, 0.1
	if v, err := service.Arg(params, 2); err == nil {
		if m, ok := v.(map[string]interface{}); ok {
			if f, err := service.CoerceNumber(m["multiplier"]); err == nil {
				multiplier = float32(f)
			}
			if f, err := service.CoerceNumber(m["offset"]); err == nil {
				offset = float32(f)
			}
			if f, err := service.CoerceNumber(m["targetX"]); err == nil {
				target[0] = float32(f)
			}
			if f, err := service.CoerceNumber(m["targetY"]); err == nil {
				target[1] = float32(f)
			}
			if f, err := service.CoerceNumber(m["targetZ"]); err == nil {
				target[2] = float32(f)
			}
		}
	}
	return
}

func waypointOption(params []interface{}) mgl32.Vec3 {
	var wp mgl32.Vec3
	if v, err := service.Arg(params, 2); err == nil {
		if m, ok := v.(map[string]interface{}); ok {
			if f, err := service.CoerceNumber(m["x"]); err == nil {
				wp[0] = float32(f)
			}
			if f, err := service.CoerceNumber(m["y"]); err == nil {
				wp[1] = float32(f)
			}
			if f, err := service.CoerceNumber(m["z"]); err == nil {
				wp[2] = float32(f)
			}
		}
	}
	return wp
}

func yawOf(rot mgl32.Quat) float32 {
	forward := rot.Rotate(mgl32.Vec3{0, 0, 1})
	return float32(math.Atan2(float64(forward.X()), float64(forward.Z())))
}

func mustArg(params []interface{}, i int) interface{} {
	v, _ := service.Arg(params, i)
	return v
}

func coord3(params []interface{}) (x, y, z float32, err error) {
	return coord3shift(params, 0)
}

func coord3shift(params []interface{}, at int) (x, y, z float32, err error) {
	xf, err := service.CoerceNumber(mustArg(params, at))
	if err != nil {
		return 0, 0, 0, err
	}
	yf, err := service.CoerceNumber(mustArg(params, at+1))
	if err != nil {
		return 0, 0, 0, err
	}
	zf, err := service.CoerceNumber(mustArg(params, at+2))
	if err != nil {
		return 0, 0, 0, err
	}
	return float32(xf), float32(yf), float32(zf), nil
}

func coord4(params []interface{}) (x, y, z, heading float32, err error) {
	return coord4shift(params, 0)
}

func coord4shift(params []interface{}, at int) (x, y, z, heading float32, err error) {
	x, y, z, err = coord3shift(params, at)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	hf, err := service.CoerceNumber(mustArg(params, at+3))
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return x, y, z, float32(hf), nil
}
