// Package physics is a minimal rigid-body world: bodies, colliders, and
// motorized joints, stepped with a fixed dt and queried by ray cast and
// intersection pairs. No third-party physics engine is retrieved anywhere in
// the example pack (see DESIGN.md), so the stepping and intersection math
// here is hand-rolled: bodies are integrated kinematically (position/
// orientation advanced directly from velocity) rather than through a full
// contact-resolution solver. That is sufficient for the room's observable
// contract — transforms, ray casts, and sensor overlap — without claiming to
// be a general physics engine.
package physics

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"roboscapesim/shared/data_structures"
)

type BodyHandle uint64
type ColliderHandle uint64
type JointHandle uint64

type BodyKind int

const (
	BodyDynamic BodyKind = iota
	BodyKinematicPosition
	BodyFixed
)

type Body struct {
	Kind     BodyKind
	Position mgl32.Vec3
	Rotation mgl32.Quat
	LinVel   mgl32.Vec3
	AngVel   mgl32.Vec3

	colliders []ColliderHandle
}

type Collider struct {
	Body     BodyHandle
	Shape    Shape
	Extents  mgl32.Vec3 // half-extents for box/cylinder/capsule, Extents.X() is radius for sphere
	LocalPos mgl32.Vec3
	LocalRot mgl32.Quat
	IsSensor bool
	Enabled  bool
}

// Joint is a single-axis motorized revolute joint (a driven wheel) or a free
// joint (the ball caster) connecting a child body to a parent body.
type Joint struct {
	Parent     BodyHandle
	Child      BodyHandle
	Axis       mgl32.Vec3
	Motorized  bool
	TargetVel  float32 // rad/s, only meaningful when Motorized
}

// World owns every body, collider and joint for one room's simulation.
// It is the sole mutation surface; per §5 only the owning room's tick loop
// calls into it.
type World struct {
	mu sync.RWMutex

	bodies    map[BodyHandle]*Body
	colliders map[ColliderHandle]*Collider
	joints    map[JointHandle]*Joint
	nextID    uint64

	// labels maps a human name (object table key) to the body it mirrors.
	labels *data_structures.SafeMap[string, BodyHandle]

	// intersections holds, per sensor collider, the set of body labels
	// currently overlapping it (used for whiskers and Trigger services).
	intersections map[ColliderHandle]map[string]bool
}

func NewWorld() *World {
	return &World{
		bodies:        make(map[BodyHandle]*Body),
		colliders:     make(map[ColliderHandle]*Collider),
		joints:        make(map[JointHandle]*Joint),
		labels:        data_structures.NewSafeMap[string, BodyHandle](),
		intersections: make(map[ColliderHandle]map[string]bool),
	}
}

func (w *World) alloc() uint64 {
	w.nextID++
	return w.nextID
}

func (w *World) InsertBody(kind BodyKind, pos mgl32.Vec3, rot mgl32.Quat) BodyHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := BodyHandle(w.alloc())
	w.bodies[h] = &Body{Kind: kind, Position: pos, Rotation: rot.Normalize()}
	return h
}

func (w *World) Label(name string, body BodyHandle) {
	w.labels.Set(name, body)
}

func (w *World) BodyByLabel(name string) (BodyHandle, bool) {
	return w.labels.Get(name)
}

func (w *World) UnlabelBody(name string) {
	w.labels.Delete(name)
}

func (w *World) InsertCollider(body BodyHandle, shape Shape, extents, localPos mgl32.Vec3, localRot mgl32.Quat, isSensor bool) ColliderHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := ColliderHandle(w.alloc())
	w.colliders[h] = &Collider{
		Body: body, Shape: shape, Extents: extents,
		LocalPos: localPos, LocalRot: localRot.Normalize(),
		IsSensor: isSensor, Enabled: true,
	}
	if b, ok := w.bodies[body]; ok {
		b.colliders = append(b.colliders, h)
	}
	return h
}

func (w *World) InsertJoint(parent, child BodyHandle, axis mgl32.Vec3, motorized bool) JointHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	h := JointHandle(w.alloc())
	w.joints[h] = &Joint{Parent: parent, Child: child, Axis: axis.Normalize(), Motorized: motorized}
	return h
}

// SetJointVelocity sets a motorized joint's target angular velocity (rad/s).
func (w *World) SetJointVelocity(j JointHandle, vel float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if joint, ok := w.joints[j]; ok {
		joint.TargetVel = vel
	}
}

// RemoveBody tears down a body's joints, then its colliders, then the body
// itself (§4.1 cleanup order: articulations, colliders, body).
func (w *World) RemoveBody(h BodyHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for jh, j := range w.joints {
		if j.Parent == h || j.Child == h {
			delete(w.joints, jh)
		}
	}
	if b, ok := w.bodies[h]; ok {
		for _, ch := range b.colliders {
			delete(w.colliders, ch)
			delete(w.intersections, ch)
		}
	}
	delete(w.bodies, h)
}

func (w *World) SetVelocity(h BodyHandle, lin, ang mgl32.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[h]; ok {
		b.LinVel = lin
		b.AngVel = ang
	}
}

func (w *World) SetTransform(h BodyHandle, pos mgl32.Vec3, rot mgl32.Quat) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.bodies[h]; ok {
		b.Position = pos
		b.Rotation = rot.Normalize()
	}
}

func (w *World) GetBody(h BodyHandle) (Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[h]
	if !ok {
		return Body{}, false
	}
	return *b, true
}

func (w *World) GetTransform(h BodyHandle) (mgl32.Vec3, mgl32.Quat, bool) {
	b, ok := w.GetBody(h)
	if !ok {
		return mgl32.Vec3{}, mgl32.Quat{}, false
	}
	return b.Position, b.Rotation, true
}

// worldColliderPose returns a collider's world-space center for overlap and
// ray tests: body position plus the body rotation applied to the local
// offset (chained local rotation is ignored — colliders in this domain are
// axis-aligned relative to their parent, matching the robot/whisker shapes
// §4.2 describes).
func (w *World) worldColliderPose(c *Collider) (mgl32.Vec3, mgl32.Quat) {
	body, ok := w.bodies[c.Body]
	if !ok {
		return c.LocalPos, c.LocalRot
	}
	center := body.Position.Add(body.Rotation.Rotate(c.LocalPos))
	rot := body.Rotation.Mul(c.LocalRot)
	return center, rot
}

// boundingRadius approximates a collider's bounding sphere for overlap tests.
func (c *Collider) boundingRadius() float32 {
	switch c.Shape {
	case ShapeSphere:
		return c.Extents.X()
	default:
		return c.Extents.Len()
	}
}

// Step first applies any motorized joint's target velocity to its child
// body's angular velocity (the wheel bodies spin even though the chassis
// itself is driven by the room's differential-drive kinematics, §4.2), then
// advances every dynamic/kinematic body by dt using its current velocity.
func (w *World) Step(dt float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, j := range w.joints {
		if !j.Motorized {
			continue
		}
		if child, ok := w.bodies[j.Child]; ok {
			child.AngVel = j.Axis.Mul(j.TargetVel)
		}
	}

	for _, b := range w.bodies {
		if b.Kind == BodyFixed {
			continue
		}
		b.Position = b.Position.Add(b.LinVel.Mul(dt))
		if av := b.AngVel; av.LenSqr() > 0 {
			angle := av.Len() * dt
			axis := av.Normalize()
			delta := mgl32.QuatRotate(angle, axis)
			b.Rotation = delta.Mul(b.Rotation).Normalize()
		}
	}

	w.recomputeIntersections()
}

func (w *World) recomputeIntersections() {
	sensors := make([]ColliderHandle, 0)
	for h, c := range w.colliders {
		if c.IsSensor {
			sensors = append(sensors, h)
		}
	}
	for _, sh := range sensors {
		sensor := w.colliders[sh]
		center, _ := w.worldColliderPose(sensor)
		radius := sensor.boundingRadius()
		set := make(map[string]bool)
		for oh, other := range w.colliders {
			if oh == sh || other.IsSensor || !other.Enabled || other.Body == sensor.Body {
				continue
			}
			oc, _ := w.worldColliderPose(other)
			dist := center.Sub(oc).Len()
			if dist <= radius+other.boundingRadius() {
				if name := w.labelForBody(other.Body); name != "" {
					set[name] = true
				}
			}
		}
		w.intersections[sh] = set
	}
}

func (w *World) labelForBody(h BodyHandle) string {
	for _, name := range w.labels.GetKeys() {
		if bh, ok := w.labels.Get(name); ok && bh == h {
			return name
		}
	}
	return ""
}

// Intersections returns the set of body labels currently overlapping a
// sensor collider, as of the last Step.
func (w *World) Intersections(sensor ColliderHandle) map[string]bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	src := w.intersections[sensor]
	out := make(map[string]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// RayHit describes the nearest collider a ray struck.
type RayHit struct {
	Distance float32
	Label    string
	Hit      bool
}

// RayCast fires a ray from origin in direction dir (normalized internally),
// ignoring colliders belonging to any body in exclude, and reports the
// nearest hit within maxDist using each collider's bounding sphere.
func (w *World) RayCast(origin, dir mgl32.Vec3, maxDist float32, exclude map[BodyHandle]bool) RayHit {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if dir.LenSqr() == 0 {
		return RayHit{}
	}
	d := dir.Normalize()

	best := RayHit{Distance: maxDist}
	for _, c := range w.colliders {
		if c.IsSensor || !c.Enabled || exclude[c.Body] {
			continue
		}
		center, _ := w.worldColliderPose(c)
		r := c.boundingRadius()

		toCenter := center.Sub(origin)
		tca := toCenter.Dot(d)
		if tca < 0 {
			continue
		}
		d2 := toCenter.LenSqr() - tca*tca
		r2 := r * r
		if d2 > r2 {
			continue
		}
		thc := float32(math.Sqrt(float64(r2 - d2)))
		t := tca - thc
		if t < 0 {
			t = tca + thc
		}
		if t >= 0 && t < best.Distance {
			best.Distance = t
			best.Label = w.labelForBody(c.Body)
			best.Hit = true
		}
	}
	return best
}
