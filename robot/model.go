// Package robot models a simulated two-wheeled differential-drive robot: its
// physics body, motor controller, whisker sensors, and the RoboScape-over-UDP
// protocol bridge that multiplexes drive/speed/beep/range/ticks/whisker
// traffic against it.
package robot

import (
	"net"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"roboscapesim/physics"
)

// Scale is the default robot body scale applied on top of the caller's
// requested scale (chassis/wheel dimensions are expressed relative to it).
const Scale float32 = 1.0

// Robot is one simulated robot: a physics chassis with two driven wheels,
// a rear ball caster, and two whisker sensors (§3 Robot, §4.2 Body).
type Robot struct {
	ID  string
	MAC [6]byte

	Chassis     physics.BodyHandle
	WheelJoints [2]physics.JointHandle
	WheelBodies [2]physics.BodyHandle
	CasterBody  physics.BodyHandle
	WhiskerL    physics.ColliderHandle
	WhiskerR    physics.ColliderHandle

	Motor         MotorData
	WhiskerState  [2]bool // [left, right]

	Conn              net.Conn // UDP socket dialed to the RoboScape server endpoint, nil until Initialize
	StartTime         time.Time
	LastMessageTime   time.Time
	MinMessageSpacing time.Duration

	ClaimedBy string // "" means unclaimed
	Claimable bool

	InitialTransform physics.Transform
}

// NewRobot builds a robot's physics body (chassis, two driven wheels, a rear
// ball caster, two whisker sensors) in world at position/orientation and
// registers it under "robot_<id>". Grounded on
// original_source robot/physics.rs's create_robot_body, generalized from
// rapier3d handles to this package's physics.World.
func NewRobot(world *physics.World, position mgl32.Vec3, orientation mgl32.Quat, scale float32) *Robot {
	if scale <= 0 {
		scale = 1.0
	}
	mac := NewMAC()
	id := MACToHex(mac)

	hw := 0.07 * scale
	hh := 0.03 * scale
	hd := 0.03 * scale

	initial := physics.NewTransform(position, orientation)

	chassis := world.InsertBody(physics.BodyDynamic, position, orientation)
	world.InsertCollider(chassis, physics.ShapeBox, mgl32.Vec3{hw, hh, hd}, mgl32.Vec3{}, mgl32.QuatIdent(), false)

	r := &Robot{
		ID:                id,
		MAC:               mac,
		Chassis:           chassis,
		Motor:             NewMotorData(),
		StartTime:         time.Now(),
		LastMessageTime:   time.Unix(0, 0),
		MinMessageSpacing: 40 * time.Millisecond, // 25 messages per second
		Claimable:         true,
		InitialTransform:  initial,
	}

	wheelZ := [2]float32{hd + 0.01*scale, -(hd + 0.01*scale)}
	for i := 0; i < 2; i++ {
		wheelPos := position.Add(mgl32.Vec3{hw * 0.5, -hh + 0.015*scale, wheelZ[i]})
		wheelBody := world.InsertBody(physics.BodyDynamic, wheelPos, mgl32.QuatIdent())
		world.InsertCollider(wheelBody, physics.ShapeCylinder, mgl32.Vec3{0.01 * scale, 0.03 * scale, 0.01 * scale}, mgl32.Vec3{}, mgl32.QuatIdent(), false)
		joint := world.InsertJoint(chassis, wheelBody, mgl32.Vec3{0, 0, 1}, true)
		r.WheelJoints[i] = joint
		r.WheelBodies[i] = wheelBody
	}

	casterPos := position.Add(mgl32.Vec3{-hw * 0.75, -hh, 0})
	r.CasterBody = world.InsertBody(physics.BodyDynamic, casterPos, mgl32.QuatIdent())
	world.InsertCollider(r.CasterBody, physics.ShapeSphere, mgl32.Vec3{0.015 * scale, 0, 0}, mgl32.Vec3{}, mgl32.QuatIdent(), false)
	world.InsertJoint(chassis, r.CasterBody, mgl32.Vec3{0, 1, 0}, false)

	r.WhiskerL = world.InsertCollider(chassis, physics.ShapeBox, mgl32.Vec3{hw * 0.4, 0.025, hd * 0.8}, mgl32.Vec3{hw * 1.25, 0.05, -hd * 0.4}, mgl32.QuatIdent(), true)
	r.WhiskerR = world.InsertCollider(chassis, physics.ShapeBox, mgl32.Vec3{hw * 0.4, 0.025, hd * 0.8}, mgl32.Vec3{hw * 1.25, 0.05, hd * 0.4}, mgl32.QuatIdent(), true)

	world.Label("robot_"+id, chassis)

	return r
}

// Reset zeros wheel velocities, re-anchors the chassis to its initial
// transform, then releases the chassis to normal dynamics — matching
// §4.2's "Reset" procedure.
func (r *Robot) Reset(world *physics.World) {
	for _, wb := range r.WheelBodies {
		world.SetVelocity(wb, mgl32.Vec3{}, mgl32.Vec3{})
	}
	world.SetTransform(r.Chassis, r.InitialTransform.Position, r.InitialTransform.Rotation())
	world.SetVelocity(r.Chassis, mgl32.Vec3{0, -0.001, 0}, mgl32.Vec3{})
	r.Motor = NewMotorData()
	r.WhiskerState = [2]bool{}
}

// ApplyMotor pushes the motor controller's commanded wheel speeds onto the
// physics world's wheel joints (§4.4 step 2: "push wheel joint motor
// velocities").
func (r *Robot) ApplyMotor(world *physics.World) {
	world.SetJointVelocity(r.WheelJoints[0], r.Motor.SpeedL)
	world.SetJointVelocity(r.WheelJoints[1], r.Motor.SpeedR)

	// Differential-drive kinematics: the chassis' linear/angular velocity in
	// its own frame is derived directly from the two wheel speeds, since this
	// world integrates bodies kinematically rather than through a full
	// contact/friction solver (see physics package doc comment).
	_, rot, ok := world.GetTransform(r.Chassis)
	if !ok {
		return
	}
	wheelBase := float32(0.06)
	linear := (r.Motor.SpeedL + r.Motor.SpeedR) / 2 * -1
	angular := (r.Motor.SpeedR - r.Motor.SpeedL) / wheelBase
	worldLinear := rot.Rotate(mgl32.Vec3{linear, 0, 0})
	world.SetVelocity(r.Chassis, worldLinear, mgl32.Vec3{0, angular, 0})
}

// UpdateWhiskers checks intersection pairs on each whisker sensor and
// reports whether the (left,right) touch pair changed since the last tick.
func (r *Robot) UpdateWhiskers(world *physics.World) (changed bool) {
	left := len(world.Intersections(r.WhiskerL)) > 0
	right := len(world.Intersections(r.WhiskerR)) > 0
	if left != r.WhiskerState[0] || right != r.WhiskerState[1] {
		r.WhiskerState[0] = left
		r.WhiskerState[1] = right
		return true
	}
	return false
}
