// Package shared defines application-specific error values used throughout
// the simulation node and cluster directory, categorized by §7 error kind.
package shared

import "errors"

// Invalid RPC argument. The service replies to the requester with an error
// string built from one of these; room state is not disturbed.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnknownMethod     = errors.New("unknown method")
	ErrUnknownService    = errors.New("unknown service")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrSensorNotAttached = errors.New("sensor not attached to a body")
)

// Capacity denial. addRobot/addBlock past a configured limit return false in
// place of an id rather than an error; these sentinels let callers that need
// to distinguish which limit tripped log a specific reason.
var (
	ErrDynamicEntityLimit   = errors.New("dynamic entity limit reached")
	ErrKinematicEntityLimit = errors.New("kinematic entity limit reached")
	ErrRobotLimit           = errors.New("robot limit reached")
)

// Authorization denial. Commands on a claimed robot from a non-owner are
// dropped; this sentinel lets the caller log at info without surfacing
// anything to the user.
var ErrNotClaimOwner = errors.New("robot is claimed by another user")

// Room / directory lifecycle.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrWrongPassword  = errors.New("wrong password")
	ErrNoServersLive  = errors.New("no simulation servers are registered")
	ErrUpstreamFailed = errors.New("upstream server request failed")
	ErrRoomNotAlive   = errors.New("room is no longer alive")
	ErrRoomLimit      = errors.New("this node is already hosting its maximum number of rooms")
)

// Script error. The script host surfaces a runtime error, which the room
// wraps into a VMError update broadcast to clients without tearing the room
// down.
var ErrScriptRuntime = errors.New("script runtime error")

// Interpolation domain mismatch: mixing Euler and quaternion orientations in
// a single transform interpolation.
var ErrInterpolationDomainMismatch = errors.New("cannot interpolate between euler and quaternion transforms")
