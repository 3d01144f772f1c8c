package robot

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"roboscapesim/physics"
	"roboscapesim/shared"
)

// Message type bytes (§4.2 protocol table).
const (
	MsgInitialize  byte = 'I'
	MsgDrive       byte = 'D'
	MsgSetSpeed    byte = 'S'
	MsgBeep        byte = 'B'
	MsgSetLED      byte = 'L'
	MsgGetRange    byte = 'R'
	MsgGetTicks    byte = 'T'
	MsgSetNumeric  byte = 'n'
	MsgButtonPress byte = 'P'
	MsgWhisker     byte = 'W'
)

// RequiresTimingCheck reports whether a message type is subject to
// minMessageSpacing rate limiting. {D,S,B,P} are limited; {n,L,I,R,T} bypass
// it.
func RequiresTimingCheck(msgType byte) bool {
	switch msgType {
	case MsgSetNumeric, MsgSetLED, MsgInitialize, MsgGetRange, MsgGetTicks:
		return false
	default:
		return true
	}
}

// Dial opens the robot's outbound UDP socket to the RoboScape server
// endpoint and sends the initial "I" frame.
func (r *Robot) Dial(serverAddr string) error {
	conn, err := net.Dial("udp", serverAddr)
	if err != nil {
		return fmt.Errorf("dialing roboscape server: %w", err)
	}
	r.Conn = conn
	return r.Send([]byte{MsgInitialize})
}

// Send frames a payload as <6-byte MAC><4-byte BE seconds-since-start><payload>
// and writes it to the robot's socket (Testable Property 3).
func (r *Robot) Send(payload []byte) error {
	if r.Conn == nil {
		return nil
	}
	frame := make([]byte, 0, 10+len(payload))
	frame = append(frame, r.MAC[:]...)
	var ts [4]byte
	binary.BigEndian.PutUint32(ts[:], uint32(time.Since(r.StartTime).Seconds()))
	frame = append(frame, ts[:]...)
	frame = append(frame, payload...)
	_, err := r.Conn.Write(frame)
	if err != nil {
		shared.DebugError(fmt.Errorf("sending roboscape frame: %w", err))
	}
	return err
}

// Poll performs one non-blocking read of at most one inbound frame (no MAC/
// timestamp prefix — that framing only applies outbound, §6). It never
// blocks the room's tick (1 ms deadline).
func (r *Robot) Poll() ([]byte, bool) {
	if r.Conn == nil {
		return nil, false
	}
	_ = r.Conn.SetReadDeadline(time.Now().Add(time.Millisecond))
	buf := make([]byte, 512)
	n, err := r.Conn.Read(buf)
	if err != nil || n == 0 {
		return nil, false
	}
	return buf[:n], true
}

// Event is an outbound side-effect of dispatching an inbound frame, destined
// for the room's client broadcast (Beep, DisplayText).
type Event struct {
	Kind     string // "beep" | "displayText"
	RobotID  string
	Freq     uint16
	Duration uint16
	Text     string
	Timeout  float64
}

// Dispatch decodes and handles one inbound frame per §4.2's table, applying
// rate limiting, updating the robot's motor/whisker state, and returning any
// response frame to echo back plus client-facing events. World is used for
// the GetRange ray cast.
func (r *Robot) Dispatch(world *physics.World, frame []byte) (response []byte, events []Event) {
	if len(frame) == 0 {
		return nil, nil
	}
	msgType := frame[0]

	if RequiresTimingCheck(msgType) {
		if r.MinMessageSpacing > 0 && time.Since(r.LastMessageTime) < r.MinMessageSpacing {
			return nil, nil
		}
	}

	switch msgType {
	case MsgDrive:
		if len(frame) >= 5 {
			r.Motor.Drive = DriveSetDistance
			distR := int16(binary.LittleEndian.Uint16(frame[1:3]))
			distL := int16(binary.LittleEndian.Uint16(frame[3:5]))
			r.Motor.DistanceL = float64(distL)
			r.Motor.DistanceR = float64(distR)
			if distL != 0 {
				r.Motor.SpeedL = sign32(float32(distL)) * SetDistanceDriveSpeed * r.Motor.SpeedScale
			}
			if distR != 0 {
				r.Motor.SpeedR = sign32(float32(distR)) * SetDistanceDriveSpeed * r.Motor.SpeedScale
			}
		}
	case MsgSetSpeed:
		r.Motor.Drive = DriveSetSpeed
		if len(frame) >= 5 {
			s1 := int16(binary.LittleEndian.Uint16(frame[1:3])) // speedR
			s2 := int16(binary.LittleEndian.Uint16(frame[3:5])) // speedL
			r.Motor.SpeedL = -float32(s2) * r.Motor.SpeedScale / 32.0
			r.Motor.SpeedR = -float32(s1) * r.Motor.SpeedScale / 32.0
		}
	case MsgBeep:
		if len(frame) >= 5 {
			freq := binary.LittleEndian.Uint16(frame[1:3])
			dur := binary.LittleEndian.Uint16(frame[3:5])
			events = append(events, Event{Kind: "beep", RobotID: r.ID, Freq: freq, Duration: dur})
		}
	case MsgSetLED:
		// No simulated LED state to mutate; echoed below.
	case MsgGetRange:
		dist := r.getRange(world)
		var buf [3]byte
		buf[0] = MsgGetRange
		binary.LittleEndian.PutUint16(buf[1:3], dist)
		r.LastMessageTime = time.Now()
		return buf[:], nil
	case MsgGetTicks:
		var buf [9]byte
		buf[0] = MsgGetTicks
		binary.LittleEndian.PutUint32(buf[1:5], uint32(int32(r.Motor.Ticks[1])))
		binary.LittleEndian.PutUint32(buf[5:9], uint32(int32(r.Motor.Ticks[0])))
		r.LastMessageTime = time.Now()
		return buf[:], nil
	case MsgSetNumeric:
		if len(frame) >= 2 {
			events = append(events, Event{Kind: "displayText", RobotID: r.ID, Text: fmt.Sprintf("%d", frame[1]), Timeout: 1})
		}
	case MsgButtonPress:
		// No state to mutate; echoed below.
	default:
		return nil, nil
	}

	r.LastMessageTime = time.Now()
	return frame, events
}

// getRange casts a ray from a chassis-local forward offset along the
// chassis' forward axis, clamping to 3 m and reporting centimeters
// (Testable Property 4).
func (r *Robot) getRange(world *physics.World) uint16 {
	pos, rot, ok := world.GetTransform(r.Chassis)
	if !ok {
		return uint16(3.0 * 100)
	}
	offset := rot.Rotate(mgl32.Vec3{0.17, 0.05, 0})
	origin := pos.Add(offset)
	dir := rot.Rotate(mgl32.Vec3{1, 0, 0})
	exclude := map[physics.BodyHandle]bool{r.Chassis: true}
	hit := world.RayCast(origin, dir, 3.0, exclude)
	dist := float64(3.0)
	if hit.Hit {
		dist = math.Min(3.0, float64(hit.Distance))
	}
	return uint16(math.Round(dist * 100))
}

// WhiskerFrame encodes the "W" whisker-state message per §4.2's inverted-bit
// convention: bit0 = !right, bit1 = !left.
func WhiskerFrame(left, right bool) []byte {
	var b byte
	if !right {
		b |= 1
	}
	if !left {
		b |= 2
	}
	return []byte{MsgWhisker, b}
}

func sign32(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
