// Package room implements the Room aggregate: physics world, robots,
// services, the object table clients see, and the 60Hz tick loop that
// drives all of it. Grounded on robot_manager's dual-indexed registry
// pattern (generalized from a process-global robot table to a per-room
// one) and on original_source room/*.rs for tick ordering and lifecycle.
package room

import (
	"crypto/rand"
	"sync"
	"sync/atomic"
	"time"

	"roboscapesim/client"
	"roboscapesim/physics"
	"roboscapesim/robot"
	"roboscapesim/scripthost"
	"roboscapesim/service"
	"roboscapesim/shared"
	"roboscapesim/shared/data_structures"
	"roboscapesim/shared/event_bus"
)

const nameCharset = "0123456789ABCDEF"

// NewRoomName generates "Room" + 5 uppercase hex characters (§3).
func NewRoomName() string {
	var b [shared.RoomNameSuffixLength]byte
	_, _ = rand.Read(b[:])
	out := make([]byte, shared.RoomNameSuffixLength)
	for i, v := range b {
		out[i] = nameCharset[int(v)%len(nameCharset)]
	}
	return "Room" + string(out)
}

// Resetter restores one object table entry to its initial state; reseters
// map 1:1 onto an Objects entry (§3 invariant).
type Resetter func()

// clientCommand is one authorized-pending client-originated command queued
// for the next tick's step 1 (ClaimRobot/UnclaimRobot/ResetRobot/ResetAll/
// EncryptRobot travel this path; JoinRoom is handled synchronously by Join).
type clientCommand struct {
	clientID string
	username string
	msg      client.ClientMessage
}

// Room aggregates one simulation instance (§3).
type Room struct {
	Name             string
	Password         string
	Environment      string
	Creator          string
	HibernateTimeout time.Duration
	FullTimeout      time.Duration

	RoboScapeEndpoint string // host:port robots dial and services announce to

	World    *physics.World
	Services *service.Registry
	Events   event_bus.EventBus

	objects  *data_structures.SafeMap[string, *physics.ObjectData]
	robots   *data_structures.SafeMap[string, *robot.Robot]
	reseters *data_structures.SafeMap[string, Resetter]

	// triggers maps a Trigger service's id to the sensor collider it watches;
	// triggerState holds the intersection set observed as of the last tick,
	// diffed each tick by diffTriggers to emit triggerEnter/triggerExit (§4.3).
	triggers     *data_structures.SafeMap[string, physics.ColliderHandle]
	triggerState *data_structures.SafeMap[string, map[string]bool]

	visitorsMu sync.Mutex
	visitors   map[string]bool
	sockets    map[string]map[string]bool // username -> set of client ids

	sessions *data_structures.SafeMap[string, *client.Session]

	inbound chan clientCommand

	roomtime            float64
	lastUpdate           time.Time
	lastFullUpdate       time.Time
	lastInteractionTime  atomic.Int64 // unix seconds
	hibernating          atomic.Bool
	hibernatingSince     time.Time
	isAlive              atomic.Bool
	lastAnnounceTime     time.Time

	// AnnounceFunc is called whenever structural state changes materially
	// (§4.4 "Announce"); set from NewManager's announce argument.
	// cmd/roomnode passes nil and instead pushes Manager.List() to the
	// cluster directory's /server/rooms on a timer.
	AnnounceFunc func(Info)

	// ScriptHost routes the room's script-originated RPC calls to its own
	// services or out to NetsBlox (§4 "Script host integration"). The
	// script VM itself is out of scope (§2 Non-goals); ProjectXML is the
	// resolved project source a VM implementation would load.
	ScriptHost *scripthost.Bridge
	ProjectXML string
}

// Info is the §3 "Cluster directory entries" RoomInfo shape.
type Info struct {
	ID            string   `json:"id"`
	Environment   string   `json:"environment"`
	Server        string   `json:"server"`
	Creator       string   `json:"creator"`
	HasPassword   bool     `json:"hasPassword"`
	IsHibernating bool     `json:"isHibernating"`
	Visitors      []string `json:"visitors"`
}

// Options configures a new room at creation time.
type Options struct {
	Name                string
	Password            string
	Environment         string
	Creator             string
	HibernateTimeout    time.Duration
	FullTimeout         time.Duration
	RoboScapeEndpoint   string
	NetsBloxServicesURL string
}

func New(opts Options) *Room {
	name := opts.Name
	if name == "" {
		name = NewRoomName()
	}
	if opts.HibernateTimeout == 0 {
		opts.HibernateTimeout = 5 * time.Minute
	}
	if opts.FullTimeout == 0 {
		opts.FullTimeout = 60 * time.Minute
	}

	r := &Room{
		Name:              name,
		Password:          opts.Password,
		Environment:       opts.Environment,
		Creator:           opts.Creator,
		HibernateTimeout:  opts.HibernateTimeout,
		FullTimeout:       opts.FullTimeout,
		RoboScapeEndpoint: opts.RoboScapeEndpoint,

		World:    physics.NewWorld(),
		Services: service.NewRegistry(),
		Events:   event_bus.NewEventBus(),

		objects:  data_structures.NewSafeMap[string, *physics.ObjectData](),
		robots:   data_structures.NewSafeMap[string, *robot.Robot](),
		reseters: data_structures.NewSafeMap[string, Resetter](),

		triggers:     data_structures.NewSafeMap[string, physics.ColliderHandle](),
		triggerState: data_structures.NewSafeMap[string, map[string]bool](),

		visitors: make(map[string]bool),
		sockets:  make(map[string]map[string]bool),
		sessions: data_structures.NewSafeMap[string, *client.Session](),

		inbound: make(chan clientCommand, 256),

		lastUpdate:     time.Now(),
		lastFullUpdate: time.Now(),
	}
	r.isAlive.Store(true)
	r.hibernating.Store(true)
	r.hibernatingSince = time.Now()
	r.lastInteractionTime.Store(time.Now().Unix())
	r.registerServices()
	r.ScriptHost = scripthost.NewBridge(r.Services, opts.NetsBloxServicesURL, r.Name, r.RobotIDs)
	return r
}

func (r *Room) IsAlive() bool { return r.isAlive.Load() }

// Kill clears isAlive; the tick loop and script host terminate by the next
// scheduling point (§5 "Cancellation and timeout").
func (r *Room) Kill() { r.isAlive.Store(false) }

func (r *Room) IsHibernating() bool { return r.hibernating.Load() }

func (r *Room) RoomTime() float64 { return r.roomtime }

func (r *Room) touch() {
	r.lastInteractionTime.Store(time.Now().Unix())
}

// TimedOut reports whether now - lastInteractionTime exceeds FullTimeout
// (§3 Lifecycle).
func (r *Room) TimedOut(now time.Time) bool {
	last := time.Unix(r.lastInteractionTime.Load(), 0)
	return now.Sub(last) > r.FullTimeout
}

// Visitors returns a snapshot of the current visitor usernames.
func (r *Room) Visitors() []string {
	r.visitorsMu.Lock()
	defer r.visitorsMu.Unlock()
	out := make([]string, 0, len(r.visitors))
	for u := range r.visitors {
		out = append(out, u)
	}
	return out
}

func (r *Room) snapshotInfo() Info {
	return Info{
		ID:            r.Name,
		Environment:   r.Environment,
		Creator:       r.Creator,
		HasPassword:   r.Password != "",
		IsHibernating: r.IsHibernating(),
		Visitors:      r.Visitors(),
	}
}

func (r *Room) announce() {
	r.lastAnnounceTime = time.Now()
	if r.AnnounceFunc != nil {
		r.AnnounceFunc(r.snapshotInfo())
	}
}

// AddObject inserts or overwrites an object-table entry and marks it
// updated.
func (r *Room) AddObject(name string, obj *physics.ObjectData) {
	obj.Updated = true
	r.objects.Set(name, obj)
}

func (r *Room) Object(name string) (*physics.ObjectData, bool) {
	return r.objects.Get(name)
}

func (r *Room) RemoveObject(name string) {
	r.objects.Delete(name)
	r.reseters.Delete(name)
	r.World.UnlabelBody(name)
}

func (r *Room) ObjectNames() []string {
	return r.objects.GetKeys()
}

func (r *Room) Robot(id string) (*robot.Robot, bool) {
	return r.robots.Get(id)
}

func (r *Room) RobotIDs() []string {
	return r.robots.GetKeys()
}

// clampCoord clamps a coordinate to ±MaxCoord (§4.3).
func clampCoord(v float32) float32 {
	if v > shared.MaxCoord {
		return shared.MaxCoord
	}
	if v < -shared.MaxCoord {
		return -shared.MaxCoord
	}
	return v
}

func clampSpeedScale(v float32) float32 {
	if v > shared.MaxSpeedScale {
		return shared.MaxSpeedScale
	}
	if v < shared.MinSpeedScale {
		return shared.MinSpeedScale
	}
	return v
}

func clampScale(v float32) float32 {
	if v > shared.MaxEntityScale {
		return shared.MaxEntityScale
	}
	if v < shared.MinEntityScale {
		return shared.MinEntityScale
	}
	return v
}

