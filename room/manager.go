package room

import (
	"context"
	"time"

	"roboscapesim/client"
	"roboscapesim/scenario"
	"roboscapesim/shared"
	"roboscapesim/shared/data_structures"
)

// ScenarioResolver resolves a room's requested environment into XML project
// source (§12); kept as an interface here so a node can run with no
// resolver at all (scenarios nil). room still imports scenario, for
// DefaultProjectXML and the assertion below, so scenario's mongo-driver
// dependency remains in room's import graph.
type ScenarioResolver interface {
	Resolve(ctx context.Context, environment string) string
}

var _ ScenarioResolver = (*scenario.Resolver)(nil)

// Manager hosts every Room a simulation node is currently running,
// generalizing robot_manager's single process-global registry to a
// per-node table of rooms (§3 "A node hosts many rooms"; §4.6 "Create
// room" forwards here once the directory has picked this node).
type Manager struct {
	rooms    *data_structures.SafeMap[string, *Room]
	maxRooms int

	roboScapeEndpoint   string
	netsBloxServicesURL string
	hibernateTimeout    time.Duration
	fullTimeout         time.Duration

	scenarios ScenarioResolver
	announce  func(Info)
}

// NewManager constructs an empty Manager. roboScapeEndpoint and the two
// timeouts are applied to every room it creates; announce, if non-nil, is
// wired as every created room's AnnounceFunc (cmd/roomnode passes nil and
// pushes List() to the cluster directory itself). scenarios may be nil, in which case every
// room's ProjectXML falls back to scenario.DefaultProjectXML.
func NewManager(maxRooms int, roboScapeEndpoint, netsBloxServicesURL string, hibernateTimeout, fullTimeout time.Duration, scenarios ScenarioResolver, announce func(Info)) *Manager {
	return &Manager{
		rooms:               data_structures.NewSafeMap[string, *Room](),
		maxRooms:            maxRooms,
		roboScapeEndpoint:   roboScapeEndpoint,
		netsBloxServicesURL: netsBloxServicesURL,
		hibernateTimeout:    hibernateTimeout,
		fullTimeout:         fullTimeout,
		scenarios:           scenarios,
		announce:            announce,
	}
}

// MaxRooms is this node's configured room capacity (§6 "server/status").
func (m *Manager) MaxRooms() int { return m.maxRooms }

// Counts returns the number of non-hibernating and hibernating rooms
// currently live, for the node's /server/status (§6).
func (m *Manager) Counts() (active, hibernating int) {
	for _, id := range m.rooms.GetKeys() {
		rm, ok := m.rooms.Get(id)
		if !ok {
			continue
		}
		if rm.IsHibernating() {
			hibernating++
		} else {
			active++
		}
	}
	return
}

// Create starts a new room, registers it, and spawns its tick loop under
// ctx. Returns shared.ErrRoomLimit if the node is already at capacity.
func (m *Manager) Create(ctx context.Context, opts Options) (*Room, error) {
	if m.maxRooms > 0 && len(m.rooms.GetKeys()) >= m.maxRooms {
		return nil, shared.ErrRoomLimit
	}
	opts.RoboScapeEndpoint = m.roboScapeEndpoint
	opts.NetsBloxServicesURL = m.netsBloxServicesURL
	if opts.HibernateTimeout == 0 {
		opts.HibernateTimeout = m.hibernateTimeout
	}
	if opts.FullTimeout == 0 {
		opts.FullTimeout = m.fullTimeout
	}

	rm := New(opts)
	rm.AnnounceFunc = m.announce
	rm.ProjectXML = scenario.DefaultProjectXML
	if m.scenarios != nil {
		rm.ProjectXML = m.scenarios.Resolve(ctx, opts.Environment)
	}
	m.rooms.Set(rm.Name, rm)

	go rm.Run(ctx)
	rm.announce()
	return rm, nil
}

// Get looks up a room by id.
func (m *Manager) Get(id string) (*Room, bool) { return m.rooms.Get(id) }

// List returns every room's snapshot Info, for the node's /rooms/list and
// cmd/roomnode's periodic /server/rooms push (§4.6 "Room push").
func (m *Manager) List() []Info {
	var out []Info
	for _, id := range m.rooms.GetKeys() {
		if rm, ok := m.rooms.Get(id); ok {
			out = append(out, rm.snapshotInfo())
		}
	}
	return out
}

// Sweep removes every room that is no longer alive or has timed out
// (§3 "Lifecycle"), returning the count removed.
func (m *Manager) Sweep(now time.Time) int {
	removed := 0
	for _, id := range m.rooms.GetKeys() {
		rm, ok := m.rooms.Get(id)
		if !ok {
			continue
		}
		if !rm.IsAlive() || rm.TimedOut(now) {
			rm.Kill()
			m.rooms.Delete(id)
			removed++
		}
	}
	return removed
}

// RunSweep sweeps every interval until stop is closed.
func (m *Manager) RunSweep(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Resolve implements client.RoomResolver over every room the node hosts.
func (m *Manager) Resolve(roomID string) (client.RoomHandler, bool) {
	rm, ok := m.rooms.Get(roomID)
	if !ok || !rm.IsAlive() {
		return nil, false
	}
	return rm, true
}
