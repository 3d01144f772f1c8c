// Package cluster implements the cluster directory: the process-global
// tables of live simulation nodes, rooms, and environments that the node
// HTTP surface announces into and that route new-room requests to the
// least-loaded node (§4.6). Grounded on roboscapesim-api/src/main.rs's
// DashMap-backed singleton tables, generalized from process-global statics
// to an explicit Directory value per the spec's §9 "treat as a singleton
// context... with explicit handles passed to handlers in testing".
package cluster

import (
	"sync"
	"time"

	"roboscapesim/shared/data_structures"
)

// ServerInfo is one row of the servers table (§4.6).
type ServerInfo struct {
	Address    string    `json:"address"`
	MaxRooms   int       `json:"maxRooms"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// RoomInfo mirrors room.Info for the directory's rooms table; duplicated
// here rather than imported to keep cluster free of a dependency on room
// (the directory binary never links the simulation node's tick loop).
type RoomInfo struct {
	ID            string   `json:"id"`
	Environment   string   `json:"environment"`
	Server        string   `json:"server"`
	Creator       string   `json:"creator"`
	HasPassword   bool     `json:"hasPassword"`
	IsHibernating bool     `json:"isHibernating"`
	Visitors      []string `json:"visitors"`
}

// EnvironmentInfo is one row of the environments table (§4.6).
type EnvironmentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Directory holds the three §4.6 tables. serverOrder preserves insertion
// order so route selection can break load ties deterministically (Testable
// Property 6 "ties broken by insertion order"), since Go map iteration order
// is randomized.
type Directory struct {
	servers     *data_structures.SafeMap[string, ServerInfo]
	rooms       *data_structures.SafeMap[string, RoomInfo]
	environments *data_structures.SafeMap[string, EnvironmentInfo]

	orderMu     sync.Mutex
	serverOrder []string
}

func NewDirectory() *Directory {
	return &Directory{
		servers:      data_structures.NewSafeMap[string, ServerInfo](),
		rooms:        data_structures.NewSafeMap[string, RoomInfo](),
		environments: data_structures.NewSafeMap[string, EnvironmentInfo](),
	}
}

// AnnounceServer upserts a server row with LastUpdate = now (§4.6 "Announce
// ingress").
func (d *Directory) AnnounceServer(address string, maxRooms int, now time.Time) {
	if _, existed := d.servers.Get(address); !existed {
		d.orderMu.Lock()
		d.serverOrder = append(d.serverOrder, address)
		d.orderMu.Unlock()
	}
	d.servers.Set(address, ServerInfo{Address: address, MaxRooms: maxRooms, LastUpdate: now})
}

// PutRooms bulk-upserts RoomInfo keyed by id (§4.6 "Room push").
func (d *Directory) PutRooms(rooms []RoomInfo) {
	for _, r := range rooms {
		d.rooms.Set(r.ID, r)
	}
}

// TotalMaxRooms sums MaxRooms across every live server (§4.6 "Status").
func (d *Directory) TotalMaxRooms() int {
	total := 0
	for _, addr := range d.servers.GetKeys() {
		if s, ok := d.servers.Get(addr); ok {
			total += s.MaxRooms
		}
	}
	return total
}

// ListRooms returns every room, optionally filtered to those whose Visitors
// contains user (§4.6 "List rooms").
func (d *Directory) ListRooms(user string) []RoomInfo {
	var out []RoomInfo
	for _, id := range d.rooms.GetKeys() {
		room, ok := d.rooms.Get(id)
		if !ok {
			continue
		}
		if user != "" && !containsVisitor(room.Visitors, user) {
			continue
		}
		out = append(out, room)
	}
	return out
}

func containsVisitor(visitors []string, user string) bool {
	for _, v := range visitors {
		if v == user {
			return true
		}
	}
	return false
}

// RoomInfoByID returns one room, or false if unknown (§4.6 "Info").
func (d *Directory) RoomInfoByID(id string) (RoomInfo, bool) {
	return d.rooms.Get(id)
}

// Environments returns every registered environment (§4.6 "Environments list").
func (d *Directory) Environments() []EnvironmentInfo {
	var out []EnvironmentInfo
	for _, id := range d.environments.GetKeys() {
		if e, ok := d.environments.Get(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// RegisterEnvironment adds or replaces an environment row.
func (d *Directory) RegisterEnvironment(e EnvironmentInfo) {
	d.environments.Set(e.ID, e)
}

// activeRoomCounts returns, for every live server in insertion order, its
// count of non-hibernating rooms (defaulting to 0 for a server with none),
// grounded on get_active_rooms_per_server but extended to include servers
// with zero active rooms so a freshly announced, empty node can still win
// the route (§4.6 "Create room").
func (d *Directory) activeRoomCounts() ([]string, map[string]int) {
	d.orderMu.Lock()
	order := append([]string(nil), d.serverOrder...)
	d.orderMu.Unlock()

	live := make(map[string]bool, len(order))
	var liveOrder []string
	for _, addr := range order {
		if _, ok := d.servers.Get(addr); ok {
			live[addr] = true
			liveOrder = append(liveOrder, addr)
		}
	}

	counts := make(map[string]int, len(liveOrder))
	for _, addr := range liveOrder {
		counts[addr] = 0
	}
	for _, id := range d.rooms.GetKeys() {
		room, ok := d.rooms.Get(id)
		if !ok || room.IsHibernating || !live[room.Server] {
			continue
		}
		counts[room.Server]++
	}
	return liveOrder, counts
}

// LeastLoadedServer picks the server with the fewest non-hibernating rooms,
// ties broken by insertion order (Testable Property 6). Returns false if no
// server is currently live.
func (d *Directory) LeastLoadedServer() (string, bool) {
	order, counts := d.activeRoomCounts()
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, addr := range order[1:] {
		if counts[addr] < counts[best] {
			best = addr
		}
	}
	return best, true
}

// GC removes every server whose LastUpdate is older than ttl as of now, and
// every room whose Server field matches one of the removed servers
// (Testable Property 7).
func (d *Directory) GC(now time.Time, ttl time.Duration) {
	var dead []string
	for _, addr := range d.servers.GetKeys() {
		s, ok := d.servers.Get(addr)
		if !ok {
			continue
		}
		if now.Sub(s.LastUpdate) > ttl {
			dead = append(dead, addr)
		}
	}
	if len(dead) == 0 {
		return
	}

	deadSet := make(map[string]bool, len(dead))
	for _, addr := range dead {
		deadSet[addr] = true
		d.servers.Delete(addr)
	}

	d.orderMu.Lock()
	filtered := d.serverOrder[:0:0]
	for _, addr := range d.serverOrder {
		if !deadSet[addr] {
			filtered = append(filtered, addr)
		}
	}
	d.serverOrder = filtered
	d.orderMu.Unlock()

	for _, id := range d.rooms.GetKeys() {
		room, ok := d.rooms.Get(id)
		if ok && deadSet[room.Server] {
			d.rooms.Delete(id)
		}
	}
}

// RunGC runs GC every interval until stop is closed (§4.6 "GC").
func (d *Directory) RunGC(interval, ttl time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			d.GC(now, ttl)
		}
	}
}
