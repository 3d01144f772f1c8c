// Package service implements the IoTScape service registry: named, typed RPC
// endpoints scoped to a room (World, Entity, PositionSensor, ProximitySensor,
// LIDAR, Trigger, WaypointList), their periodic announce, and the
// single-consumer request queue the room drains once per tick.
//
// Dispatch logic itself lives with the room (it needs the room's object,
// robot and physics tables); this package owns the envelope around it:
// registration, the request queue, and the announce loop. Grounded on
// robot_manager's factory/registry pattern, generalized from a process-global
// robot-type factory to a per-room service table, and on
// original_source services/*.rs for the per-service method contracts named
// in the Def below.
package service

import (
	"time"

	"roboscapesim/shared/data_structures"
)

// Type enumerates the service kinds §3/§4.3 define.
type Type string

const (
	World           Type = "WorldService"
	Entity          Type = "EntityService"
	PositionSensor  Type = "PositionSensor"
	ProximitySensor Type = "ProximitySensor"
	LIDAR           Type = "LIDARSensor"
	Trigger         Type = "TriggerService"
	WaypointList    Type = "WaypointList"
)

// Key identifies one service instance within a room.
type Key struct {
	ID   string
	Type Type
}

// Def is an IoTScape service definition: the method and event names a
// service of this type announces. Param/return shapes aren't modeled in
// fine detail (the external programming environment only needs names to
// build its block palette); CoerceNumber handles the loosely-typed params
// Open Question (c) calls out.
type Def struct {
	Methods []string
	Events  []string
}

// Request is one inbound RPC call, queued by whatever accepted it (HTTP,
// script host) and drained by the room on its next tick (§4.4 step 3). The
// service registry's inbound queues are multi-producer single-consumer
// (§5).
type Request struct {
	Method   string
	Params   []interface{}
	Response chan Response
}

// Response is a dispatch result: a value for the caller plus an optional
// event tuple to re-emit to subscribers (§4.3 "All dispatch returns...").
type Response struct {
	Value interface{}
	Err   error
	Event *Event
}

// Event is the ((serviceId,type), eventName, params) tuple a dispatch may
// emit (userJoined, reset, triggerEnter/triggerExit, ...).
type Event struct {
	Service Key
	Name    string
	Params  map[string]interface{}
}

// Handler resolves one Request against the room and returns its Response.
// Registered per service instance by the room, since only the room has the
// physics/object/robot state a handler needs.
type Handler func(req Request) Response

// Service is one registered instance: its definition, endpoint, announce
// cadence, inbound queue, and dispatch handler.
type Service struct {
	Key  Key
	Def  Def

	Handler Handler
	Queue   *data_structures.SafeQueue[Request]

	Endpoint       string // host:port of the IoTScape server this service announces to
	AnnouncePeriod time.Duration
	LastAnnounce   time.Time

	// Attached names the object-table entries (bodies/robots) this service
	// instance is bound to, for the room's own bookkeeping (e.g. an Entity
	// service's target, a Trigger's sensor collider owner).
	Attached []string
}

func NewService(key Key, def Def, endpoint string, handler Handler) *Service {
	return &Service{
		Key:            key,
		Def:            def,
		Handler:        handler,
		Queue:          data_structures.NewSafeQueue[Request](false),
		Endpoint:       endpoint,
		AnnouncePeriod: 30 * time.Second,
	}
}

// Enqueue adds an inbound request to this service's queue. Safe for
// concurrent multi-producer use.
func (s *Service) Enqueue(req Request) {
	s.Queue.Enqueue(req)
}

// Drain dequeues and dispatches every currently-queued request, returning
// any events the handlers emitted. Called once per tick by the room (§4.4
// step 3); not safe to call concurrently with itself.
func (s *Service) Drain() []Event {
	var events []Event
	for {
		req, ok := s.Queue.Dequeue()
		if !ok {
			break
		}
		resp := s.Handler(req)
		if req.Response != nil {
			req.Response <- resp
		}
		if resp.Event != nil {
			events = append(events, *resp.Event)
		}
	}
	return events
}

// ShouldAnnounce reports whether this service is due for its periodic
// re-announce (§4.3: every 30s, and immediately on creation).
func (s *Service) ShouldAnnounce(now time.Time) bool {
	return s.LastAnnounce.IsZero() || now.Sub(s.LastAnnounce) >= s.AnnouncePeriod
}
