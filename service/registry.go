package service

import (
	"roboscapesim/shared/data_structures"
)

// Registry holds every service instance for one room, keyed by (id, type).
type Registry struct {
	services *data_structures.SafeMap[Key, *Service]
}

func NewRegistry() *Registry {
	return &Registry{services: data_structures.NewSafeMap[Key, *Service]()}
}

func (r *Registry) Register(svc *Service) {
	r.services.Set(svc.Key, svc)
}

func (r *Registry) Get(key Key) (*Service, bool) {
	return r.services.Get(key)
}

func (r *Registry) Remove(key Key) {
	r.services.Delete(key)
}

// ByType returns every registered service of a given type, for handlers that
// need to look up "the Entity service attached to X".
func (r *Registry) ByType(t Type) []*Service {
	var out []*Service
	for _, key := range r.services.GetKeys() {
		if key.Type != t {
			continue
		}
		if svc, ok := r.services.Get(key); ok {
			out = append(out, svc)
		}
	}
	return out
}

func (r *Registry) All() []*Service {
	var out []*Service
	for _, key := range r.services.GetKeys() {
		if svc, ok := r.services.Get(key); ok {
			out = append(out, svc)
		}
	}
	return out
}

// DrainAll dispatches every service's queued requests and returns the
// union of events emitted, in registration-table iteration order. Called
// once per tick by the room.
func (r *Registry) DrainAll() []Event {
	var events []Event
	for _, svc := range r.All() {
		events = append(events, svc.Drain()...)
	}
	return events
}
