package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"roboscapesim/shared"
)

// announcePayload is the body POSTed to a service's IoTScape endpoint.
type announcePayload struct {
	ID      string   `json:"id"`
	Type    Type     `json:"type"`
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

var announceClient = &http.Client{Timeout: 5 * time.Second}

// Announce re-publishes a service's definition to its IoTScape endpoint and
// stamps LastAnnounce. Transient I/O failures here are logged at warn and do
// not cascade (§7 "Transient I/O").
func (s *Service) Announce(ctx context.Context) {
	s.LastAnnounce = time.Now()
	if s.Endpoint == "" {
		return
	}

	body, err := json.Marshal(announcePayload{
		ID:      s.Key.ID,
		Type:    s.Key.Type,
		Methods: s.Def.Methods,
		Events:  s.Def.Events,
	})
	if err != nil {
		shared.DebugError(fmt.Errorf("marshaling announce payload for %s/%s: %w", s.Key.Type, s.Key.ID, err))
		return
	}

	url := fmt.Sprintf("http://%s/services/announce", s.Endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		shared.DebugError(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := announceClient.Do(req)
	if err != nil {
		shared.DebugError(fmt.Errorf("announcing service %s/%s: %w", s.Key.Type, s.Key.ID, err))
		return
	}
	defer resp.Body.Close()
}

// AnnounceDue announces every service in the registry whose ShouldAnnounce
// is true as of now. Nothing in this module calls AnnounceDue or Announce,
// so services are neither announced on creation nor re-announced
// periodically unless a caller invokes one of them.
func (r *Registry) AnnounceDue(ctx context.Context, now time.Time) {
	for _, svc := range r.All() {
		if svc.ShouldAnnounce(now) {
			svc.Announce(ctx)
		}
	}
}
