// Package httpapi implements the two chi-routed HTTP surfaces §6 names: the
// cluster directory's (/server/status, /rooms/*, /server/announce,
// /server/rooms, /environments/list) and a simulation node's (/server/status,
// /rooms/list, /rooms/create). Grounded on http_server/http_server.go's
// chi.Mux-per-server shape and http_server/util.go's JSON response helpers.
package httpapi

import (
	"encoding/json"
	"net/http"

	"roboscapesim/shared"
)

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		shared.DebugErrorf("encoding JSON response: %v", err)
	}
}

func parseJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
