package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"roboscapesim/cluster"
	"roboscapesim/shared"
)

// DirectoryServer wires the cluster directory's chi routes (§4.6, §6).
type DirectoryServer struct {
	dir     *cluster.Directory
	address string
	router  *chi.Mux
}

// NewDirectoryServer builds the router; address is this directory's own
// externally-reachable host:port, returned by GET /server/status.
func NewDirectoryServer(dir *cluster.Directory, address string) *DirectoryServer {
	s := &DirectoryServer{dir: dir, address: address, router: chi.NewRouter()}
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	s.router.Get("/server/status", s.getStatus)
	s.router.Get("/rooms/list", s.getRoomsList)
	s.router.Post("/rooms/create", s.postCreateRoom)
	s.router.Get("/rooms/info", s.getRoomInfo)
	s.router.Post("/server/announce", s.postServerAnnounce)
	s.router.Put("/server/rooms", s.putServerRooms)
	s.router.Get("/environments/list", s.getEnvironmentsList)

	return s
}

func (s *DirectoryServer) Handler() http.Handler { return s.router }

type directoryStatus struct {
	Address  string `json:"address"`
	MaxRooms int    `json:"maxRooms"`
}

func (s *DirectoryServer) getStatus(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, directoryStatus{Address: s.address, MaxRooms: s.dir.TotalMaxRooms()})
}

func (s *DirectoryServer) getRoomsList(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.dir.ListRooms(r.URL.Query().Get("user")))
}

func (s *DirectoryServer) getRoomInfo(w http.ResponseWriter, r *http.Request) {
	room, ok := s.dir.RoomInfoByID(r.URL.Query().Get("id"))
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, room)
}

func (s *DirectoryServer) postCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req cluster.CreateRoomRequest
	if err := parseJSON(r, &req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp, err := s.dir.ForwardCreateRoom(ctx, req)
	switch {
	case errors.Is(err, shared.ErrNoServersLive):
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	case err != nil:
		shared.DebugError(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

type announceBody struct {
	IP     string              `json:"ip"`
	Status announceServerStatus `json:"status"`
}

// announceServerStatus is the ServerStatus half of the (ip, ServerStatus)
// tuple a node's /server/announce POSTs (§6).
type announceServerStatus struct {
	MaxRooms int `json:"maxRooms"`
}

func (s *DirectoryServer) postServerAnnounce(w http.ResponseWriter, r *http.Request) {
	// The wire shape is a 2-tuple [ip, ServerStatus] (§6); decode it
	// positionally rather than as an object.
	var tuple [2]json.RawMessage
	if err := parseJSON(r, &tuple); err != nil {
		http.Error(w, "malformed announce body", http.StatusBadRequest)
		return
	}
	var ip string
	var status announceServerStatus
	if err := json.Unmarshal(tuple[0], &ip); err != nil {
		http.Error(w, "malformed announce ip", http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(tuple[1], &status); err != nil {
		http.Error(w, "malformed announce status", http.StatusBadRequest)
		return
	}
	s.dir.AnnounceServer(ip, status.MaxRooms, time.Now())
	w.WriteHeader(http.StatusOK)
}

func (s *DirectoryServer) putServerRooms(w http.ResponseWriter, r *http.Request) {
	var rooms []cluster.RoomInfo
	if err := parseJSON(r, &rooms); err != nil {
		http.Error(w, "malformed rooms body", http.StatusBadRequest)
		return
	}
	s.dir.PutRooms(rooms)
	w.WriteHeader(http.StatusOK)
}

func (s *DirectoryServer) getEnvironmentsList(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.dir.Environments())
}
