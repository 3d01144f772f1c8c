package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"roboscapesim/client"
	"roboscapesim/cluster"
	"roboscapesim/room"
	"roboscapesim/shared"
)

// NodeServer wires a simulation node's chi routes (§6 "HTTP — simulation
// node"). Grounded on http_server/http_server.go's chi.Mux-per-server shape.
type NodeServer struct {
	rooms   *room.Manager
	address string
	router  *chi.Mux
}

func NewNodeServer(rooms *room.Manager, address string) *NodeServer {
	s := &NodeServer{rooms: rooms, address: address, router: chi.NewRouter()}
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	s.router.Get("/server/status", s.getStatus)
	s.router.Get("/rooms/list", s.getRoomsList)
	s.router.Post("/rooms/create", s.postCreateRoom)
	s.router.Get("/ws", s.serveWS)

	return s
}

// serveWS upgrades to a client session; the room travels in the first
// JoinRoom message rather than the URL, so one endpoint serves every room
// the node hosts (§4.5).
func (s *NodeServer) serveWS(w http.ResponseWriter, r *http.Request) {
	if _, err := client.Upgrade(w, r, s.rooms); err != nil {
		shared.DebugError(err)
	}
}

func (s *NodeServer) Handler() http.Handler { return s.router }

type nodeStatus struct {
	ActiveRooms      int `json:"activeRooms"`
	HibernatingRooms int `json:"hibernatingRooms"`
	MaxRooms         int `json:"maxRooms"`
}

func (s *NodeServer) getStatus(w http.ResponseWriter, r *http.Request) {
	active, hibernating := s.rooms.Counts()
	sendJSON(w, http.StatusOK, nodeStatus{
		ActiveRooms:      active,
		HibernatingRooms: hibernating,
		MaxRooms:         s.rooms.MaxRooms(),
	})
}

func (s *NodeServer) getRoomsList(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, s.rooms.List())
}

func (s *NodeServer) postCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req cluster.CreateRoomRequest
	if err := parseJSON(r, &req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	rm, err := s.rooms.Create(r.Context(), room.Options{
		Password:    req.Password,
		Environment: req.Environment,
		Creator:     req.Username,
	})
	if err != nil {
		if errors.Is(err, shared.ErrRoomLimit) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		shared.DebugError(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, cluster.CreateRoomResponse{Server: s.address, RoomID: rm.Name})
}
