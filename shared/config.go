// Package shared provides configuration, logging, and messaging primitives
// shared by every package in the simulation node and the cluster directory.
package shared

import (
	"os"
	"strconv"
	"time"
)

// DEBUG_MODE controls debug logging and development features throughout the server.
//
// This variable is set during server initialization based on the DEBUG
// environment variable and should not be modified at runtime.
var DEBUG_MODE = false

const (
	MONGODB_MIN_POOL_SIZE = 2
	MONGODB_MAX_POOL_SIZE = 10

	REGISTERING_WAIT_TIMEOUT = 30 * time.Minute
	EVENT_BUS_BUFFER_SIZE    = 1000

	// TickRate is the nominal tick frequency of a room's simulation loop (§4.4).
	TickRate = 60
	// TickDelta is the fixed dt a room's physics world is stepped by each tick.
	TickDelta = 1.0 / TickRate

	// FullUpdateInterval is the maximum time between full object broadcasts (§4.4 step 7).
	FullUpdateInterval = 60 * time.Second
	// DeltaUpdateInterval is the minimum wall-clock gap between delta broadcasts (§4.4 step 7).
	DeltaUpdateInterval = 100 * time.Millisecond

	// ServiceAnnouncePeriod is how often a Service reannounces itself (§4.3).
	ServiceAnnouncePeriod = 30 * time.Second

	// DynamicEntityLimit, KinematicEntityLimit and RobotLimit bound addBlock/addRobot (§4.3).
	DynamicEntityLimit   = 64
	KinematicEntityLimit = 64
	RobotLimit           = 16

	// MaxCoord clamps addBlock/addRobot/addEntity coordinates (§4.3).
	MaxCoord = 1000.0

	// MinSpeedScale and MaxSpeedScale bound a robot's speedScale (§4.3).
	MinSpeedScale = -10.0
	MaxSpeedScale = 10.0

	// MinEntityScale and MaxEntityScale bound an entity's uniform scale (§4.3).
	MinEntityScale = 1.0
	MaxEntityScale = 5.0

	// DirectoryGCInterval is how often the cluster directory sweeps dead servers (§4.6).
	DirectoryGCInterval = 60 * time.Second
	// DirectoryServerTTL is the staleness threshold for a server row (§4.6, Testable Property 7).
	DirectoryServerTTL = 5 * time.Minute

	// RoomNameSuffixLength is the number of hex characters appended to "Room" (§3).
	RoomNameSuffixLength = 5

	// RoomSweepInterval is how often a node checks its rooms for timeout (§3 "Lifecycle").
	RoomSweepInterval = 60 * time.Second
)

// Config holds environment-derived settings shared by the node and directory binaries.
type Config struct {
	IoTScapeServer string
	IoTScapePort   string

	NodeHTTPAddr      string
	NodeUDPAddr       string
	DirectoryHTTPAddr string
	DirectoryURL      string

	MongoURI      string
	MongoDatabase string

	NetsBloxServicesURL string
	NetsBloxCloudURL    string

	HibernateTimeout time.Duration
	FullTimeout      time.Duration
	MaxRooms         int
}

// LoadConfig populates a Config from the environment, falling back to the
// defaults named in §6 when a variable is unset. Call InitConfig first so
// DEBUG_MODE reflects the same environment snapshot.
func LoadConfig() Config {
	return Config{
		IoTScapeServer:      envOr("IOTSCAPE_SERVER", "52.73.65.98"),
		IoTScapePort:        envOr("IOTSCAPE_PORT", "1975"),
		NodeHTTPAddr:        envOr("NODE_HTTP_ADDR", ":8000"),
		NodeUDPAddr:         envOr("NODE_UDP_ADDR", ":1976"),
		DirectoryHTTPAddr:   envOr("DIRECTORY_HTTP_ADDR", ":8080"),
		DirectoryURL:        envOr("DIRECTORY_URL", "http://localhost:8080"),
		MongoURI:            envOr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:       envOr("MONGODB_DATABASE", "roboscapesim"),
		NetsBloxServicesURL: envOr("NETSBLOX_SERVICES_URL", ""),
		NetsBloxCloudURL:    envOr("NETSBLOX_CLOUD_URL", "https://cloud.netsblox.org/projects"),
		HibernateTimeout:    envDuration("ROOM_HIBERNATE_TIMEOUT", 5*time.Minute),
		FullTimeout:         envDuration("ROOM_FULL_TIMEOUT", 60*time.Minute),
		MaxRooms:            envInt("NODE_MAX_ROOMS", 10),
	}
}

// InitConfig initializes debug mode from the DEBUG environment variable.
func InitConfig() {
	DEBUG_MODE = os.Getenv("DEBUG") == "true"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
