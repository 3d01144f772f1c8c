// Package scenario resolves the XML scenario project a room's script host
// loads, and persists the catalog of named local scenarios a room's
// "environment" field may reference. Grounded on
// roboscapesim-server/src/scenarios.rs's three-tier fallback (remote
// project id / catalog entry / embedded default) and on
// database/mongodb.go's mongo-driver connection pattern for the catalog
// store (never live room state — that stays out of scope per §2 Non-goals).
package scenario

// Def is one catalog entry: a named scenario and where its XML source
// lives (§12 "name table mapping scenario id → {path, host, …}").
type Def struct {
	ID          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Path        string `bson:"path" json:"path"`
	Creator     string `bson:"creator,omitempty" json:"creator,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	// Host is "local" (Path is a filesystem path read verbatim) or a
	// NetsBlox cloud host (Path is a remote project id fetched from it).
	Host string `bson:"host" json:"host"`
}
