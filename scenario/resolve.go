package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"roboscapesim/shared"
)

// DefaultProjectXML is the embedded fallback loaded when no environment is
// requested or every other resolution tier fails, mirroring
// scenarios.rs's include_str!-embedded DEFAULT_PROJECT.
const DefaultProjectXML = `<room name="Default" app="NetsBlox"><role name="myRole"></role></room>`

// Resolver implements scenarios.rs's three-tier project lookup: a remote
// NetsBlox cloud project id, a catalog entry (itself local-file or
// remote), or the embedded default (§12).
type Resolver struct {
	catalog      *Catalog
	cloudBaseURL string // e.g. https://cloud.netsblox.org/projects/user/
	httpClient   *http.Client
}

func NewResolver(catalog *Catalog, cloudBaseURL string) *Resolver {
	return &Resolver{
		catalog:      catalog,
		cloudBaseURL: strings.TrimRight(cloudBaseURL, "/"),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Resolve returns the XML project source for a room's environment field.
// It never errors to the caller: any failure at any tier is logged and
// resolution falls through to the embedded default, exactly as
// scenarios.rs::load_environment does.
func (r *Resolver) Resolve(ctx context.Context, environment string) string {
	environment = strings.TrimSpace(environment)
	if environment == "" {
		return DefaultProjectXML
	}

	if strings.Contains(environment, "/") {
		if xml, err := r.fetchRemote(ctx, environment); err == nil {
			return xml
		} else {
			shared.DebugError(fmt.Errorf("loading remote project %q: %w", environment, err))
		}
		return DefaultProjectXML
	}

	def, ok, err := r.catalog.Get(ctx, environment)
	if err != nil {
		shared.DebugError(fmt.Errorf("looking up scenario %q: %w", environment, err))
		return DefaultProjectXML
	}
	if !ok {
		return DefaultProjectXML
	}

	if def.Host == "local" {
		data, err := os.ReadFile(def.Path)
		if err != nil {
			shared.DebugError(fmt.Errorf("reading local scenario %q: %w", def.Path, err))
			return DefaultProjectXML
		}
		return string(data)
	}

	if xml, err := r.fetchRemote(ctx, def.Path); err == nil {
		return xml
	} else {
		shared.DebugError(fmt.Errorf("loading remote scenario %q: %w", def.Path, err))
	}
	return DefaultProjectXML
}

func (r *Resolver) fetchRemote(ctx context.Context, projectID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cloudBaseURL+"/"+projectID, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloud server returned %s", resp.Status)
	}

	var p project
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", err
	}
	return p.toXML(), nil
}
