package scenario

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveEmptyEnvironmentReturnsDefault(t *testing.T) {
	r := NewResolver(nil, "")
	if got := r.Resolve(context.Background(), ""); got != DefaultProjectXML {
		t.Fatalf("expected the default project for an empty environment, got %q", got)
	}
}

func TestResolveRemoteProjectID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"Arena","roles":{"main":{"name":"main","code":"<blocks></blocks>","media":""}}}`))
	}))
	defer srv.Close()

	r := NewResolver(nil, srv.URL)
	got := r.Resolve(context.Background(), "alice/Arena")
	if !strings.Contains(got, `name="Arena"`) || !strings.Contains(got, "<blocks></blocks>") {
		t.Fatalf("expected the remote project's XML, got %q", got)
	}
}

func TestResolveRemoteFailureFallsBackToDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResolver(nil, srv.URL)
	if got := r.Resolve(context.Background(), "alice/Broken"); got != DefaultProjectXML {
		t.Fatalf("expected a failed remote fetch to fall back to the default project, got %q", got)
	}
}
