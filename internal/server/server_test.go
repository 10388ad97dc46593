package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beetlebugorg/atlas/internal/edit"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/scene"
	"github.com/beetlebugorg/atlas/pkg/atlas"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

const lotJSON = `{"id":"lot","type":"polygon","coordinates":[[0,0],[1,0],[1,1],[0,1]],"show":true}`

func newServer(t *testing.T, repo *scene.Repository) (*Server, *atlas.Atlas) {
	t.Helper()
	a, err := atlas.New(atlas.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return New(a, Options{Repository: repo}), a
}

func do(t *testing.T, s *Server, method, path, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestHealth(t *testing.T) {
	s, _ := newServer(t, nil)
	for _, path := range []string{"/health/live", "/health/ready"} {
		if code, _ := do(t, s, http.MethodGet, path, ""); code != http.StatusOK {
			t.Errorf("Expected 200 from %s, got %d", path, code)
		}
	}
}

func TestPublishAndRead(t *testing.T) {
	s, a := newServer(t, nil)

	if code, body := do(t, s, http.MethodPost, "/api/events/entity/create", lotJSON); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", code, body)
	}
	if !a.Entities().Has("lot") {
		t.Fatal("Expected lot created")
	}

	code, body := do(t, s, http.MethodGet, "/api/entities/lot", "")
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	var d c3ml.Descriptor
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		t.Fatal(err)
	}
	if d.ID != "lot" || d.Polygon == nil || len(d.Polygon.Coordinates) != 4 {
		t.Errorf("Expected the lot described as a feature with a polygon, got %s", body)
	}

	code, body = do(t, s, http.MethodGet, "/api/entities", "")
	var ds []c3ml.Descriptor
	if err := json.Unmarshal([]byte(body), &ds); err != nil || code != http.StatusOK || len(ds) != 1 {
		t.Errorf("Expected one entity listed, got %d: %s", code, body)
	}

	if code, _ := do(t, s, http.MethodPost, "/api/events/entity/hide", `{"id":"lot"}`); code != http.StatusOK {
		t.Errorf("Expected hide to succeed, got %d", code)
	}
	if e, _ := a.Entities().GetByID("lot"); e.IsVisible() {
		t.Error("Expected lot hidden")
	}
}

func TestPublishErrors(t *testing.T) {
	s, _ := newServer(t, nil)
	do(t, s, http.MethodPost, "/api/events/entity/create", lotJSON)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"duplicate", "/api/events/entity/create", lotJSON, http.StatusConflict},
		{"unknown entity", "/api/events/entity/show", `{"id":"ghost"}`, http.StatusNotFound},
		{"bad display mode", "/api/events/entity/display-mode", `{"ids":["lot"],"displayMode":"mesh"}`, http.StatusBadRequest},
		{"invalid json", "/api/events/entity/show", `{"id":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := do(t, s, http.MethodPost, tt.path, tt.body); code != tt.code {
				t.Errorf("Expected %d, got %d: %s", tt.code, code, body)
			}
		})
	}

	if code, _ := do(t, s, http.MethodGet, "/api/entities/ghost", ""); code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown entity, got %d", code)
	}
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	repo, err := scene.Open(ctx, filepath.Join(t.TempDir(), "scene.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	s, a := newServer(t, repo)
	do(t, s, http.MethodPost, "/api/events/entity/create", lotJSON)
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("Expected 1 stored entity, got %d", n)
	}

	// A translation outside the API is persisted when it completes.
	e, _ := a.Entities().GetByID("lot")
	if err := e.Translate(geo.V(1, 0)); err != nil {
		t.Fatal(err)
	}
	if err := a.Bus().HandleInternalEvent(edit.EventTranslateComplete, edit.TranslateArgs{ID: "lot", Delta: geo.V(1, 0)}); err != nil {
		t.Fatal(err)
	}
	d, err := repo.Get(ctx, "lot")
	if err != nil {
		t.Fatal(err)
	}
	if d.Polygon == nil || d.Polygon.Coordinates[0][0] != 1 {
		t.Errorf("Expected the moved lot stored, got %+v", d.Polygon)
	}

	restored, b := newServer(t, repo)
	n, err := restored.Restore(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Expected 1 restored entity, got %d, %v", n, err)
	}
	got, err := b.Entities().GetByID("lot")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Centroid().Equals(e.Centroid()) {
		t.Errorf("Expected centroid %v, got %v", e.Centroid(), got.Centroid())
	}

	do(t, restored, http.MethodPost, "/api/events/entity/remove", `{"id":"lot"}`)
	if n, _ := repo.Count(ctx); n != 0 {
		t.Errorf("Expected removal persisted, got %d stored", n)
	}
}
