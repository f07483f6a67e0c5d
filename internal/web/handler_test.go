package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulsemon/pulsemon/internal/config"
	"github.com/pulsemon/pulsemon/internal/database"
	"github.com/pulsemon/pulsemon/internal/statusd"
)

func testHandler(t *testing.T) *http.ServeMux {
	t.Helper()
	db, err := database.Connect(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	repo := database.NewRepository(db)

	service, err := statusd.NewService(config.Default(), repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	mux := http.NewServeMux()
	NewHandler(config.Default(), repo, service).SetupRoutes(mux)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, testHandler(t), http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	rec := doRequest(t, testHandler(t), http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Running bool                   `json:"running"`
		Active  []string               `json:"active"`
		Sources []statusd.SourceStatus `json:"sources"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(body.Sources) == 0 {
		t.Error("no sources in status response")
	}
	if body.Running {
		t.Error("running = true without a started service")
	}
}

func TestStatusRejectsPost(t *testing.T) {
	rec := doRequest(t, testHandler(t), http.MethodPost, "/api/status")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestSourceToggle(t *testing.T) {
	mux := testHandler(t)

	rec := doRequest(t, mux, http.MethodPost, "/api/sources/make?enabled=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/sources")
	var statuses []statusd.SourceStatus
	if err := json.NewDecoder(rec.Body).Decode(&statuses); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, st := range statuses {
		if st.ID == "make" && st.Enabled {
			t.Error("make still enabled after toggle")
		}
	}

	rec = doRequest(t, mux, http.MethodPost, "/api/sources/make?enabled=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("enable status = %d", rec.Code)
	}
}

func TestSourceToggleValidation(t *testing.T) {
	mux := testHandler(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/sources/make", http.StatusBadRequest},               // missing enabled
		{"/api/sources/make?enabled=maybe", http.StatusBadRequest}, // bad value
		{"/api/sources/nope?enabled=true", http.StatusBadRequest},  // unknown source
	}
	for _, tt := range tests {
		rec := doRequest(t, mux, http.MethodPost, tt.path)
		if rec.Code != tt.want {
			t.Errorf("POST %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestTransitionsSinceValidation(t *testing.T) {
	mux := testHandler(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/transitions?since=yesterday")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad since", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/transitions?since=2026-08-01T00:00:00Z")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for RFC3339 since", rec.Code)
	}
}

func TestReportEndpoint(t *testing.T) {
	mux := testHandler(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/report?period=week")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/report?period=decade")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid period", rec.Code)
	}
}

func TestIndexRendersDashboard(t *testing.T) {
	rec := doRequest(t, testHandler(t), http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type = %q, want html", ct)
	}
	if !strings.Contains(rec.Body.String(), "pulsemon") {
		t.Error("dashboard missing title")
	}

	rec = doRequest(t, testHandler(t), http.MethodGet, "/no-such-page")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
