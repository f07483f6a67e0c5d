package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/pulsemon/pulsemon/internal/config"
	"github.com/pulsemon/pulsemon/internal/database"
	"github.com/pulsemon/pulsemon/internal/reporter"
	"github.com/pulsemon/pulsemon/internal/statusd"
)

// Handler serves the status API and a small HTML dashboard
type Handler struct {
	config   *config.Config
	repo     *database.Repository
	service  *statusd.Service
	reporter *reporter.Reporter
}

func NewHandler(cfg *config.Config, repo *database.Repository, service *statusd.Service) *Handler {
	return &Handler{
		config:   cfg,
		repo:     repo,
		service:  service,
		reporter: reporter.New(cfg, repo),
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/active", h.handleActive)
	mux.HandleFunc("/api/sources", h.handleSources)
	mux.HandleFunc("/api/sources/", h.handleSourceToggle)
	mux.HandleFunc("/api/transitions", h.handleTransitions)
	mux.HandleFunc("/api/errors", h.handleProbeErrors)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/health", h.handleHealth)
}

// handleStatus returns the full per-source view
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, map[string]interface{}{
		"running": h.service.IsRunning(),
		"active":  h.service.Active(),
		"sources": h.service.Status(),
	})
}

// handleActive returns just the active source IDs
func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, map[string]interface{}{
		"active": h.service.Active(),
	})
}

// handleSources lists every catalog source with its enablement
func (h *Handler) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, h.service.Status())
}

// handleSourceToggle enables or disables one source:
// POST /api/sources/{id}?enabled=true|false
func (h *Handler) handleSourceToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Path[len("/api/sources/"):]
	if id == "" {
		http.Error(w, "Missing source ID", http.StatusBadRequest)
		return
	}

	var err error
	switch r.URL.Query().Get("enabled") {
	case "true":
		err = h.service.EnableSource(id)
	case "false":
		err = h.service.DisableSource(id)
	default:
		http.Error(w, "Query parameter enabled must be true or false", http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, map[string]string{"status": "ok", "source": id})
}

// handleTransitions returns recent activity transitions
func (h *Handler) handleTransitions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if param := r.URL.Query().Get("since"); param != "" {
		parsed, err := time.Parse(time.RFC3339, param)
		if err != nil {
			http.Error(w, "Invalid since parameter, want RFC3339", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	transitions, err := h.repo.GetTransitionsSince(since)
	if err != nil {
		log.Printf("Failed to query transitions: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, transitions)
}

// handleProbeErrors returns recent probe diagnostics
func (h *Handler) handleProbeErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	errs, err := h.repo.GetProbeErrorsSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		log.Printf("Failed to query probe errors: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	respondJSON(w, errs)
}

// handleReport returns the per-source activity report
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.reporter.GenerateReport(r.URL.Query().Get("period"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, report)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]interface{}{
		"status":  "ok",
		"running": h.service.IsRunning(),
	})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>pulsemon</title>
<meta http-equiv="refresh" content="2">
<style>
body { font-family: sans-serif; margin: 2em; background: #111; color: #ddd; }
h1 { font-size: 1.3em; }
table { border-collapse: collapse; }
td, th { padding: 0.4em 1em; text-align: left; border-bottom: 1px solid #333; }
.active { color: #6c6; font-weight: bold; }
.inactive { color: #666; }
.disabled { color: #444; }
</style>
</head>
<body>
<h1>pulsemon &mdash; {{.ActiveCount}} source(s) active</h1>
<table>
<tr><th>Source</th><th>Description</th><th>State</th><th>Detail</th></tr>
{{range .Sources}}
<tr>
<td>{{.ID}}</td>
<td>{{.Description}}</td>
{{if not .Enabled}}<td class="disabled">disabled</td>
{{else if .Active}}<td class="active">active</td>
{{else}}<td class="inactive">inactive</td>{{end}}
<td>{{.Detail}}</td>
</tr>
{{end}}
</table>
</body>
</html>`))

// handleIndex renders the dashboard
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := struct {
		ActiveCount int
		Sources     []statusd.SourceStatus
	}{
		ActiveCount: len(h.service.Active()),
		Sources:     h.service.Status(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Printf("Failed to render index: %v", err)
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
		fmt.Fprintln(w, `{"error":"encoding failed"}`)
	}
}
