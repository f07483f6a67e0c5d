package statusd

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/pulsemon/pulsemon/internal/config"
	"github.com/pulsemon/pulsemon/internal/database"
	"github.com/pulsemon/pulsemon/internal/models"
	"github.com/pulsemon/pulsemon/pkg/monitor"
	"github.com/pulsemon/pulsemon/pkg/sources"
)

// Service wires the monitoring core to its collaborators: the built-in
// source catalog, persisted preferences, the transition log and the
// web/report consumers.
type Service struct {
	config *config.Config
	repo   *database.Repository

	agg       *monitor.Aggregator
	scheduler *monitor.Scheduler
	persist   *persister

	mu          sync.Mutex
	enabled     map[monitor.SourceID]bool
	activeSince map[monitor.SourceID]time.Time
	running     bool
}

// SourceStatus is the per-source view served to consumers.
type SourceStatus struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	Active      bool      `json:"active"`
	Progress    float64   `json:"progress,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	TimedOut    bool      `json:"timed_out,omitempty"`
	SampledAt   time.Time `json:"sampled_at,omitempty"`
}

// NewService creates the service and registers every enabled source.
// Stored preferences override catalog defaults; config-level disables
// and threshold overrides are applied on top.
func NewService(cfg *config.Config, repo *database.Repository) (*Service, error) {
	tracer := monitor.MultiTracer{monitor.LogTracer{Verbose: cfg.Monitor.Verbose}}
	persist := newPersister(repo)
	tracer = append(tracer, persist)

	agg := monitor.NewAggregator(tracer)
	s := &Service{
		config:      cfg,
		repo:        repo,
		agg:         agg,
		scheduler:   monitor.NewScheduler(cfg.Monitor.TickInterval, agg),
		persist:     persist,
		enabled:     make(map[monitor.SourceID]bool),
		activeSince: make(map[monitor.SourceID]time.Time),
	}

	agg.Subscribe(s.onActiveSetChange)

	prefs, err := loadPreferences(repo)
	if err != nil {
		return nil, err
	}

	for _, def := range sources.Catalog() {
		if cfg.SourceDisabled(string(def.ID)) {
			continue
		}
		if pref, ok := prefs[string(def.ID)]; ok {
			if !pref.Enabled {
				continue
			}
			def = applyPreference(def, pref)
		}
		if err := s.register(def); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func loadPreferences(repo *database.Repository) (map[string]*models.SourcePreference, error) {
	stored, err := repo.GetPreferences()
	if err != nil {
		return nil, fmt.Errorf("failed to load source preferences: %w", err)
	}
	prefs := make(map[string]*models.SourcePreference, len(stored))
	for _, p := range stored {
		prefs[p.SourceID] = p
	}
	return prefs, nil
}

// applyPreference layers stored per-source threshold overrides onto a
// catalog definition.
func applyPreference(def sources.Definition, pref *models.SourcePreference) sources.Definition {
	if pref.ActivateAfter > 0 {
		def.Config.ActivateAfter = pref.ActivateAfter
	}
	if pref.DeactivateAfter > 0 {
		def.Config.DeactivateAfter = pref.DeactivateAfter
	}
	return def
}

// applyOverrides layers deployment-wide config on top of a definition:
// global thresholds and the probe deadline for sources that have one.
func (s *Service) applyOverrides(def sources.Definition) sources.Definition {
	if s.config.Sources.ActivateAfter > 0 {
		def.Config.ActivateAfter = s.config.Sources.ActivateAfter
	}
	if s.config.Sources.DeactivateAfter > 0 {
		def.Config.DeactivateAfter = s.config.Sources.DeactivateAfter
	}
	if def.Timeout > 0 && s.config.Monitor.ProbeTimeout > 0 {
		def.Timeout = s.config.Monitor.ProbeTimeout
	}
	return def
}

func (s *Service) register(def sources.Definition) error {
	def = s.applyOverrides(def)
	if err := s.scheduler.AddSource(def.Spec()); err != nil {
		return err
	}
	s.mu.Lock()
	s.enabled[def.ID] = true
	s.mu.Unlock()
	return nil
}

// Start runs the monitoring loop until the context is cancelled or Stop
// is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("service is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.agg.Start()
	s.persist.start()
	defer func() {
		s.persist.stop()
		s.agg.Stop()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Printf("Monitoring %d sources", len(s.scheduler.Sources()))
	return s.scheduler.Start(ctx)
}

// Stop requests the monitoring loop to exit.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

// IsRunning reports whether the monitoring loop is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Active returns the currently published active source IDs, sorted.
func (s *Service) Active() []monitor.SourceID {
	return s.agg.ActiveIDs()
}

// EnableSource turns a built-in source on and persists the preference.
func (s *Service) EnableSource(id string) error {
	def, ok := sources.Find(monitor.SourceID(id))
	if !ok {
		return fmt.Errorf("unknown source %q", id)
	}

	s.mu.Lock()
	already := s.enabled[def.ID]
	s.mu.Unlock()
	if !already {
		if pref, err := s.repo.GetPreference(id); err == nil {
			def = applyPreference(def, pref)
		}
		if err := s.register(def); err != nil {
			return err
		}
	}

	return s.repo.SetPreferenceEnabled(id, true)
}

// DisableSource stops sampling a source, resets its debounce state and
// persists the preference. An in-flight sample is discarded.
func (s *Service) DisableSource(id string) error {
	sid := monitor.SourceID(id)
	if _, ok := sources.Find(sid); !ok {
		return fmt.Errorf("unknown source %q", id)
	}

	s.mu.Lock()
	wasEnabled := s.enabled[sid]
	delete(s.enabled, sid)
	delete(s.activeSince, sid)
	s.mu.Unlock()

	if wasEnabled {
		if err := s.scheduler.RemoveSource(sid); err != nil {
			return err
		}
	}

	return s.repo.SetPreferenceEnabled(id, false)
}

// Status reports every catalog source with its enablement, activity and
// last reading.
func (s *Service) Status() []SourceStatus {
	active := s.agg.Active()

	s.mu.Lock()
	enabled := make(map[monitor.SourceID]bool, len(s.enabled))
	for id := range s.enabled {
		enabled[id] = true
	}
	s.mu.Unlock()

	var result []SourceStatus
	for _, def := range sources.Catalog() {
		st := SourceStatus{
			ID:          string(def.ID),
			Description: def.Description,
			Enabled:     enabled[def.ID],
			Active:      active[def.ID],
			Progress:    -1,
		}
		if r, ok := s.agg.LastReading(def.ID); ok {
			st.Progress = r.Progress
			st.Detail = r.Detail
			st.TimedOut = r.TimedOut
			st.SampledAt = r.SampledAt
		}
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// onActiveSetChange persists transitions; it runs on the publishing
// goroutine so DB writes are handed to the persister.
func (s *Service) onActiveSetChange(set monitor.ActiveSet) {
	now := time.Now()

	s.mu.Lock()
	var events []*models.Transition
	for id := range set {
		if _, was := s.activeSince[id]; !was {
			s.activeSince[id] = now
			events = append(events, &models.Transition{
				Timestamp: now,
				SourceID:  string(id),
				Active:    true,
			})
		}
	}
	for id, since := range s.activeSince {
		if !set[id] {
			delete(s.activeSince, id)
			events = append(events, &models.Transition{
				Timestamp: now,
				SourceID:  string(id),
				Active:    false,
				Duration:  int64(now.Sub(since).Seconds()),
			})
		}
	}
	s.mu.Unlock()

	for _, e := range events {
		s.persist.enqueueTransition(e)
	}
	log.Printf("Active sources: %v", setIDs(set))
}

func setIDs(set monitor.ActiveSet) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return ids
}
