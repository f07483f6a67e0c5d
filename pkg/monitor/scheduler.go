package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Scheduler drives sampling: one fixed-interval ticker invokes Poll on
// every registered runner each tick. Poll never blocks on probe
// completion, so one hung source can never delay another source or the
// tick itself.
//
// A Scheduler is single-use: once stopped it cannot be started again;
// build a new one instead.
type Scheduler struct {
	interval time.Duration
	agg      *Aggregator

	mu      sync.Mutex
	runners map[SourceID]*Runner
	ticks   uint64

	stopChan chan struct{}
	running  bool
}

// NewScheduler creates a scheduler publishing through the given aggregator.
func NewScheduler(interval time.Duration, agg *Aggregator) *Scheduler {
	return &Scheduler{
		interval: interval,
		agg:      agg,
		runners:  make(map[SourceID]*Runner),
		stopChan: make(chan struct{}),
	}
}

// AddSource registers a source and starts sampling it on the next tick.
// Registering an already-registered ID is a wiring bug and fails.
func (s *Scheduler) AddSource(spec SourceSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("source ID cannot be empty")
	}
	if spec.Probe == nil {
		return fmt.Errorf("source %s has no probe", spec.ID)
	}
	if err := spec.Config.Validate(); err != nil {
		return fmt.Errorf("source %s: %w", spec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runners[spec.ID]; exists {
		return fmt.Errorf("source %s is already registered", spec.ID)
	}

	runner := newRunner(spec, s.agg.events)
	s.runners[spec.ID] = runner

	// The register event precedes any sample event from this runner on
	// the same channel, so the publishing loop always knows the source
	// before its first reading arrives.
	select {
	case s.agg.events <- registerEvent{spec: spec, runner: runner, epoch: runner.epoch.Load()}:
	case <-s.agg.done:
	}

	return nil
}

// RemoveSource unregisters a source and resets its debounce state. An
// in-flight sample is allowed to finish; its result is discarded.
func (s *Scheduler) RemoveSource(id SourceID) error {
	s.mu.Lock()
	runner, ok := s.runners[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("source %s is not registered", id)
	}
	delete(s.runners, id)
	s.mu.Unlock()

	runner.stop()

	select {
	case s.agg.events <- unregisterEvent{id: id}:
	case <-s.agg.done:
	}

	return nil
}

// ResetSource zeroes a source's debounce state in place, discarding any
// in-flight sample's eventual result.
func (s *Scheduler) ResetSource(id SourceID) error {
	s.mu.Lock()
	runner, ok := s.runners[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("source %s is not registered", id)
	}
	runner.Reset()
	return nil
}

// Sources returns the IDs of all registered sources.
func (s *Scheduler) Sources() []SourceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]SourceID, 0, len(s.runners))
	for id := range s.runners {
		ids = append(ids, id)
	}
	return ids
}

// Start runs the tick loop until the context is cancelled or Stop is
// called. Blocks, in the style of a service Start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("Starting scheduler with %v tick interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick()

	for {
		select {
		case <-ctx.Done():
			log.Println("Scheduler stopped by context")
			s.setStopped()
			return ctx.Err()

		case <-s.stopChan:
			log.Println("Scheduler stopped")
			s.setStopped()
			return nil

		case <-ticker.C:
			s.tick()
		}
	}
}

// Stop requests the tick loop to exit. A stopped scheduler stays
// stopped: a later Start returns immediately.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopChan)
		s.running = false
	}
}

// IsRunning reports whether the tick loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) setStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// tick dispatches one poll round. Sources with Every > 1 are only polled
// on ticks divisible by their stride.
func (s *Scheduler) tick() {
	s.mu.Lock()
	tick := s.ticks
	s.ticks++
	due := make([]*Runner, 0, len(s.runners))
	for _, r := range s.runners {
		if tick%uint64(r.every) == 0 {
			due = append(due, r)
		}
	}
	s.mu.Unlock()

	for _, r := range due {
		r.Poll()
	}
}
