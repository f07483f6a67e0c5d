package monitor

import (
	"sort"
	"sync"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

// Aggregator owns every source's debounce state and the published
// ActiveSet. All debounce transitions happen on its single publishing
// goroutine: runners marshal normalized readings onto the events channel
// and never touch shared state themselves, which keeps the transition
// logic race-free without per-source locking.
type Aggregator struct {
	tracer Tracer

	events chan event
	done   chan struct{}
	wg     sync.WaitGroup

	// sources is owned exclusively by the publishing goroutine.
	sources map[SourceID]*sourceState

	mu           sync.RWMutex
	published    ActiveSet
	lastReadings map[SourceID]probe.Reading
	observers    []func(ActiveSet)
}

type sourceState struct {
	runner    *Runner
	epoch     uint64
	debouncer *Debouncer
}

// NewAggregator creates an aggregator. A nil tracer disables diagnostics.
func NewAggregator(tracer Tracer) *Aggregator {
	if tracer == nil {
		tracer = nopTracer{}
	}
	return &Aggregator{
		tracer:       tracer,
		events:       make(chan event, 128),
		done:         make(chan struct{}),
		sources:      make(map[SourceID]*sourceState),
		published:    make(ActiveSet),
		lastReadings: make(map[SourceID]probe.Reading),
	}
}

// Start launches the publishing goroutine.
func (a *Aggregator) Start() {
	a.wg.Add(1)
	go a.run()
}

// Stop terminates the publishing goroutine and waits for it to exit.
func (a *Aggregator) Stop() {
	close(a.done)
	a.wg.Wait()
}

// Subscribe registers an observer called with a copy of the ActiveSet
// every time it changes. Observers run on the publishing goroutine and
// must not block.
func (a *Aggregator) Subscribe(fn func(ActiveSet)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Active returns a copy of the currently published ActiveSet.
func (a *Aggregator) Active() ActiveSet {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.published.Clone()
}

// ActiveIDs returns the published active sources as a sorted slice.
func (a *Aggregator) ActiveIDs() []SourceID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]SourceID, 0, len(a.published))
	for id := range a.published {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LastReading returns the most recent normalized reading for a source,
// for consumers that want auxiliary data (e.g. a progress fraction).
func (a *Aggregator) LastReading(id SourceID) (probe.Reading, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.lastReadings[id]
	return r, ok
}

func (a *Aggregator) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case ev := <-a.events:
			a.handle(ev)
		}
	}
}

func (a *Aggregator) handle(ev event) {
	switch e := ev.(type) {
	case registerEvent:
		a.sources[e.spec.ID] = &sourceState{
			runner:    e.runner,
			epoch:     e.epoch,
			debouncer: NewDebouncer(e.spec.Config),
		}

	case unregisterEvent:
		delete(a.sources, e.id)
		a.mu.Lock()
		delete(a.lastReadings, e.id)
		a.mu.Unlock()
		a.recompute()

	case resetEvent:
		st, ok := a.sources[e.id]
		if !ok || st.runner != e.runner {
			return
		}
		st.epoch = e.epoch
		st.debouncer.Reset()
		a.recompute()

	case sampleEvent:
		st, ok := a.sources[e.id]
		if !ok || st.runner != e.runner || st.epoch != e.epoch {
			// Stale result from before a reset or removal; the
			// freshly-reset state wins.
			return
		}

		a.tracer.Reading(e.id, e.reading)
		a.mu.Lock()
		a.lastReadings[e.id] = e.reading
		a.mu.Unlock()

		if st.debouncer.Update(e.reading.State) {
			a.tracer.Transition(e.id, st.debouncer.Active())
			a.recompute()
		}
	}
}

// recompute rebuilds the ActiveSet from current debounce state and
// publishes it when it differs from the last published set.
func (a *Aggregator) recompute() {
	next := make(ActiveSet)
	for id, st := range a.sources {
		if st.debouncer.Active() {
			next[id] = true
		}
	}

	a.mu.Lock()
	if a.published.Equal(next) {
		a.mu.Unlock()
		return
	}
	a.published = next
	observers := a.observers
	a.mu.Unlock()

	for _, fn := range observers {
		fn(next.Clone())
	}
}
