package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

// event is the union of messages delivered to the aggregator's publishing
// loop. Register/unregister/reset are control events; samples carry one
// normalized reading.
type event interface{}

type sampleEvent struct {
	id      SourceID
	runner  *Runner
	epoch   uint64
	reading probe.Reading
}

type resetEvent struct {
	id     SourceID
	runner *Runner
	epoch  uint64
}

type registerEvent struct {
	spec   SourceSpec
	runner *Runner
	epoch  uint64
}

type unregisterEvent struct {
	id SourceID
}

// Runner wraps one probe with a dedicated single-worker execution lane.
// The lane guarantees samples for a source are strictly sequential; the
// in-flight guard drops (never queues) ticks that arrive while a sample is
// outstanding, so a slow probe can only ever lose ticks, not accumulate
// stale work.
type Runner struct {
	id       SourceID
	probe    probe.Probe
	timeout  time.Duration
	every    int
	precheck func() bool

	events chan<- event

	jobs     chan uint64
	done     chan struct{}
	stopOnce sync.Once

	inFlight atomic.Bool
	epoch    atomic.Uint64
}

func newRunner(spec SourceSpec, events chan<- event) *Runner {
	every := spec.Every
	if every < 1 {
		every = 1
	}
	r := &Runner{
		id:       spec.ID,
		probe:    spec.Probe,
		timeout:  spec.Timeout,
		every:    every,
		precheck: spec.Precheck,
		events:   events,
		jobs:     make(chan uint64, 1),
		done:     make(chan struct{}),
	}
	go r.lane()
	return r
}

// Poll dispatches one sample to the runner's lane and returns immediately.
// The tick is dropped when a sample is already in flight.
func (r *Runner) Poll() {
	if !r.inFlight.CompareAndSwap(false, true) {
		return
	}
	select {
	case r.jobs <- r.epoch.Load():
	case <-r.done:
		r.inFlight.Store(false)
	}
}

// Reset invalidates any in-flight sample and asks the publishing loop to
// zero the source's debounce state. A stale result that resolves after
// Reset carries the old epoch and is discarded on delivery.
func (r *Runner) Reset() {
	epoch := r.epoch.Add(1)
	select {
	case r.events <- resetEvent{id: r.id, runner: r, epoch: epoch}:
	case <-r.done:
	}
}

func (r *Runner) stop() {
	r.stopOnce.Do(func() {
		r.epoch.Add(1)
		close(r.done)
	})
}

// lane is the source's single worker goroutine.
func (r *Runner) lane() {
	for {
		select {
		case <-r.done:
			return
		case epoch := <-r.jobs:
			r.runSample(epoch)
		}
	}
}

func (r *Runner) runSample(epoch uint64) {
	defer r.inFlight.Store(false)

	reading := r.sample()

	select {
	case r.events <- sampleEvent{id: r.id, runner: r, epoch: epoch, reading: reading}:
	case <-r.done:
	}
}

// sample executes one probe invocation under the runner's deadline and
// normalizes the outcome to a Reading. Errors never escape: execution
// failure and timeout both become inactive readings (fail-closed, so the
// display can never show a false "active").
func (r *Runner) sample() probe.Reading {
	if r.precheck != nil && !r.precheck() {
		return probe.Reading{State: probe.Inactive, Progress: -1, SampledAt: time.Now()}
	}

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type result struct {
		reading probe.Reading
		err     error
	}
	resCh := make(chan result, 1)

	go func() {
		reading, err := r.probe.Sample(ctx)
		resCh <- result{reading: reading, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			return probe.Reading{
				State:     probe.Inactive,
				Progress:  -1,
				Detail:    res.err.Error(),
				SampledAt: time.Now(),
			}
		}
		reading := res.reading
		if reading.SampledAt.IsZero() {
			reading.SampledAt = time.Now()
		}
		reading.TimedOut = false
		return reading

	case <-ctx.Done():
		// Watchdog fired. The context cancellation kills any spawned
		// subprocess; the synthetic reading is delivered now so the
		// next tick is not blocked beyond the deadline.
		return probe.Reading{
			State:     probe.Inactive,
			Progress:  -1,
			TimedOut:  true,
			SampledAt: time.Now(),
		}
	}
}
