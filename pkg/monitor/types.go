package monitor

import (
	"fmt"
	"time"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

// SourceID names one monitored source. IDs are unique within a Scheduler
// and never reassigned while registered.
type SourceID string

// DebounceConfig holds the consecutive-reading thresholds for one source.
// Asymmetry (activate fast, deactivate slow) is the usual anti-flicker
// policy; symmetric thresholds are equally valid.
type DebounceConfig struct {
	// ActivateAfter is how many consecutive active readings are required
	// before the source is shown as active. Minimum 1.
	ActivateAfter int

	// DeactivateAfter is how many consecutive inactive readings are
	// required before an active source is shown as inactive. Minimum 1.
	DeactivateAfter int
}

// Validate checks the threshold values
func (c DebounceConfig) Validate() error {
	if c.ActivateAfter < 1 {
		return fmt.Errorf("activate threshold must be at least 1, got %d", c.ActivateAfter)
	}
	if c.DeactivateAfter < 1 {
		return fmt.Errorf("deactivate threshold must be at least 1, got %d", c.DeactivateAfter)
	}
	return nil
}

// SourceSpec describes one source to register with the Scheduler.
type SourceSpec struct {
	ID     SourceID
	Probe  probe.Probe
	Config DebounceConfig

	// Timeout is the sample deadline. Zero means no deadline; cheap
	// in-process probes don't need one but still run through the lane.
	Timeout time.Duration

	// Every makes the source sample only every Nth scheduler tick.
	// Values below 1 are treated as 1 (every tick).
	Every int

	// Precheck, when non-nil, is an inexpensive condition evaluated on
	// the source's lane before the probe. When it returns false the
	// probe is skipped and an inactive reading is fed to the debouncer,
	// so deactivate thresholds still apply when the precondition flips.
	Precheck func() bool
}

// ActiveSet is the set of sources currently shown as active.
type ActiveSet map[SourceID]bool

// Equal reports whether two sets contain the same sources.
func (s ActiveSet) Equal(other ActiveSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other[id] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s ActiveSet) Clone() ActiveSet {
	out := make(ActiveSet, len(s))
	for id := range s {
		out[id] = true
	}
	return out
}

// Tracer observes raw readings and state transitions for diagnostics.
// Implementations must not block; they run on the publishing goroutine.
type Tracer interface {
	// Reading is called for every raw reading after normalization.
	Reading(id SourceID, r probe.Reading)

	// Transition is called for every committed activity flip.
	Transition(id SourceID, active bool)
}

type nopTracer struct{}

func (nopTracer) Reading(SourceID, probe.Reading) {}
func (nopTracer) Transition(SourceID, bool)       {}
