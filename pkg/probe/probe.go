package probe

import (
	"context"
	"time"
)

// State classifies one raw sample of a source.
type State int

const (
	// Inactive means the sample found no sign of activity.
	Inactive State = iota

	// Active means the sample found the source working.
	Active

	// Neutral means the sample was ambiguous and should advance neither
	// debounce counter. Probes with a richer signal (e.g. a CPU fraction
	// between two thresholds) report Neutral inside their hysteresis band.
	Neutral
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case Neutral:
		return "neutral"
	}
	return "unknown"
}

// Reading is the normalized result of one probe invocation.
type Reading struct {
	State State

	// Progress is an optional completion fraction (0.0-1.0) for sources
	// that expose one. Negative means unknown.
	Progress float64

	// Detail is an optional human-readable note (e.g. the matched window
	// title or process name).
	Detail string

	// TimedOut is set by the runner when the sample was cut off at its
	// deadline. Probes never set it themselves.
	TimedOut bool

	// SampledAt is when the sample resolved.
	SampledAt time.Time
}

// Probe samples the raw state of one monitored source.
//
// Sample must honor ctx cancellation: the caller sets a deadline and kills
// any spawned subprocess when it expires. Sample is never called
// concurrently with itself for the same source. Absence of the underlying
// process/window/session is a normal inactive reading, not an error; an
// error return is normalized to inactive by the caller, so probes that
// cannot determine state should just return the error.
type Probe interface {
	Sample(ctx context.Context) (Reading, error)
}

// Func adapts a plain function to the Probe interface.
type Func func(ctx context.Context) (Reading, error)

func (f Func) Sample(ctx context.Context) (Reading, error) {
	return f(ctx)
}

// BoolReading builds a Reading from a plain yes/no check.
func BoolReading(active bool) Reading {
	state := Inactive
	if active {
		state = Active
	}
	return Reading{State: state, Progress: -1, SampledAt: time.Now()}
}
