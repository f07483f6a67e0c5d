package monitor

import "github.com/pulsemon/pulsemon/pkg/probe"

// Debouncer converts a stream of raw readings into stable activity
// transitions. A source becomes active only after ActivateAfter consecutive
// active readings and inactive only after DeactivateAfter consecutive
// inactive readings; neutral readings advance neither counter, so isolated
// ambiguous samples cannot flip state.
//
// All methods must be called from a single goroutine (the aggregator's
// publishing loop owns every Debouncer).
type Debouncer struct {
	config DebounceConfig

	consecutiveActive   int
	consecutiveInactive int
	active              bool
}

// NewDebouncer creates a debouncer with the given thresholds. The config
// must already be validated.
func NewDebouncer(config DebounceConfig) *Debouncer {
	return &Debouncer{config: config}
}

// Update feeds one raw reading and reports whether the visible activity
// state flipped.
func (d *Debouncer) Update(state probe.State) bool {
	switch state {
	case probe.Active:
		d.consecutiveActive++
		d.consecutiveInactive = 0
		if d.consecutiveActive >= d.config.ActivateAfter && !d.active {
			d.active = true
			return true
		}

	case probe.Inactive:
		d.consecutiveInactive++
		d.consecutiveActive = 0
		if d.consecutiveInactive >= d.config.DeactivateAfter && d.active {
			d.active = false
			return true
		}

	case probe.Neutral:
		// Hysteresis band: leave both counters untouched.
	}

	return false
}

// Active returns the current committed activity state.
func (d *Debouncer) Active() bool {
	return d.active
}

// Reset forces the debouncer back to its initial state: both counters
// zero, inactive.
func (d *Debouncer) Reset() {
	d.consecutiveActive = 0
	d.consecutiveInactive = 0
	d.active = false
}
