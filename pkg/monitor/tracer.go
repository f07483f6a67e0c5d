package monitor

import (
	"log"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

// LogTracer writes transitions, timeouts and (optionally) every raw
// reading to the standard logger, keyed by source ID.
type LogTracer struct {
	// Verbose also logs every raw reading, not just transitions.
	Verbose bool
}

func (t LogTracer) Reading(id SourceID, r probe.Reading) {
	if r.TimedOut {
		// Logged distinctly: a stuck probe is not the same as a
		// legitimately idle source.
		log.Printf("Probe timeout: source=%s", id)
		return
	}
	if t.Verbose {
		log.Printf("Reading: source=%s state=%s detail=%q", id, r.State, r.Detail)
	}
}

func (t LogTracer) Transition(id SourceID, active bool) {
	log.Printf("Transition: source=%s active=%v", id, active)
}

// MultiTracer fans one event stream out to several tracers.
type MultiTracer []Tracer

func (m MultiTracer) Reading(id SourceID, r probe.Reading) {
	for _, t := range m {
		t.Reading(id, r)
	}
}

func (m MultiTracer) Transition(id SourceID, active bool) {
	for _, t := range m {
		t.Transition(id, active)
	}
}
