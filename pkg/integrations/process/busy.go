package process

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

// userHz is the kernel clock tick rate used for /proc stat times.
// Linux has reported 100 through this interface for decades regardless
// of the actual kernel HZ.
const userHz = 100

// BusyProbe reports a long-running process (sync client, language server)
// as active only while it is actually doing work, measured as CPU
// utilization since the previous sample. Utilization between the two
// thresholds is reported Neutral so a single ambiguous sample can never
// flip the debounced state in either direction.
type BusyProbe struct {
	names     []string
	busyAbove float64 // utilization at or above this reads Active
	idleBelow float64 // utilization at or below this reads Inactive

	mu       sync.Mutex
	lastSeen map[int]cpuSample
}

type cpuSample struct {
	jiffies uint64
	at      time.Time
}

// NewBusy creates a CPU-utilization probe for the named processes.
// busyAbove and idleBelow are utilization fractions of one core;
// busyAbove must be greater than idleBelow.
func NewBusy(busyAbove, idleBelow float64, names ...string) *BusyProbe {
	return &BusyProbe{
		names:     names,
		busyAbove: busyAbove,
		idleBelow: idleBelow,
		lastSeen:  make(map[int]cpuSample),
	}
}

// Sample implements probe.Probe. The first observation of a process has
// no baseline and reads Neutral.
func (p *BusyProbe) Sample(ctx context.Context) (probe.Reading, error) {
	pids, detail, err := findProcesses(p.names, false)
	if err != nil {
		return probe.Reading{}, err
	}
	if len(pids) == 0 {
		p.forget(nil)
		return probe.BoolReading(false), nil
	}

	now := time.Now()
	utilization := -1.0
	baseline := false

	p.mu.Lock()
	for _, pid := range pids {
		jiffies, err := cpuTime(pid)
		if err != nil {
			continue
		}
		prev, ok := p.lastSeen[pid]
		p.lastSeen[pid] = cpuSample{jiffies: jiffies, at: now}
		if !ok || !now.After(prev.at) {
			baseline = true
			continue
		}
		if jiffies < prev.jiffies {
			// PID reused by a same-named process between scans; the
			// unsigned delta would be garbage. Treat as a fresh baseline.
			baseline = true
			continue
		}
		elapsed := now.Sub(prev.at).Seconds()
		used := float64(jiffies-prev.jiffies) / userHz
		if u := used / elapsed; u > utilization {
			utilization = u
		}
	}
	p.mu.Unlock()
	p.forget(pids)

	r := probe.Reading{Progress: -1, SampledAt: now, Detail: detail}
	switch {
	case utilization < 0:
		// Only fresh baselines this round: not enough data to say.
		if baseline {
			r.State = probe.Neutral
		} else {
			r.State = probe.Inactive
		}
	case utilization >= p.busyAbove:
		r.State = probe.Active
		r.Detail = fmt.Sprintf("%s, cpu %.0f%%", detail, utilization*100)
	case utilization <= p.idleBelow:
		r.State = probe.Inactive
	default:
		// Hysteresis band between the thresholds.
		r.State = probe.Neutral
	}
	return r, nil
}

// forget drops baselines for processes that have exited so PID reuse
// cannot produce a bogus utilization delta.
func (p *BusyProbe) forget(alive []int) {
	keep := make(map[int]bool, len(alive))
	for _, pid := range alive {
		keep[pid] = true
	}
	p.mu.Lock()
	for pid := range p.lastSeen {
		if !keep[pid] {
			delete(p.lastSeen, pid)
		}
	}
	p.mu.Unlock()
}
