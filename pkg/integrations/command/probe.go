package command

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

// Probe shells out to a status command and regex-matches its output to
// decide activity. The subprocess inherits the sample context, so the
// runner's watchdog kills it at the deadline.
//
// A command that is not installed, or that exits non-zero, is a normal
// inactive reading: the monitored tool simply is not there.
type Probe struct {
	argv     []string
	busy     *regexp.Regexp
	idle     *regexp.Regexp
	progress *regexp.Regexp
}

// Option configures a Probe.
type Option func(*Probe)

// WithIdlePattern makes output matching the pattern read Inactive even
// when neither pattern would otherwise match. Output matching neither
// busy nor idle reads Neutral, forming a hysteresis band.
func WithIdlePattern(pattern string) Option {
	re := regexp.MustCompile(pattern)
	return func(p *Probe) { p.idle = re }
}

// WithProgressPattern extracts a completion percentage from the first
// capture group of the pattern (e.g. `(\d+)%`).
func WithProgressPattern(pattern string) Option {
	re := regexp.MustCompile(pattern)
	return func(p *Probe) { p.progress = re }
}

// New creates a command probe. Output matching busyPattern reads Active.
// Without an idle pattern, non-matching output reads Inactive.
func New(argv []string, busyPattern string, opts ...Option) *Probe {
	p := &Probe{
		argv: argv,
		busy: regexp.MustCompile(busyPattern),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sample implements probe.Probe.
func (p *Probe) Sample(ctx context.Context) (probe.Reading, error) {
	if len(p.argv) == 0 {
		return probe.Reading{}, fmt.Errorf("command probe has no argv")
	}

	cmd := exec.CommandContext(ctx, p.argv[0], p.argv[1:]...)
	output, err := cmd.Output()
	if ctx.Err() != nil {
		// Killed by the watchdog; the runner synthesizes the reading.
		return probe.Reading{}, ctx.Err()
	}
	if err != nil {
		// Launch failure or non-zero exit: the tool is not there or
		// refuses to report. Fail closed.
		return probe.BoolReading(false), nil
	}

	text := strings.TrimSpace(string(output))
	r := probe.Reading{Progress: -1}

	switch {
	case p.busy.MatchString(text):
		r.State = probe.Active
		r.Detail = firstLine(text)
		if p.progress != nil {
			if m := p.progress.FindStringSubmatch(text); len(m) > 1 {
				if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
					r.Progress = pct / 100
				}
			}
		}
	case p.idle == nil || p.idle.MatchString(text):
		r.State = probe.Inactive
	default:
		r.State = probe.Neutral
		r.Detail = firstLine(text)
	}

	return r, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return s[:i]
	}
	return s
}
