package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

var errMalformedStat = errors.New("malformed /proc stat entry")

// Probe reports a source active while any process matching one of the
// configured names is running. Transient tools (compilers, packagers)
// only exist while working, so presence alone is the activity signal.
type Probe struct {
	names        []string
	matchCmdline bool
}

// New creates a presence probe for the given process names. Names are
// compared against the command name from /proc/<pid>/stat.
func New(names ...string) *Probe {
	return &Probe{names: names}
}

// NewCmdline creates a presence probe that also substring-matches the
// full command line, for tools invoked through interpreters or wrappers.
func NewCmdline(names ...string) *Probe {
	return &Probe{names: names, matchCmdline: true}
}

// Sample implements probe.Probe by scanning /proc once.
func (p *Probe) Sample(ctx context.Context) (probe.Reading, error) {
	pids, detail, err := findProcesses(p.names, p.matchCmdline)
	if err != nil {
		return probe.Reading{}, err
	}
	if len(pids) == 0 {
		return probe.BoolReading(false), nil
	}
	r := probe.BoolReading(true)
	r.Detail = detail
	return r, nil
}

// Running returns an inexpensive precondition suitable for
// monitor.SourceSpec.Precheck: true while any named process exists.
func Running(names ...string) func() bool {
	return func() bool {
		pids, _, err := findProcesses(names, false)
		return err == nil && len(pids) > 0
	}
}

// findProcesses scans /proc for processes whose name (or command line,
// when matchCmdline is set) matches one of names. Returns matched PIDs
// and a short description of the first match.
func findProcesses(names []string, matchCmdline bool) ([]int, string, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, "", fmt.Errorf("failed to read /proc: %w", err)
	}

	var pids []int
	var detail string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		name, err := processName(pid)
		if err != nil {
			// Process exited mid-scan.
			continue
		}

		matched := ""
		for _, want := range names {
			if name == want {
				matched = want
				break
			}
		}
		if matched == "" && matchCmdline {
			cmdline := processCmdline(pid)
			for _, want := range names {
				if strings.Contains(cmdline, want) {
					matched = want
					break
				}
			}
		}

		if matched != "" {
			pids = append(pids, pid)
			if detail == "" {
				detail = fmt.Sprintf("%s (pid %d)", name, pid)
			}
		}
	}

	return pids, detail, nil
}

// processName extracts the command name from /proc/<pid>/stat, which is
// wrapped in parentheses and may itself contain spaces.
func processName(pid int) (string, error) {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return "", err
	}
	stat := string(data)
	start := strings.Index(stat, "(")
	end := strings.LastIndex(stat, ")")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("malformed stat for pid %d", pid)
	}
	return stat[start+1 : end], nil
}

func processCmdline(pid int) string {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(string(data), "\x00", " ")
}

// cpuTime returns the cumulative user+system jiffies for a process.
func cpuTime(pid int) (uint64, error) {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return 0, err
	}
	stat := string(data)
	// Skip past the parenthesized command name; fields after it are
	// space-separated with utime/stime at positions 13/14 (0-based,
	// counting from the field after the name).
	end := strings.LastIndex(stat, ")")
	if end == -1 {
		return 0, fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(stat[end+1:])
	if len(fields) < 13 {
		return 0, fmt.Errorf("short stat for pid %d", pid)
	}
	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return 0, err
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return 0, err
	}
	return utime + stime, nil
}
