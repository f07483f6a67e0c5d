package tmux

import (
	"bufio"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/pulsemon/pulsemon/pkg/integrations/process"
	"github.com/pulsemon/pulsemon/pkg/probe"
)

// Probe detects a busy terminal tool (typically an AI-assistant CLI)
// running inside tmux. A pane counts as busy when its current command
// matches the target and either a known helper child is present in its
// process tree, or the pane content matches a busy pattern.
type Probe struct {
	command   string
	busyChild string
	busyText  *regexp.Regexp
}

// New creates a tmux probe for panes running command. busyChild names a
// process the tool spawns only while working (empty to skip the tree
// check); busyPattern matches pane text (empty to skip the capture).
// At least one of the two checks must be configured.
func New(command, busyChild, busyPattern string) *Probe {
	p := &Probe{command: command, busyChild: busyChild}
	if busyPattern != "" {
		p.busyText = regexp.MustCompile(busyPattern)
	}
	return p
}

// Available reports whether a tmux server is reachable, for use as a
// source precheck.
func Available() bool {
	return exec.Command("tmux", "has-session").Run() == nil
}

type pane struct {
	id      string
	pid     int
	command string
}

// Sample implements probe.Probe. No tmux server and no matching pane
// are both normal inactive readings.
func (p *Probe) Sample(ctx context.Context) (probe.Reading, error) {
	panes, err := listPanes(ctx)
	if err != nil {
		// tmux not installed or no server running.
		return probe.BoolReading(false), nil
	}

	for _, pn := range panes {
		if pn.command != p.command {
			continue
		}
		if p.busyChild != "" && process.HasDescendant(pn.pid, p.busyChild) {
			r := probe.BoolReading(true)
			r.Detail = "pane " + pn.id
			return r, nil
		}
		if p.busyText != nil {
			text, err := capturePane(ctx, pn.id)
			if err == nil && p.busyText.MatchString(text) {
				r := probe.BoolReading(true)
				r.Detail = "pane " + pn.id
				return r, nil
			}
		}
	}

	return probe.BoolReading(false), nil
}

func listPanes(ctx context.Context) ([]pane, error) {
	cmd := exec.CommandContext(ctx, "tmux", "list-panes", "-a",
		"-F", "#{pane_id} #{pane_pid} #{pane_current_command}")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var panes []pane
	sc := bufio.NewScanner(strings.NewReader(string(output)))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		panes = append(panes, pane{id: fields[0], pid: pid, command: fields[2]})
	}
	return panes, nil
}

func capturePane(ctx context.Context, id string) (string, error) {
	output, err := exec.CommandContext(ctx, "tmux", "capture-pane", "-p", "-t", id).Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}
