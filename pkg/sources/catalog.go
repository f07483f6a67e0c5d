package sources

import (
	"time"

	"github.com/pulsemon/pulsemon/pkg/integrations/command"
	"github.com/pulsemon/pulsemon/pkg/integrations/process"
	"github.com/pulsemon/pulsemon/pkg/integrations/tmux"
	"github.com/pulsemon/pulsemon/pkg/integrations/x11"
	"github.com/pulsemon/pulsemon/pkg/monitor"
	"github.com/pulsemon/pulsemon/pkg/probe"
)

// Built-in source identities.
const (
	SourceMake      monitor.SourceID = "make"
	SourceCargo     monitor.SourceID = "cargo"
	SourceGoBuild   monitor.SourceID = "gobuild"
	SourceNinja     monitor.SourceID = "ninja"
	SourceDropbox   monitor.SourceID = "dropbox"
	SourceSyncthing monitor.SourceID = "syncthing"
	SourceRclone    monitor.SourceID = "rclone"
	SourceClaude    monitor.SourceID = "claude"
	SourceAider     monitor.SourceID = "aider"
	SourceIndexing  monitor.SourceID = "ide-indexing"
)

// subprocessTimeout bounds probes that shell out or talk to another
// server. Pure /proc scans need no deadline.
const subprocessTimeout = 2 * time.Second

// Definition describes one built-in source: its identity, default
// debounce policy and how to construct its probe.
type Definition struct {
	ID          monitor.SourceID
	Description string
	Config      monitor.DebounceConfig
	Timeout     time.Duration
	Every       int

	newProbe func() probe.Probe
	precheck func() bool
}

// Spec builds the scheduler registration for this definition.
func (d Definition) Spec() monitor.SourceSpec {
	return monitor.SourceSpec{
		ID:       d.ID,
		Probe:    d.newProbe(),
		Config:   d.Config,
		Timeout:  d.Timeout,
		Every:    d.Every,
		Precheck: d.precheck,
	}
}

// Catalog returns every built-in source definition. Thresholds follow
// the usual fast-show/slow-hide policy; all of them are tunables, not
// protocol, and callers may override them before building specs.
func Catalog() []Definition {
	return []Definition{
		{
			ID:          SourceMake,
			Description: "C/C++ build (make, gcc)",
			Config:      monitor.DebounceConfig{ActivateAfter: 1, DeactivateAfter: 3},
			newProbe: func() probe.Probe {
				return process.New("make", "cc1", "cc1plus", "ld")
			},
		},
		{
			ID:          SourceCargo,
			Description: "Rust build (cargo, rustc)",
			Config:      monitor.DebounceConfig{ActivateAfter: 1, DeactivateAfter: 3},
			newProbe: func() probe.Probe {
				return process.New("cargo", "rustc")
			},
		},
		{
			ID:          SourceGoBuild,
			Description: "Go build or test run",
			Config:      monitor.DebounceConfig{ActivateAfter: 1, DeactivateAfter: 3},
			newProbe: func() probe.Probe {
				return process.NewCmdline("go build", "go test", "go install")
			},
		},
		{
			ID:          SourceNinja,
			Description: "Ninja build",
			Config:      monitor.DebounceConfig{ActivateAfter: 1, DeactivateAfter: 3},
			newProbe: func() probe.Probe {
				return process.New("ninja")
			},
		},
		{
			ID:          SourceDropbox,
			Description: "Dropbox sync",
			Config:      monitor.DebounceConfig{ActivateAfter: 2, DeactivateAfter: 3},
			Timeout:     subprocessTimeout,
			Every:       2,
			newProbe: func() probe.Probe {
				return command.New(
					[]string{"dropbox", "status"},
					`(?i)(syncing|indexing|uploading|downloading)`,
					command.WithIdlePattern(`(?i)(up to date|idle)`),
					command.WithProgressPattern(`(\d+)%`),
				)
			},
			precheck: process.Running("dropbox"),
		},
		{
			ID:          SourceSyncthing,
			Description: "Syncthing sync",
			Config:      monitor.DebounceConfig{ActivateAfter: 2, DeactivateAfter: 5},
			newProbe: func() probe.Probe {
				return process.NewBusy(0.10, 0.03, "syncthing")
			},
		},
		{
			ID:          SourceRclone,
			Description: "rclone transfer",
			Config:      monitor.DebounceConfig{ActivateAfter: 1, DeactivateAfter: 3},
			newProbe: func() probe.Probe {
				return process.New("rclone")
			},
		},
		{
			ID:          SourceClaude,
			Description: "Claude Code session working",
			Config:      monitor.DebounceConfig{ActivateAfter: 1, DeactivateAfter: 5},
			Timeout:     subprocessTimeout,
			newProbe: func() probe.Probe {
				return tmux.New("claude", "caffeinate", `(?i)esc to interrupt`)
			},
			precheck: process.Running("claude"),
		},
		{
			ID:          SourceAider,
			Description: "aider session working",
			Config:      monitor.DebounceConfig{ActivateAfter: 2, DeactivateAfter: 5},
			newProbe: func() probe.Probe {
				return process.NewBusy(0.20, 0.05, "aider")
			},
		},
		{
			ID:          SourceIndexing,
			Description: "IDE indexing or building (window title)",
			Config:      monitor.DebounceConfig{ActivateAfter: 2, DeactivateAfter: 3},
			Timeout:     subprocessTimeout,
			Every:       2,
			newProbe: func() probe.Probe {
				return x11.New(`(?i)(indexing|building|updating indexes)`)
			},
			precheck: x11.Available,
		},
	}
}

// Find returns the definition for an identity.
func Find(id monitor.SourceID) (Definition, bool) {
	for _, d := range Catalog() {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// IDs returns every built-in identity in catalog order.
func IDs() []monitor.SourceID {
	catalog := Catalog()
	ids := make([]monitor.SourceID, len(catalog))
	for i, d := range catalog {
		ids[i] = d.ID
	}
	return ids
}
