package x11

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/pulsemon/pulsemon/pkg/probe"
)

// Probe inspects X11 window titles over the X protocol and reports a
// source active while any title matches the busy pattern. This is the
// cheap stand-in for UI-tree introspection: tools that surface progress
// in their title bar ("Building...", "Syncing 3 files") are detected
// without shelling out.
type Probe struct {
	pattern *regexp.Regexp

	// activeOnly restricts matching to the focused window instead of
	// every mapped client.
	activeOnly bool

	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// New creates a window-title probe matching titlePattern across all
// client windows.
func New(titlePattern string) *Probe {
	return &Probe{
		pattern: regexp.MustCompile(titlePattern),
		atoms:   make(map[string]xproto.Atom),
	}
}

// NewActiveWindow creates a probe that only inspects the currently
// focused window's title.
func NewActiveWindow(titlePattern string) *Probe {
	p := New(titlePattern)
	p.activeOnly = true
	return p
}

// Available reports whether an X display is reachable, for use as a
// source precheck.
func Available() bool {
	return os.Getenv("DISPLAY") != ""
}

// Sample implements probe.Probe. Connection errors (no display, server
// gone) surface as errors and are normalized to inactive by the runner.
func (p *Probe) Sample(ctx context.Context) (probe.Reading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConn(); err != nil {
		return probe.Reading{}, err
	}

	var windows []xproto.Window
	var err error
	if p.activeOnly {
		windows, err = p.activeWindow()
	} else {
		windows, err = p.clientList()
	}
	if err != nil {
		p.dropConn()
		return probe.Reading{}, err
	}

	for _, w := range windows {
		title, err := p.windowTitle(w)
		if err != nil || title == "" {
			continue
		}
		if p.pattern.MatchString(title) {
			r := probe.BoolReading(true)
			r.Detail = title
			return r, nil
		}
	}

	return probe.BoolReading(false), nil
}

// Close releases the X connection.
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropConn()
	return nil
}

func (p *Probe) ensureConn() error {
	if p.conn != nil {
		return nil
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X display: %w", err)
	}
	p.conn = conn
	p.root = xproto.Setup(conn).DefaultScreen(conn).Root
	p.atoms = make(map[string]xproto.Atom)
	return nil
}

func (p *Probe) dropConn() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func (p *Probe) atom(name string) (xproto.Atom, error) {
	if a, ok := p.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(p.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern atom %s: %w", name, err)
	}
	p.atoms[name] = reply.Atom
	return reply.Atom, nil
}

func (p *Probe) property(window xproto.Window, name string) ([]byte, error) {
	atom, err := p.atom(name)
	if err != nil {
		return nil, err
	}
	reply, err := xproto.GetProperty(p.conn, false, window, atom,
		xproto.GetPropertyTypeAny, 0, 1024).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (p *Probe) activeWindow() ([]xproto.Window, error) {
	value, err := p.property(p.root, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return nil, err
	}
	if len(value) < 4 {
		return nil, nil
	}
	w := xproto.Window(uint32(value[0]) | uint32(value[1])<<8 |
		uint32(value[2])<<16 | uint32(value[3])<<24)
	if w == 0 {
		return nil, nil
	}
	return []xproto.Window{w}, nil
}

func (p *Probe) clientList() ([]xproto.Window, error) {
	value, err := p.property(p.root, "_NET_CLIENT_LIST")
	if err != nil {
		return nil, err
	}
	windows := make([]xproto.Window, 0, len(value)/4)
	for i := 0; i+3 < len(value); i += 4 {
		w := xproto.Window(uint32(value[i]) | uint32(value[i+1])<<8 |
			uint32(value[i+2])<<16 | uint32(value[i+3])<<24)
		if w != 0 {
			windows = append(windows, w)
		}
	}
	return windows, nil
}

// windowTitle prefers the UTF-8 _NET_WM_NAME and falls back to the
// legacy WM_NAME.
func (p *Probe) windowTitle(w xproto.Window) (string, error) {
	if value, err := p.property(w, "_NET_WM_NAME"); err == nil && len(value) > 0 {
		return string(value), nil
	}
	value, err := p.property(w, "WM_NAME")
	if err != nil {
		return "", err
	}
	return string(value), nil
}
