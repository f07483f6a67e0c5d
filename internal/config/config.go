package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Monitor configuration
	Monitor MonitorConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Web server configuration
	Web WebConfig

	// Source configuration
	Sources SourcesConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// MonitorConfig holds sampling behavior configuration
type MonitorConfig struct {
	TickInterval    time.Duration // Base scheduler tick
	MinTickInterval time.Duration // Minimum allowed tick interval
	MaxTickInterval time.Duration // Maximum allowed tick interval
	ProbeTimeout    time.Duration // Default deadline for subprocess probes
	Verbose         bool          // Log every raw reading, not just transitions
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to
	Port int    // Port for web server
}

// SourcesConfig holds per-source overrides applied on top of the
// built-in catalog defaults.
type SourcesConfig struct {
	// Disabled lists built-in source IDs that should not be sampled.
	Disabled []string

	// ActivateAfter / DeactivateAfter override every source's debounce
	// thresholds when > 0. The numeric thresholds are tunables, not
	// protocol.
	ActivateAfter   int
	DeactivateAfter int
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/pulsemon/pulsemon.db
		},
		Monitor: MonitorConfig{
			TickInterval:    1 * time.Second, // 1 Hz default
			MinTickInterval: 1 * time.Second,
			MaxTickInterval: 60 * time.Second,
			ProbeTimeout:    2 * time.Second,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/pulsemon-%d.pid", os.Getuid()),
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 7600,
		},
		Sources: SourcesConfig{},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Monitor.TickInterval < c.Monitor.MinTickInterval {
		return fmt.Errorf("tick interval (%v) cannot be less than minimum (%v)",
			c.Monitor.TickInterval, c.Monitor.MinTickInterval)
	}

	if c.Monitor.TickInterval > c.Monitor.MaxTickInterval {
		return fmt.Errorf("tick interval (%v) cannot be greater than maximum (%v)",
			c.Monitor.TickInterval, c.Monitor.MaxTickInterval)
	}

	if c.Monitor.ProbeTimeout < 0 {
		return fmt.Errorf("probe timeout cannot be negative")
	}

	if c.Sources.ActivateAfter < 0 || c.Sources.DeactivateAfter < 0 {
		return fmt.Errorf("debounce threshold overrides cannot be negative")
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetTickInterval sets the scheduler tick interval with validation
func (c *Config) SetTickInterval(interval time.Duration) error {
	if interval < c.Monitor.MinTickInterval {
		return fmt.Errorf("tick interval cannot be less than %v", c.Monitor.MinTickInterval)
	}
	if interval > c.Monitor.MaxTickInterval {
		return fmt.Errorf("tick interval cannot be greater than %v", c.Monitor.MaxTickInterval)
	}
	c.Monitor.TickInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// SourceDisabled reports whether a built-in source is disabled
func (c *Config) SourceDisabled(id string) bool {
	for _, d := range c.Sources.Disabled {
		if d == id {
			return true
		}
	}
	return false
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Monitor:
    Tick Interval: %v
    Min Interval: %v
    Max Interval: %v
    Probe Timeout: %v
    Verbose: %v
  Daemon:
    PID File: %s
  Web:
    Host: %s
    Port: %d
  Sources:
    Disabled: %s`,
		c.Database.Path,
		c.Monitor.TickInterval,
		c.Monitor.MinTickInterval,
		c.Monitor.MaxTickInterval,
		c.Monitor.ProbeTimeout,
		c.Monitor.Verbose,
		c.Daemon.PIDFile,
		c.Web.Host,
		c.Web.Port,
		strings.Join(c.Sources.Disabled, ","),
	)
}
