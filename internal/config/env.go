package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	// Database configuration
	if dbPath := os.Getenv("PULSEMON_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Monitor configuration
	if tickInterval := os.Getenv("PULSEMON_TICK_INTERVAL"); tickInterval != "" {
		if seconds, err := strconv.Atoi(tickInterval); err == nil && seconds > 0 {
			interval := time.Duration(seconds) * time.Second
			if interval >= cfg.Monitor.MinTickInterval && interval <= cfg.Monitor.MaxTickInterval {
				cfg.Monitor.TickInterval = interval
			}
		}
	}

	if probeTimeout := os.Getenv("PULSEMON_PROBE_TIMEOUT"); probeTimeout != "" {
		if seconds, err := strconv.Atoi(probeTimeout); err == nil && seconds > 0 {
			cfg.Monitor.ProbeTimeout = time.Duration(seconds) * time.Second
		}
	}

	if verbose := os.Getenv("PULSEMON_VERBOSE"); verbose != "" {
		if val, err := strconv.ParseBool(verbose); err == nil {
			cfg.Monitor.Verbose = val
		}
	}

	// Daemon configuration
	if pidFile := os.Getenv("PULSEMON_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Source configuration
	if disabled := os.Getenv("PULSEMON_DISABLED_SOURCES"); disabled != "" {
		var ids []string
		for _, id := range strings.Split(disabled, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		cfg.Sources.Disabled = ids
	}

	if activate := os.Getenv("PULSEMON_ACTIVATE_AFTER"); activate != "" {
		if n, err := strconv.Atoi(activate); err == nil && n > 0 {
			cfg.Sources.ActivateAfter = n
		}
	}

	if deactivate := os.Getenv("PULSEMON_DEACTIVATE_AFTER"); deactivate != "" {
		if n, err := strconv.Atoi(deactivate); err == nil && n > 0 {
			cfg.Sources.DeactivateAfter = n
		}
	}

	// Web configuration
	if webHost := os.Getenv("PULSEMON_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("PULSEMON_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}
