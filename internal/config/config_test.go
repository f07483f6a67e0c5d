package config

import (
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"tick below minimum", func(c *Config) { c.Monitor.TickInterval = 100 * time.Millisecond }, true},
		{"tick above maximum", func(c *Config) { c.Monitor.TickInterval = time.Hour }, true},
		{"negative probe timeout", func(c *Config) { c.Monitor.ProbeTimeout = -time.Second }, true},
		{"zero probe timeout ok", func(c *Config) { c.Monitor.ProbeTimeout = 0 }, false},
		{"port zero", func(c *Config) { c.Web.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Web.Port = 70000 }, true},
		{"empty host", func(c *Config) { c.Web.Host = "" }, true},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }, true},
		{"negative threshold override", func(c *Config) { c.Sources.ActivateAfter = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSourceDisabled(t *testing.T) {
	cfg := Default()
	cfg.Sources.Disabled = []string{"dropbox", "claude"}

	if !cfg.SourceDisabled("dropbox") {
		t.Error("dropbox should be disabled")
	}
	if cfg.SourceDisabled("make") {
		t.Error("make should not be disabled")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PULSEMON_TICK_INTERVAL", "5")
	t.Setenv("PULSEMON_DISABLED_SOURCES", "dropbox, rclone")
	t.Setenv("PULSEMON_WEB_PORT", "9000")
	t.Setenv("PULSEMON_VERBOSE", "true")

	cfg := New()

	if cfg.Monitor.TickInterval != 5*time.Second {
		t.Errorf("TickInterval = %v, want 5s", cfg.Monitor.TickInterval)
	}
	if len(cfg.Sources.Disabled) != 2 || cfg.Sources.Disabled[1] != "rclone" {
		t.Errorf("Disabled = %v, want [dropbox rclone]", cfg.Sources.Disabled)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Web.Port)
	}
	if !cfg.Monitor.Verbose {
		t.Error("Verbose should be true")
	}
}
