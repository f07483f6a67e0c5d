package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulsemon/pulsemon/internal/config"
	"github.com/pulsemon/pulsemon/internal/daemon"
	"github.com/pulsemon/pulsemon/internal/database"
	"github.com/pulsemon/pulsemon/internal/reporter"
	"github.com/pulsemon/pulsemon/internal/statusd"
	"github.com/pulsemon/pulsemon/internal/web"
	"github.com/pulsemon/pulsemon/pkg/sources"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const appName = "pulsemon"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "start":
		startDaemon()
	case "serve":
		serveDaemon()
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "report":
		generateReport()
	case "sources":
		listSources()
	case "clear":
		clearDatabase()
	case "version":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - debounced activity monitor for external tools

Usage:
  %s <command> [options]

Commands:
  start      Start the monitor daemon in the background
  serve      Run the monitor in the foreground
  stop       Stop the running daemon
  status     Show daemon state and currently active sources
  report     Print an activity report (day, week, month)
  sources    List built-in sources and their enablement
  clear      Delete all stored transitions, preferences and diagnostics
  version    Print version information
  help       Show this help

Environment:
  PULSEMON_TICK_INTERVAL     Scheduler tick in seconds (default 1)
  PULSEMON_PROBE_TIMEOUT     Subprocess probe deadline in seconds (default 2)
  PULSEMON_DISABLED_SOURCES  Comma-separated source IDs to skip
  PULSEMON_DB_PATH           SQLite database path
  PULSEMON_WEB_PORT          Status API port (default 7600)
`, appName, appName)
}

func loadConfig() *config.Config {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func startDaemon() {
	cfg := loadConfig()
	d := daemon.New(cfg.Daemon.PIDFile)

	if d.IsRunning() {
		fmt.Println("Daemon is already running")
		os.Exit(1)
	}

	executable, err := os.Executable()
	if err != nil {
		log.Fatalf("Failed to resolve executable: %v", err)
	}

	cmd := exec.Command(executable, "serve")
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start daemon: %v", err)
	}

	fmt.Printf("Daemon started (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("Status page: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
}

func serveDaemon() {
	cfg := loadConfig()
	log.Printf("Starting %s\n%s", appName, cfg)

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	repo := database.NewRepository(db)

	service, err := statusd.NewService(cfg, repo)
	if err != nil {
		log.Fatalf("Failed to initialize monitor: %v", err)
	}

	d := daemon.New(cfg.Daemon.PIDFile)
	if err := d.WritePID(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer d.Cleanup()

	server := web.NewServer(cfg, repo, service, 0)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Web server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down", sig)
		cancel()
	}()

	if err := service.Start(ctx); err != nil && err != context.Canceled {
		log.Printf("Monitor stopped: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Web server shutdown error: %v", err)
	}
}

func stopDaemon() {
	cfg := loadConfig()
	d := daemon.New(cfg.Daemon.PIDFile)

	if !d.IsRunning() {
		fmt.Println("Daemon is not running")
		os.Exit(1)
	}

	if err := d.Stop(); err != nil {
		log.Fatalf("Failed to stop daemon: %v", err)
	}
	fmt.Println("Daemon stopped")
}

func showStatus() {
	cfg := loadConfig()
	d := daemon.New(cfg.Daemon.PIDFile)

	if !d.IsRunning() {
		fmt.Println("Daemon: not running")
		return
	}
	pid, _ := d.ReadPID()
	fmt.Printf("Daemon: running (pid %d)\n", pid)

	url := fmt.Sprintf("http://%s:%d/api/status", cfg.Web.Host, cfg.Web.Port)
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Status API unreachable: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Failed to read status: %v\n", err)
		return
	}

	var status struct {
		Active  []string               `json:"active"`
		Sources []statusd.SourceStatus `json:"sources"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		fmt.Printf("Failed to parse status: %v\n", err)
		return
	}

	if len(status.Active) == 0 {
		fmt.Println("Active sources: none")
	} else {
		fmt.Printf("Active sources: %v\n", status.Active)
	}
	for _, s := range status.Sources {
		state := "inactive"
		if !s.Enabled {
			state = "disabled"
		} else if s.Active {
			state = "ACTIVE"
		}
		fmt.Printf("  %-14s %-9s %s\n", s.ID, state, s.Detail)
	}
}

func generateReport() {
	cfg := loadConfig()

	period := "day"
	asJSON := false
	for _, arg := range os.Args[2:] {
		switch arg {
		case "--json":
			asJSON = true
		default:
			period = arg
		}
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	repo := database.NewRepository(db)

	rep := reporter.New(cfg, repo)
	report, err := rep.GenerateReport(period)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	if asJSON {
		out, err := rep.FormatJSON(report)
		if err != nil {
			log.Fatalf("Failed to format report: %v", err)
		}
		fmt.Println(out)
		return
	}
	fmt.Print(rep.FormatText(report))
}

func listSources() {
	cfg := loadConfig()

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	repo := database.NewRepository(db)

	prefs, err := repo.GetPreferences()
	if err != nil {
		log.Fatalf("Failed to load preferences: %v", err)
	}
	disabled := make(map[string]bool)
	for _, p := range prefs {
		if !p.Enabled {
			disabled[p.SourceID] = true
		}
	}

	fmt.Println("Built-in sources:")
	for _, def := range sources.Catalog() {
		state := "enabled"
		if disabled[string(def.ID)] || cfg.SourceDisabled(string(def.ID)) {
			state = "disabled"
		}
		fmt.Printf("  %-14s %-9s %s (show %d / hide %d)\n",
			def.ID, state, def.Description,
			def.Config.ActivateAfter, def.Config.DeactivateAfter)
	}
}

func clearDatabase() {
	cfg := loadConfig()

	fmt.Print("Delete all stored data? [y/N] ")
	var answer string
	fmt.Scanln(&answer)
	if answer != "y" && answer != "Y" {
		fmt.Println("Aborted")
		return
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	repo := database.NewRepository(db)

	if err := repo.ClearAll(); err != nil {
		log.Fatalf("Failed to clear database: %v", err)
	}
	fmt.Println("Database cleared")
}
