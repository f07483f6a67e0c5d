package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func testDaemon(t *testing.T) *Daemon {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "test.pid"))
}

func TestWriteAndReadPID(t *testing.T) {
	d := testDaemon(t)

	if err := d.WritePID(); err != nil {
		t.Fatalf("WritePID: %v", err)
	}

	pid, err := d.ReadPID()
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}
}

func TestReadPIDMissingFile(t *testing.T) {
	d := testDaemon(t)
	if _, err := d.ReadPID(); err == nil {
		t.Error("expected error for missing PID file")
	}
}

func TestReadPIDGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")
	if err := os.WriteFile(path, []byte("not-a-pid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).ReadPID(); err == nil {
		t.Error("expected error for garbage PID file")
	}
}

func TestIsRunning(t *testing.T) {
	d := testDaemon(t)

	if d.IsRunning() {
		t.Error("IsRunning = true without a PID file")
	}

	// Our own PID is certainly alive.
	if err := d.WritePID(); err != nil {
		t.Fatal(err)
	}
	if !d.IsRunning() {
		t.Error("IsRunning = false for our own process")
	}
}

func TestCleanup(t *testing.T) {
	d := testDaemon(t)

	if err := d.WritePID(); err != nil {
		t.Fatal(err)
	}
	if err := d.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	// Idempotent.
	if err := d.Cleanup(); err != nil {
		t.Errorf("second Cleanup: %v", err)
	}
}
