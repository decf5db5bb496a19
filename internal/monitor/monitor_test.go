package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"triage/internal/config"
	"triage/internal/engine"
	"triage/internal/errors"
	"triage/internal/logging"
)

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Monitor.DebounceMs = 50

	logger := logging.NewDiscardLogger()
	eng := engine.New(cfg.Scan, logger)
	m := New(eng, cfg, logger)
	t.Cleanup(m.Shutdown)
	return m
}

func waitEvent(t *testing.T, m *Monitor, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-m.Events():
		return ev
	case <-time.After(timeout):
		t.Fatal("timed out waiting for rescan event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, m *Monitor, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-m.Events():
		t.Fatalf("unexpected event with trigger %v", ev.Trigger)
	case <-time.After(wait):
	}
}

func TestStartIsIdempotentPerPath(t *testing.T) {
	m := newTestMonitor(t)
	dir := t.TempDir()

	first, existing, err := m.Start(context.Background(), dir)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if existing {
		t.Error("first Start reported an existing session")
	}
	if first.State() != StateWatching {
		t.Errorf("state = %s, want watching", first.State())
	}

	second, existing, err := m.Start(context.Background(), dir)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !existing {
		t.Error("second Start did not report the existing session")
	}
	if second.Handle() != first.Handle() {
		t.Errorf("handles differ: %s vs %s", second.Handle(), first.Handle())
	}

	// Stop then start creates a fresh session with a new handle.
	if err := m.Stop(first.Handle()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if first.State() != StateStopped {
		t.Errorf("state after stop = %s, want stopped", first.State())
	}

	third, existing, err := m.Start(context.Background(), dir)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if existing {
		t.Error("restart reported an existing session")
	}
	if third.Handle() == first.Handle() {
		t.Error("restart reused the old handle")
	}
}

func TestStartPathNotFound(t *testing.T) {
	m := newTestMonitor(t)

	_, _, err := m.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if !errors.IsPathNotFound(err) {
		t.Errorf("error = %v, want path not found", err)
	}
}

func TestStopUnknownHandle(t *testing.T) {
	m := newTestMonitor(t)

	if err := m.Stop("nope"); !errors.IsMonitorNotFound(err) {
		t.Errorf("error = %v, want monitor not found", err)
	}

	dir := t.TempDir()
	sess, _, err := m.Start(context.Background(), dir)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(sess.Handle()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Stopping an already stopped session is a no-op.
	if err := m.Stop(sess.Handle()); err != nil {
		t.Errorf("second Stop = %v, want nil", err)
	}
}

func TestRescanOnChange(t *testing.T) {
	m := newTestMonitor(t)
	dir := t.TempDir()

	sess, _, err := m.Start(context.Background(), dir)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, ok := sess.LastResult(); ok {
		t.Error("LastResult before any change should report not yet scanned")
	}

	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ev := waitEvent(t, m, 2*time.Second)
	if ev.Handle != sess.Handle() {
		t.Errorf("event handle = %s, want %s", ev.Handle, sess.Handle())
	}
	if ev.Result == nil {
		t.Fatal("event carries no scan result")
	}
	if last, ok := sess.LastResult(); !ok || last.ScanID != ev.Result.ScanID {
		t.Error("LastResult should retain the emitted scan result")
	}
	found := false
	for _, trig := range ev.Trigger {
		if trig == "main.go" {
			found = true
		}
	}
	if !found {
		t.Errorf("trigger = %v, want main.go present", ev.Trigger)
	}

	infos := m.Sessions()
	if len(infos) != 1 {
		t.Fatalf("sessions = %d, want 1", len(infos))
	}
	if infos[0].Scans < 1 {
		t.Errorf("scans = %d, want >= 1", infos[0].Scans)
	}
}

func TestBurstProducesOneScan(t *testing.T) {
	m := newTestMonitor(t)
	dir := t.TempDir()

	if _, _, err := m.Start(context.Background(), dir); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, "file"+string(rune('a'+i))+".go")
		if err := os.WriteFile(name, []byte("package x\n"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	ev := waitEvent(t, m, 2*time.Second)
	if len(ev.Trigger) < 2 {
		t.Errorf("trigger = %v, want the burst coalesced into one event", ev.Trigger)
	}
	assertNoEvent(t, m, 300*time.Millisecond)
}

func TestStopCancelsPendingRescan(t *testing.T) {
	m := newTestMonitor(t)
	dir := t.TempDir()

	sess, _, err := m.Start(context.Background(), dir)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "late.go"), []byte("package x\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// Stop inside the debounce window; the pending rescan must not fire.
	time.Sleep(10 * time.Millisecond)
	if err := m.Stop(sess.Handle()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	assertNoEvent(t, m, 300*time.Millisecond)
	if sess.State() != StateStopped {
		t.Errorf("state = %s, want stopped", sess.State())
	}
}

func TestIgnoredDirectoriesStaySilent(t *testing.T) {
	m := newTestMonitor(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "node_modules"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	if _, _, err := m.Start(context.Background(), dir); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "node_modules", "dep.js"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	assertNoEvent(t, m, 300*time.Millisecond)

	// The watcher itself is alive: a real change still fires.
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ev := waitEvent(t, m, 2*time.Second)
	for _, trig := range ev.Trigger {
		if trig == "node_modules/dep.js" {
			t.Errorf("ignored path leaked into trigger: %v", ev.Trigger)
		}
	}
}

func TestMonitorIgnoreOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Monitor.DebounceMs = 50
	cfg.Monitor.IgnorePatterns = []string{"logs"}

	logger := logging.NewDiscardLogger()
	m := New(engine.New(cfg.Scan, logger), cfg, logger)
	t.Cleanup(m.Shutdown)

	dir := t.TempDir()
	for _, sub := range []string{"logs", "node_modules"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}

	if _, _, err := m.Start(context.Background(), dir); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "logs", "out.log"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	assertNoEvent(t, m, 300*time.Millisecond)

	// Monitor patterns replace the scan list, so node_modules is watched
	// again once the override drops it.
	if err := os.WriteFile(filepath.Join(dir, "node_modules", "dep.js"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ev := waitEvent(t, m, 2*time.Second)
	found := false
	for _, trig := range ev.Trigger {
		if trig == "node_modules/dep.js" {
			found = true
		}
	}
	if !found {
		t.Errorf("override should let node_modules changes through, trigger %v", ev.Trigger)
	}
}

func TestSessionsSnapshot(t *testing.T) {
	m := newTestMonitor(t)
	first := t.TempDir()
	second := t.TempDir()

	a, _, err := m.Start(context.Background(), first)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, err := m.Start(context.Background(), second); err != nil {
		t.Fatalf("Start: %v", err)
	}

	infos := m.Sessions()
	if len(infos) != 2 {
		t.Fatalf("sessions = %d, want 2", len(infos))
	}

	if err := m.Stop(a.Handle()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	infos = m.Sessions()
	if len(infos) != 2 {
		t.Fatalf("sessions after stop = %d, want 2 (stopped retained)", len(infos))
	}
	var stopped int
	for _, info := range infos {
		if info.State == StateStopped {
			stopped++
		}
	}
	if stopped != 1 {
		t.Errorf("stopped sessions = %d, want 1", stopped)
	}
}

func TestRelTrigger(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "proj")
	tests := []struct {
		name string
		want string
	}{
		{filepath.Join(root, "src", "a.go"), "src/a.go"},
		{filepath.Join(root, "b.go"), "b.go"},
		{root, "proj"},
	}
	for _, tt := range tests {
		if got := relTrigger(root, tt.name); got != tt.want {
			t.Errorf("relTrigger(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
