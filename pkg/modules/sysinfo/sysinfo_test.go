package sysinfo

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fakeCollect(calls *atomic.Int32) func(context.Context) Snapshot {
	return func(context.Context) Snapshot {
		calls.Add(1)
		return Snapshot{
			Hostname: "berry",
			CPUTotal: 12.5,
			CPUCount: 4,
			Taken:    time.Now(),
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func (m *Module) snapshot() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, m.have
}

func TestOnEnterCollects(t *testing.T) {
	var calls atomic.Int32
	m := New()
	m.collect = fakeCollect(&calls)

	m.OnEnter()
	waitFor(t, func() bool { _, have := m.snapshot(); return have })

	snap, _ := m.snapshot()
	if snap.Hostname != "berry" {
		t.Errorf("hostname = %q", snap.Hostname)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d", calls.Load())
	}
}

func TestTickThrottlesCollection(t *testing.T) {
	var calls atomic.Int32
	m := New()
	m.collect = fakeCollect(&calls)

	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m.refresh(t0)
	waitFor(t, func() bool { _, have := m.snapshot(); return have })

	// Within the refresh window: no new worker.
	m.Tick(t0.Add(500 * time.Millisecond))
	m.Tick(t0.Add(time.Second))
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}

	m.Tick(t0.Add(3 * time.Second))
	waitFor(t, func() bool { return calls.Load() == 2 })
}

func TestViewBeforeFirstSnapshot(t *testing.T) {
	m := New()
	view := m.View(60, 20)
	if !strings.Contains(view, "Collecting") {
		t.Errorf("view = %q", view)
	}
}

func TestNoPersistedState(t *testing.T) {
	m := New()
	if m.ExportState() != nil {
		t.Error("sysinfo should persist nothing")
	}
	m.ImportState(nil) // must not panic
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	if got := formatUptime(26*time.Hour + 5*time.Minute); got != "1d 2h 5m" {
		t.Errorf("got %q", got)
	}
	if got := formatUptime(90 * time.Minute); got != "1h 30m" {
		t.Errorf("got %q", got)
	}
}
