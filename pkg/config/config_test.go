package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Menu.ItemsPerPage != 5 {
		t.Errorf("expected 5 items per page, got %d", cfg.Menu.ItemsPerPage)
	}
	if cfg.Notify.Capacity != 3 {
		t.Errorf("expected notification capacity 3, got %d", cfg.Notify.Capacity)
	}
	if cfg.General.ScreensaverTimeout.Duration != 30*time.Second {
		t.Errorf("expected 30s screensaver timeout, got %s", cfg.General.ScreensaverTimeout)
	}
	if cfg.Hardware.WifiInterface != "wlan0" {
		t.Errorf("expected wlan0 default interface, got %q", cfg.Hardware.WifiInterface)
	}
}

func TestLoadFromReader(t *testing.T) {
	input := `
[general]
screensaver_timeout = "45s"
frame_interval = "100ms"

[menu]
items_per_page = 4

[hardware]
wifi_interface = "wlp2s0"
command_timeout = "10s"
`
	cfg, err := LoadFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.General.ScreensaverTimeout.Duration != 45*time.Second {
		t.Errorf("expected 45s, got %s", cfg.General.ScreensaverTimeout)
	}
	if cfg.General.FrameInterval.Duration != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %s", cfg.General.FrameInterval)
	}
	if cfg.Menu.ItemsPerPage != 4 {
		t.Errorf("expected 4, got %d", cfg.Menu.ItemsPerPage)
	}
	if cfg.Hardware.WifiInterface != "wlp2s0" {
		t.Errorf("expected wlp2s0, got %q", cfg.Hardware.WifiInterface)
	}
	// Untouched sections keep defaults.
	if cfg.Notify.Capacity != 3 {
		t.Errorf("expected default capacity 3, got %d", cfg.Notify.Capacity)
	}
}

func TestLoadFromReaderRejectsBadDuration(t *testing.T) {
	input := `
[general]
frame_interval = "not-a-duration"
`
	if _, err := LoadFromReader(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"250ms", 250 * time.Millisecond, false},
		{"", 0, false},
		{"-5s", 0, true},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalText([]byte(tt.in))
		if tt.wantErr {
			if err == nil {
				t.Errorf("UnmarshalText(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("UnmarshalText(%q): %v", tt.in, err)
			continue
		}
		if d.Duration != tt.want {
			t.Errorf("UnmarshalText(%q) = %s, want %s", tt.in, d.Duration, tt.want)
		}
	}
}
