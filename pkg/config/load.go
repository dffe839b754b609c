package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration for the kiosk shell.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Menu     MenuConfig     `toml:"menu"`
	Notify   NotifyConfig   `toml:"notifications"`
	Hardware HardwareConfig `toml:"hardware"`
}

// GeneralConfig holds paths, timing, and logging settings.
type GeneralConfig struct {
	// DataFile is the durable per-module state file.
	DataFile string `toml:"data_file"`

	// LogFile receives the slog text stream alongside stderr.
	LogFile string `toml:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`

	// FrameInterval is the UI tick cadence.
	FrameInterval Duration `toml:"frame_interval"`

	// ScreensaverTimeout is the idle duration before the screensaver engages.
	ScreensaverTimeout Duration `toml:"screensaver_timeout"`

	// RefreshInterval is the cadence of the low-frequency background
	// refresher (calendar due checks and the like).
	RefreshInterval Duration `toml:"refresh_interval"`
}

// MenuConfig controls main menu pagination.
type MenuConfig struct {
	ItemsPerPage int `toml:"items_per_page"`
}

// NotifyConfig controls the notification queue.
type NotifyConfig struct {
	Capacity        int      `toml:"capacity"`
	DefaultDuration Duration `toml:"default_duration"`
}

// HardwareConfig holds the connectivity engine settings.
type HardwareConfig struct {
	// WifiInterface is the wireless interface managed by the engine.
	WifiInterface string `toml:"wifi_interface"`

	// CommandTimeout is the upper bound on any external tool invocation.
	CommandTimeout Duration `toml:"command_timeout"`

	// BluetoothSettle is how long a Bluetooth scan stays discoverable
	// before the device listing is read.
	BluetoothSettle Duration `toml:"bluetooth_settle"`
}

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/berry-kiosk/config.toml
//  2. ~/.config/berry-kiosk/config.toml
//
// If no file exists, returns DefaultConfig().
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader reads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(xdgDataHome(home), "berry-kiosk")

	return &Config{
		General: GeneralConfig{
			DataFile:           filepath.Join(dataDir, "kiosk_data.json"),
			LogFile:            filepath.Join(dataDir, "kiosk.log"),
			LogLevel:           "info",
			FrameInterval:      Duration{250 * time.Millisecond},
			ScreensaverTimeout: Duration{30 * time.Second},
			RefreshInterval:    Duration{time.Minute},
		},
		Menu: MenuConfig{
			ItemsPerPage: 5,
		},
		Notify: NotifyConfig{
			Capacity:        3,
			DefaultDuration: Duration{5 * time.Second},
		},
		Hardware: HardwareConfig{
			WifiInterface:   "wlan0",
			CommandTimeout:  Duration{30 * time.Second},
			BluetoothSettle: Duration{3 * time.Second},
		},
	}
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BERRY_DATA_FILE"); v != "" {
		cfg.General.DataFile = v
	}
	if v := os.Getenv("BERRY_LOG_FILE"); v != "" {
		cfg.General.LogFile = v
	}
	if v := os.Getenv("BERRY_WIFI_INTERFACE"); v != "" {
		cfg.Hardware.WifiInterface = v
	}
	if v := os.Getenv("BERRY_SCREENSAVER_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.General.ScreensaverTimeout = Duration{time.Duration(secs) * time.Second}
		}
	}
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, "berry-kiosk", "config.toml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, "berry-kiosk", "config.toml"))
	}

	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgDataHome returns XDG_DATA_HOME or ~/.local/share as fallback.
func xdgDataHome(home string) string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".local", "share")
}
