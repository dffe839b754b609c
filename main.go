// berry-kiosk is a single-user kiosk shell for small Linux devices.
//
// It owns the whole screen: a paginated main menu of hosted application
// modules, an idle clock screensaver, a fading notification overlay, and a
// background engine driving Wi-Fi and Bluetooth through the platform's
// network tools.
//
// Usage:
//
//	berry-kiosk [flags]
//
// Flags:
//
//	-config string  Path to configuration file (default: XDG search)
//	-data string    Path to the persistent data file (overrides config)
//	-verbose        Enable verbose logging
//	-version        Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/config"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/hardware"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/calculator"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/calendar"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/converter"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/notes"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/quit"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/settings"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/sysinfo"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/timer"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/modules/worldclock"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/notify"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/store"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		dataPath    = flag.String("data", "", "Path to the persistent data file")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("berry-kiosk %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "berry-kiosk requires a terminal")
		os.Exit(1)
	}

	// Load configuration
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dataPath != "" {
		cfg.General.DataFile = *dataPath
	}

	// Setup logging - write to both stderr and log file
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	} else if lvl, ok := parseLevel(cfg.General.LogLevel); ok {
		logLevel = lvl
	}

	if err := os.MkdirAll(filepath.Dir(cfg.General.LogFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, logFile), &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger.Info("starting berry-kiosk", "version", version, "data", cfg.General.DataFile)

	// Collaborators
	st := store.Open(cfg.General.DataFile, logger)
	queue := notify.New(cfg.Notify.Capacity, cfg.Notify.DefaultDuration.Duration)
	engine := hardware.New(hardware.Config{
		Interface:       cfg.Hardware.WifiInterface,
		CommandTimeout:  cfg.Hardware.CommandTimeout.Duration,
		BluetoothSettle: cfg.Hardware.BluetoothSettle.Duration,
	}, hardware.ExecRunner{}, logger)

	// Hosted modules, in menu order
	cal := calendar.New(queue)
	registry, err := kiosk.NewRegistry(
		calculator.New(),
		cal,
		notes.New(),
		worldclock.New(),
		timer.New(queue),
		converter.New(),
		sysinfo.New(),
		settings.New(engine, queue, st),
		quit.New(engine, queue),
	)
	if err != nil {
		logger.Error("module registration failed", "error", err)
		os.Exit(1)
	}

	model := kiosk.New(kiosk.Config{
		ItemsPerPage:       cfg.Menu.ItemsPerPage,
		ScreensaverTimeout: cfg.General.ScreensaverTimeout.Duration,
		FrameInterval:      cfg.General.FrameInterval.Duration,
	}, registry, st, queue, logger)

	// Signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Minute refresher for due-event checks
	go kiosk.RunRefresher(ctx, cfg.General.RefreshInterval.Duration, logger,
		func(time.Time) { cal.CheckDue() },
	)

	program := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		logger.Error("ui loop failed", "error", err)
		model.SaveAll()
		os.Exit(1)
	}

	model.SaveAll()
	engine.Wait()
	logger.Info("berry-kiosk stopped")
}

func parseLevel(s string) (slog.Level, bool) {
	switch s {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
