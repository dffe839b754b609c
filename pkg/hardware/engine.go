// Package hardware drives the kiosk's Wi-Fi and Bluetooth through external
// network tools. Every operation runs on its own worker goroutine, bounded
// by a timeout, and reports back by publishing a complete Task snapshot into
// a single-slot channel per task kind. The UI polls on its tick cadence and
// never blocks here.
package hardware

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config holds engine settings.
type Config struct {
	// Interface is the wireless interface, e.g. "wlan0".
	Interface string

	// CommandTimeout bounds every external tool invocation. Default 30s.
	CommandTimeout time.Duration

	// BluetoothSettle is how long a Bluetooth scan stays discoverable
	// before devices are listed. Default 3s.
	BluetoothSettle time.Duration
}

func (c Config) defaults() Config {
	if c.Interface == "" {
		c.Interface = "wlan0"
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 30 * time.Second
	}
	if c.BluetoothSettle <= 0 {
		c.BluetoothSettle = 3 * time.Second
	}
	return c
}

// Engine is the hardware connectivity engine. All exported methods are safe
// to call from the UI goroutine; none of them block on I/O.
type Engine struct {
	cfg    Config
	run    Runner
	logger *slog.Logger
	nowFn  func() time.Time

	mu      sync.Mutex
	running [kindCount]bool
	tasks   [kindCount]Task      // last visible snapshot per kind
	slots   [kindCount]chan Task // single-slot result channels

	// Connectivity state derived from drained snapshots. Stale by at most
	// one UI tick, which the polling model accepts.
	currentNetwork string
	btPowered      bool

	wg sync.WaitGroup
}

// New creates an engine using the given runner. A nil runner defaults to
// ExecRunner; a nil logger defaults to slog.Default().
func New(cfg Config, run Runner, logger *slog.Logger) *Engine {
	if run == nil {
		run = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:    cfg.defaults(),
		run:    run,
		logger: logger,
		nowFn:  time.Now,
	}
	for k := range e.slots {
		e.slots[k] = make(chan Task, 1)
	}
	return e
}

// Task drains any freshly published result for kind and returns the latest
// visible record. Called by the UI on its normal tick cadence.
func (e *Engine) Task(kind Kind) Task {
	e.mu.Lock()
	defer e.mu.Unlock()

	select {
	case t := <-e.slots[kind]:
		e.tasks[kind] = t
		e.running[kind] = false
		e.absorbLocked(t)
	default:
	}
	return e.tasks[kind]
}

// absorbLocked folds a completed snapshot into the engine's connectivity
// state. Caller holds e.mu.
func (e *Engine) absorbLocked(t Task) {
	switch t.Kind {
	case WifiConnect:
		if t.Status == StatusSucceeded {
			e.currentNetwork = t.Connected
		} else {
			e.currentNetwork = ""
		}
	case WifiDisconnect:
		if t.Status == StatusSucceeded {
			e.currentNetwork = ""
		}
	case BluetoothPower:
		if t.Status == StatusSucceeded {
			e.btPowered = t.Powered
		}
	}
}

// CurrentNetwork returns the ssid the interface is attached to, or "".
func (e *Engine) CurrentNetwork() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentNetwork
}

// BluetoothPowered reports the last known Bluetooth power state.
func (e *Engine) BluetoothPowered() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.btPowered
}

// ConnStatus is a settings-screen snapshot of connectivity state.
type ConnStatus struct {
	CurrentNetwork   string
	BluetoothPowered bool
	Networks         []Network // last completed Wi-Fi scan
	Devices          []Device  // last completed Bluetooth scan
}

// Status returns the engine's last visible connectivity state. It does not
// drain pending results; Task does that on the poll cadence.
func (e *Engine) Status() ConnStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ConnStatus{
		CurrentNetwork:   e.currentNetwork,
		BluetoothPowered: e.btPowered,
		Networks:         e.tasks[WifiScan].Networks,
		Devices:          e.tasks[BluetoothScan].Devices,
	}
}

// start begins a worker for kind unless one is already in flight. The
// single-flight rule: a second request while running is a no-op and does
// not disturb the in-flight task's StartedAt.
func (e *Engine) start(kind Kind, detail string, work func(ctx context.Context) Task) bool {
	e.mu.Lock()
	// A finished-but-unpolled result still re-arms the kind.
	select {
	case t := <-e.slots[kind]:
		e.tasks[kind] = t
		e.running[kind] = false
		e.absorbLocked(t)
	default:
	}
	if e.running[kind] {
		e.mu.Unlock()
		e.logger.Debug("hardware: request ignored, task in flight", "kind", kind.String())
		return false
	}
	e.running[kind] = true
	started := e.nowFn()
	e.tasks[kind] = Task{
		Kind:      kind,
		Status:    StatusRunning,
		StartedAt: started,
		Detail:    detail,
	}
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CommandTimeout)
		defer cancel()

		t := work(ctx)
		t.Kind = kind
		t.StartedAt = started
		t.FinishedAt = e.nowFn()
		if t.Status != StatusSucceeded && t.Status != StatusFailed {
			t.Status = StatusFailed
			if t.Err == "" {
				t.Err = "worker returned no result"
			}
		}

		e.logger.Info("hardware: task finished",
			"kind", kind.String(),
			"status", t.Status.String(),
			"error", t.Err,
		)

		// Publish the full record atomically. The slot holds at most the
		// latest result; replace anything unconsumed.
		select {
		case e.slots[kind] <- t:
		default:
			select {
			case <-e.slots[kind]:
			default:
			}
			e.slots[kind] <- t
		}
	}()
	return true
}

// Wait blocks until all in-flight workers finish. Test helper and shutdown
// aid; the UI never calls it on its tick path.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// failed builds a failed Task with a truncated message.
func failed(detail, msg string) Task {
	return Task{Status: StatusFailed, Detail: detail, Err: truncateMsg(msg, 80)}
}
