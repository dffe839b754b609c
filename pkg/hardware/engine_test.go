package hardware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// runnerFunc adapts a closure to the Runner interface for tests.
type runnerFunc func(ctx context.Context, name string, args ...string) (string, error)

func (f runnerFunc) Run(ctx context.Context, name string, args ...string) (string, error) {
	return f(ctx, name, args...)
}

// callLog records invocations for later assertions.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string, args ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, strings.Join(append([]string{name}, args...), " "))
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

func (l *callLog) count(prefix string) int {
	n := 0
	for _, c := range l.all() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func testEngine(run Runner) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{Interface: "wlan0", CommandTimeout: 5 * time.Second, BluetoothSettle: time.Millisecond}, run, logger)
}

// drain polls Task until the kind leaves running state.
func drain(t *testing.T, e *Engine, kind Kind) Task {
	t.Helper()
	e.Wait()
	task := e.Task(kind)
	if task.Status == StatusRunning {
		t.Fatalf("task %s still running after Wait", kind)
	}
	return task
}

func TestWifiScanPublishesResults(t *testing.T) {
	log := &callLog{}
	e := testEngine(runnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		log.add(name, args...)
		return iwlistSample, nil
	}))

	if !e.StartWifiScan() {
		t.Fatal("StartWifiScan returned false on an idle engine")
	}

	task := drain(t, e, WifiScan)
	if task.Status != StatusSucceeded {
		t.Fatalf("scan status = %s, want succeeded: %s", task.Status, task.Err)
	}
	if len(task.Networks) != 3 {
		t.Errorf("expected 3 networks, got %d", len(task.Networks))
	}
	if log.count("iwlist wlan0 scan") != 1 {
		t.Errorf("expected one iwlist invocation, got %v", log.all())
	}
}

func TestWifiScanSingleFlight(t *testing.T) {
	release := make(chan struct{})
	log := &callLog{}
	e := testEngine(runnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		log.add(name, args...)
		<-release
		return "", nil
	}))

	if !e.StartWifiScan() {
		t.Fatal("first scan request refused")
	}
	firstStarted := e.Task(WifiScan).StartedAt

	// A second request while one is in flight is a no-op: no new worker,
	// StartedAt untouched.
	if e.StartWifiScan() {
		t.Error("second scan request accepted while one is running")
	}
	if got := e.Task(WifiScan).StartedAt; !got.Equal(firstStarted) {
		t.Errorf("StartedAt changed from %s to %s", firstStarted, got)
	}

	close(release)
	drain(t, e, WifiScan)

	if n := log.count("iwlist"); n != 1 {
		t.Errorf("expected 1 iwlist worker, got %d", n)
	}

	// A new request after completion re-arms the kind.
	if !e.StartWifiScan() {
		t.Error("scan request refused after previous run completed")
	}
	drain(t, e, WifiScan)
}

func TestWifiScanToolFailureDegrades(t *testing.T) {
	partial := "iwlist: interface busy\nESSID:\"Home\"\nESSID:\"Cafe\"\n"
	e := testEngine(runnerFunc(func(_ context.Context, name string, _ ...string) (string, error) {
		return partial, errors.New("exit status 255")
	}))

	e.StartWifiScan()
	task := drain(t, e, WifiScan)

	if task.Status != StatusSucceeded {
		t.Fatalf("expected degraded success, got %s (%s)", task.Status, task.Err)
	}
	if len(task.Networks) != 2 {
		t.Fatalf("expected 2 salvaged networks, got %+v", task.Networks)
	}
	for _, n := range task.Networks {
		if !n.Encrypted {
			t.Errorf("salvaged network %q must default to encrypted", n.SSID)
		}
	}
}

func TestWifiScanTimeout(t *testing.T) {
	e := testEngine(runnerFunc(func(_ context.Context, _ string, _ ...string) (string, error) {
		return "", ErrTimeout
	}))

	e.StartWifiScan()
	task := drain(t, e, WifiScan)

	if task.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", task.Status)
	}
	if !strings.Contains(task.Err, "timed out") {
		t.Errorf("expected timeout-specific message, got %q", task.Err)
	}
}

func TestWifiConnectSuccess(t *testing.T) {
	log := &callLog{}
	var credPath string
	e := testEngine(runnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		log.add(name, args...)
		if name == "wpa_supplicant" {
			credPath = args[len(args)-1]
			if _, err := os.Stat(credPath); err != nil {
				t.Errorf("credential file missing during supplicant start: %v", err)
			}
			raw, _ := os.ReadFile(credPath)
			if !strings.Contains(string(raw), `ssid="Home"`) {
				t.Errorf("credential file missing ssid: %s", raw)
			}
		}
		return "", nil
	}))

	e.StartWifiConnect("Home", "hunter22")
	task := drain(t, e, WifiConnect)

	if task.Status != StatusSucceeded {
		t.Fatalf("connect failed: %s", task.Err)
	}
	if task.Connected != "Home" {
		t.Errorf("Connected = %q, want Home", task.Connected)
	}
	if e.CurrentNetwork() != "Home" {
		t.Errorf("CurrentNetwork = %q, want Home", e.CurrentNetwork())
	}
	if credPath == "" {
		t.Fatal("supplicant never invoked")
	}
	if _, err := os.Stat(credPath); !os.IsNotExist(err) {
		t.Error("credential file survived a successful attempt")
	}
	if log.count("dhclient wlan0") != 1 {
		t.Errorf("expected a DHCP request, calls: %v", log.all())
	}
}

// Supplicant succeeds, DHCP times out: the task fails, the current-network
// pointer stays unset, the credential file is gone, and the interface is
// torn back down.
func TestWifiConnectDHCPFailureLeavesNoPartialState(t *testing.T) {
	log := &callLog{}
	var credPath string
	e := testEngine(runnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		log.add(name, args...)
		switch name {
		case "wpa_supplicant":
			credPath = args[len(args)-1]
			return "", nil
		case "dhclient":
			return "", ErrTimeout
		}
		return "", nil
	}))

	e.StartWifiConnect("Home", "pw")
	task := drain(t, e, WifiConnect)

	if task.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", task.Status)
	}
	if !strings.Contains(task.Err, "timed out") {
		t.Errorf("expected DHCP timeout message, got %q", task.Err)
	}
	if e.CurrentNetwork() != "" {
		t.Errorf("CurrentNetwork = %q after partial failure, want empty", e.CurrentNetwork())
	}
	if _, err := os.Stat(credPath); !os.IsNotExist(err) {
		t.Error("credential file survived a failed attempt")
	}
	// Teardown runs before the attempt and again after the DHCP failure.
	if log.count("killall wpa_supplicant") < 2 {
		t.Errorf("expected post-failure teardown, calls: %v", log.all())
	}
}

func TestWifiConnectSupplicantFailureShortCircuits(t *testing.T) {
	log := &callLog{}
	e := testEngine(runnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		log.add(name, args...)
		if name == "wpa_supplicant" {
			return "ioctl failed", errors.New("exit status 1")
		}
		return "", nil
	}))

	e.StartWifiConnect("Home", "pw")
	task := drain(t, e, WifiConnect)

	if task.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", task.Status)
	}
	if log.count("dhclient") != 0 {
		t.Errorf("DHCP attempted after supplicant failure: %v", log.all())
	}
}

func TestWifiDisconnectBestEffort(t *testing.T) {
	e := testEngine(runnerFunc(func(_ context.Context, name string, _ ...string) (string, error) {
		if name == "killall" {
			// No supplicant running; not an error for disconnect.
			return "wpa_supplicant: no process found", errors.New("exit status 1")
		}
		return "", nil
	}))

	e.StartWifiDisconnect()
	task := drain(t, e, WifiDisconnect)

	if task.Status != StatusSucceeded {
		t.Errorf("disconnect should be best-effort, got %s: %s", task.Status, task.Err)
	}
}

func TestBluetoothScanRejectedWhilePoweredOff(t *testing.T) {
	log := &callLog{}
	e := testEngine(runnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		log.add(name, args...)
		return "", nil
	}))

	e.StartBluetoothScan()
	task := drain(t, e, BluetoothScan)

	if task.Status != StatusFailed {
		t.Fatalf("expected rejection, got %s", task.Status)
	}
	if !strings.Contains(task.Err, "powered off") {
		t.Errorf("expected descriptive power message, got %q", task.Err)
	}
	if log.count("bluetoothctl scan") != 0 {
		t.Errorf("scan attempted while powered off: %v", log.all())
	}
}

func TestBluetoothPowerThenScan(t *testing.T) {
	log := &callLog{}
	e := testEngine(runnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		log.add(name, args...)
		if name == "bluetoothctl" && len(args) == 1 && args[0] == "devices" {
			return "Device AA:BB:CC:DD:EE:FF JBL Flip 5\n", nil
		}
		return "", nil
	}))

	e.StartBluetoothPower(true)
	task := drain(t, e, BluetoothPower)
	if task.Status != StatusSucceeded || !task.Powered {
		t.Fatalf("power on failed: %+v", task)
	}
	if !e.BluetoothPowered() {
		t.Fatal("engine did not absorb power state")
	}

	e.StartBluetoothScan()
	task = drain(t, e, BluetoothScan)
	if task.Status != StatusSucceeded {
		t.Fatalf("scan failed: %s", task.Err)
	}
	if len(task.Devices) != 1 || task.Devices[0].Name != "JBL Flip 5" {
		t.Errorf("unexpected devices: %+v", task.Devices)
	}

	calls := log.all()
	var sawOn, sawOff bool
	for _, c := range calls {
		if c == "bluetoothctl scan on" {
			sawOn = true
		}
		if c == "bluetoothctl scan off" {
			sawOff = true
		}
	}
	if !sawOn || !sawOff {
		t.Errorf("expected scan on and scan off, calls: %v", calls)
	}
}

func TestBluetoothConnectPairFailureShortCircuits(t *testing.T) {
	log := &callLog{}
	e := testEngine(runnerFunc(func(_ context.Context, name string, args ...string) (string, error) {
		log.add(name, args...)
		if name == "bluetoothctl" && len(args) > 0 && args[0] == "pair" {
			return "Failed to pair", errors.New("exit status 1")
		}
		return "", nil
	}))

	e.StartBluetoothPower(true)
	drain(t, e, BluetoothPower)

	e.StartBluetoothConnect("AA:BB:CC:DD:EE:FF", "Speaker")
	task := drain(t, e, BluetoothConnect)

	if task.Status != StatusFailed {
		t.Fatalf("expected pairing failure, got %s", task.Status)
	}
	if log.count("bluetoothctl trust") != 0 || log.count("bluetoothctl connect") != 0 {
		t.Errorf("trust/connect attempted after pairing failure: %v", log.all())
	}
}

func TestDifferentKindsRunIndependently(t *testing.T) {
	release := make(chan struct{})
	e := testEngine(runnerFunc(func(_ context.Context, name string, _ ...string) (string, error) {
		if name == "iwlist" {
			<-release
		}
		return "", nil
	}))

	if !e.StartWifiScan() {
		t.Fatal("scan refused")
	}
	// A different kind is not blocked by the in-flight scan.
	if !e.StartBluetoothPower(true) {
		t.Error("bt power refused while wifi scan in flight")
	}

	close(release)
	e.Wait()
}

func TestResultsOverwrittenByNextRun(t *testing.T) {
	var outputs = []string{
		"ESSID:\"First\"\nEncryption key:on\nCell 01\nESSID:\"First\"\n",
		iwlistSample,
	}
	idx := 0
	var mu sync.Mutex
	e := testEngine(runnerFunc(func(_ context.Context, _ string, _ ...string) (string, error) {
		mu.Lock()
		out := outputs[idx%len(outputs)]
		idx++
		mu.Unlock()
		return out, nil
	}))

	e.StartWifiScan()
	first := drain(t, e, WifiScan)

	e.StartWifiScan()
	second := drain(t, e, WifiScan)

	if len(first.Networks) == len(second.Networks) {
		t.Fatalf("expected the second run to replace the payload: %d vs %d",
			len(first.Networks), len(second.Networks))
	}
	// The visible record is the latest, not a merge.
	if got := e.Task(WifiScan); len(got.Networks) != len(second.Networks) {
		t.Errorf("visible record not overwritten: %+v", got)
	}
}

// A connect that fails by timeout must still tear the interface down. The
// worker's context is already expired at that point, so teardown has to run
// under a fresh deadline or its commands never start.
func TestWifiConnectTimeoutStillTearsDown(t *testing.T) {
	log := &callLog{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	run := runnerFunc(func(ctx context.Context, name string, args ...string) (string, error) {
		if ctx.Err() != nil {
			// exec.CommandContext never starts a process on a done context.
			return "", ctx.Err()
		}
		if name == "dhclient" {
			<-ctx.Done()
			return "", ErrTimeout
		}
		log.add(name, args...)
		return "", nil
	})
	e := New(Config{Interface: "wlan0", CommandTimeout: 50 * time.Millisecond}, run, logger)

	e.StartWifiConnect("Home", "pw")
	task := drain(t, e, WifiConnect)

	if task.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", task.Status)
	}
	if log.count("killall wpa_supplicant") != 2 {
		t.Errorf("post-timeout teardown never ran, calls: %v", log.all())
	}
	if log.count("ip addr flush dev wlan0") != 2 {
		t.Errorf("post-timeout address flush never ran, calls: %v", log.all())
	}
}

func TestStatusSnapshot(t *testing.T) {
	e := testEngine(runnerFunc(func(_ context.Context, name string, _ ...string) (string, error) {
		if name == "iwlist" {
			return iwlistSample, nil
		}
		return "", nil
	}))

	e.StartWifiScan()
	drain(t, e, WifiScan)
	e.StartWifiConnect("Home", "pw")
	drain(t, e, WifiConnect)

	st := e.Status()
	if st.CurrentNetwork != "Home" {
		t.Errorf("CurrentNetwork = %q, want Home", st.CurrentNetwork)
	}
	if len(st.Networks) == 0 {
		t.Error("snapshot missing scan results")
	}
	if st.BluetoothPowered {
		t.Error("Bluetooth reported powered before any power request")
	}
}
