package hardware

import (
	"context"
	"fmt"
	"time"
)

// StartBluetoothPower launches a power toggle worker.
func (e *Engine) StartBluetoothPower(on bool) bool {
	arg := "off"
	detail := "Disabling Bluetooth..."
	if on {
		arg = "on"
		detail = "Enabling Bluetooth..."
	}
	return e.start(BluetoothPower, detail, func(ctx context.Context) Task {
		if out, err := e.run.Run(ctx, "bluetoothctl", "power", arg); err != nil {
			return failed("Power toggle failed", err.Error()+": "+out)
		}
		d := "Bluetooth off"
		if on {
			d = "Bluetooth on"
		}
		return Task{Status: StatusSucceeded, Detail: d, Powered: on}
	})
}

// StartBluetoothScan launches a discovery worker. Requests while Bluetooth
// is powered off fail with a descriptive status instead of being dropped.
func (e *Engine) StartBluetoothScan() bool {
	if !e.BluetoothPowered() {
		return e.start(BluetoothScan, "", func(ctx context.Context) Task {
			return failed("Scan rejected", "Bluetooth is powered off")
		})
	}
	return e.start(BluetoothScan, "Scanning for devices...", func(ctx context.Context) Task {
		if out, err := e.run.Run(ctx, "bluetoothctl", "scan", "on"); err != nil {
			return failed("Scan failed", err.Error()+": "+out)
		}

		// Discoverability needs a settle window before the listing is
		// useful. Honor cancellation while waiting.
		select {
		case <-time.After(e.cfg.BluetoothSettle):
		case <-ctx.Done():
			_, _ = e.run.Run(context.Background(), "bluetoothctl", "scan", "off")
			return failed("Scan failed", "scan timed out")
		}

		out, err := e.run.Run(ctx, "bluetoothctl", "devices")
		_, _ = e.run.Run(ctx, "bluetoothctl", "scan", "off")
		if err != nil {
			return failed("Scan failed", err.Error()+": "+out)
		}

		devices := parseDevices(out)
		return Task{
			Status:  StatusSucceeded,
			Detail:  fmt.Sprintf("%d devices", len(devices)),
			Devices: devices,
		}
	})
}

// StartBluetoothConnect launches a pair-trust-connect worker for address.
// Pairing failure short-circuits the remaining steps.
func (e *Engine) StartBluetoothConnect(address, name string) bool {
	if name == "" {
		name = address
	}
	if !e.BluetoothPowered() {
		return e.start(BluetoothConnect, "", func(ctx context.Context) Task {
			return failed("Connect rejected", "Bluetooth is powered off")
		})
	}
	return e.start(BluetoothConnect, "Connecting to "+name+"...", func(ctx context.Context) Task {
		if out, err := e.run.Run(ctx, "bluetoothctl", "pair", address); err != nil {
			return failed("Pairing failed", err.Error()+": "+out)
		}

		// Trust is best-effort; a device that pairs but will not persist
		// trust can still connect this session.
		_, _ = e.run.Run(ctx, "bluetoothctl", "trust", address)

		if out, err := e.run.Run(ctx, "bluetoothctl", "connect", address); err != nil {
			return failed("Connect failed", err.Error()+": "+out)
		}
		return Task{Status: StatusSucceeded, Detail: "Connected to " + name}
	})
}
