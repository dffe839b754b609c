package hardware

import "time"

// Kind identifies one of the discrete hardware operations the engine tracks
// independently. At most one task per kind runs at a time.
type Kind int

const (
	WifiScan Kind = iota
	WifiConnect
	WifiDisconnect
	BluetoothPower
	BluetoothScan
	BluetoothConnect

	kindCount
)

// String returns a stable identifier for logging.
func (k Kind) String() string {
	switch k {
	case WifiScan:
		return "wifi_scan"
	case WifiConnect:
		return "wifi_connect"
	case WifiDisconnect:
		return "wifi_disconnect"
	case BluetoothPower:
		return "bt_power"
	case BluetoothScan:
		return "bt_scan"
	case BluetoothConnect:
		return "bt_connect"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a task.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Task is the record the UI polls for one kind. Workers build the final
// record in full and publish it atomically; a succeeded or failed result
// stays visible until the next run of the same kind overwrites it.
type Task struct {
	Kind       Kind
	Status     Status
	StartedAt  time.Time
	FinishedAt time.Time
	Err        string // human-readable, truncated; empty unless failed
	Detail     string // short status line for the UI

	// Payloads, populated per kind.
	Networks  []Network // wifi_scan
	Devices   []Device  // bt_scan
	Connected string    // wifi_connect: the ssid now attached
	Powered   bool      // bt_power: resulting power state
}

// Network is one Wi-Fi scan result. Ephemeral; replaced wholesale each scan.
type Network struct {
	SSID         string
	Encrypted    bool
	Quality      int  // 0-100, valid only when QualityKnown
	QualityKnown bool
	Security     string // "WPA", "WPA2", "WPA3", or "unknown"
}

// Device is one discovered Bluetooth device. Same replace-on-rescan
// semantics as Network.
type Device struct {
	Address string
	Name    string
}
