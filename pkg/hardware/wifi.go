package hardware

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// StartWifiScan launches a Wi-Fi scan worker. Returns false if a scan is
// already in flight.
func (e *Engine) StartWifiScan() bool {
	return e.start(WifiScan, "Scanning networks...", func(ctx context.Context) Task {
		out, err := e.run.Run(ctx, "iwlist", e.cfg.Interface, "scan")
		if err != nil {
			// Fail safe, not fail open: salvage whatever names appeared in
			// partial output and mark them encrypted by default.
			nets := parseScanDegraded(out)
			if len(nets) == 0 {
				if err == ErrTimeout {
					return failed("Scan failed", "scan timed out")
				}
				return failed("Scan failed", err.Error()+": "+out)
			}
			return Task{
				Status:   StatusSucceeded,
				Detail:   fmt.Sprintf("%d networks (partial)", len(nets)),
				Networks: nets,
			}
		}

		nets := parseScan(out)
		return Task{
			Status:   StatusSucceeded,
			Detail:   fmt.Sprintf("%d networks", len(nets)),
			Networks: nets,
		}
	})
}

// StartWifiConnect launches a connect worker for ssid. The transient
// credential file is removed on every path; a partial failure leaves the
// interface disconnected rather than half-configured.
func (e *Engine) StartWifiConnect(ssid, password string) bool {
	detail := "Connecting to " + ssid + "..."
	return e.start(WifiConnect, detail, func(ctx context.Context) Task {
		// Tear down any existing supplicant first; its absence is fine.
		e.teardown()

		credPath, err := writeCredentialFile(ssid, password)
		if err != nil {
			return failed("Connect failed", err.Error())
		}
		defer os.Remove(credPath)

		if out, err := e.run.Run(ctx, "wpa_supplicant", "-B", "-i", e.cfg.Interface, "-c", credPath); err != nil {
			e.teardown()
			if err == ErrTimeout {
				return failed("Connect failed", "supplicant timed out")
			}
			return failed("Connect failed", err.Error()+": "+out)
		}

		if out, err := e.run.Run(ctx, "dhclient", e.cfg.Interface); err != nil {
			// Supplicant is up but we have no lease. Disconnect so no
			// partial network state survives the attempt.
			e.teardown()
			if err == ErrTimeout {
				return failed("Connect failed", "DHCP timed out")
			}
			return failed("Connect failed", "DHCP: "+err.Error()+": "+out)
		}

		return Task{
			Status:    StatusSucceeded,
			Detail:    "Connected to " + ssid,
			Connected: ssid,
		}
	})
}

// StartWifiDisconnect launches a disconnect worker. Best-effort: a missing
// supplicant process is not an error.
func (e *Engine) StartWifiDisconnect() bool {
	return e.start(WifiDisconnect, "Disconnecting...", func(ctx context.Context) Task {
		e.teardown()
		return Task{Status: StatusSucceeded, Detail: "Disconnected"}
	})
}

// teardown kills the supplicant and flushes interface addresses. Both steps
// are best-effort and run under their own deadline, since the worker's
// context has usually expired by the time a failed connect needs cleanup.
func (e *Engine) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CommandTimeout)
	defer cancel()
	_, _ = e.run.Run(ctx, "killall", "wpa_supplicant")
	_, _ = e.run.Run(ctx, "ip", "addr", "flush", "dev", e.cfg.Interface)
}

// writeCredentialFile writes a transient wpa_supplicant network block. The
// caller must remove the returned path when the attempt ends, success or not.
func writeCredentialFile(ssid, password string) (string, error) {
	f, err := os.CreateTemp("", "wpa-*.conf")
	if err != nil {
		return "", fmt.Errorf("create credential file: %w", err)
	}
	path := f.Name()

	var b strings.Builder
	b.WriteString("network={\n")
	fmt.Fprintf(&b, "    ssid=\"%s\"\n", ssid)
	if password != "" {
		fmt.Fprintf(&b, "    psk=\"%s\"\n", password)
		b.WriteString("    key_mgmt=WPA-PSK\n")
	} else {
		b.WriteString("    key_mgmt=NONE\n")
	}
	b.WriteString("}\n")

	if err := os.Chmod(path, 0600); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("restrict credential file: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write credential file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close credential file: %w", err)
	}
	return path, nil
}
