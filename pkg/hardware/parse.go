package hardware

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	qualityRe = regexp.MustCompile(`Quality=(\d+)/(\d+)`)
	essidRe   = regexp.MustCompile(`ESSID:"([^"]*)"`)
)

// parseScan converts iwlist output into Network records using marker-based
// line scanning: a new record begins at each "Cell" delimiter, fields are
// extracted independently, and a record is kept only once it has a name.
// The parser tolerates missing fields, reordered lines, and empty output.
func parseScan(out string) []Network {
	var (
		nets []Network
		cur  Network
		open bool
	)

	flush := func() {
		if open && cur.SSID != "" {
			nets = append(nets, cur)
		}
		cur = Network{Security: "unknown"}
		open = true
	}

	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "Cell "):
			flush()

		case strings.Contains(line, "ESSID:"):
			if !open {
				flush()
			}
			if m := essidRe.FindStringSubmatch(line); m != nil {
				if name := m[1]; name != "" && name != "<hidden>" {
					cur.SSID = name
				}
			}

		case strings.Contains(line, "Quality="):
			if m := qualityRe.FindStringSubmatch(line); m != nil {
				num, _ := strconv.Atoi(m[1])
				den, _ := strconv.Atoi(m[2])
				if den > 0 {
					cur.Quality = num * 100 / den
					cur.QualityKnown = true
				}
			}

		case strings.Contains(line, "Encryption key:"):
			// Match the value, not the line: "Encryption" itself
			// contains "on".
			cur.Encrypted = strings.Contains(line, "key:on")

		case strings.Contains(line, "IE:"):
			switch {
			case strings.Contains(line, "WPA3"):
				cur.Security = "WPA3"
			case strings.Contains(line, "WPA2") || strings.Contains(line, "IEEE 802.11i"):
				// Do not downgrade a WPA3 marker seen earlier in the cell.
				if cur.Security != "WPA3" {
					cur.Security = "WPA2"
				}
			case strings.Contains(line, "WPA"):
				if cur.Security == "unknown" {
					cur.Security = "WPA"
				}
			}
		}
	}
	flush()

	return dedupeBySSID(nets)
}

// parseScanDegraded is the fallback path when the scan tool fails: extract
// bare quoted network names only and mark them encrypted by default.
func parseScanDegraded(out string) []Network {
	var nets []Network
	for _, m := range essidRe.FindAllStringSubmatch(out, -1) {
		name := m[1]
		if name == "" || name == "<hidden>" {
			continue
		}
		nets = append(nets, Network{
			SSID:      name,
			Encrypted: true,
			Security:  "unknown",
		})
	}
	return dedupeBySSID(nets)
}

// dedupeBySSID collapses duplicate names, keeping the first occurrence.
func dedupeBySSID(nets []Network) []Network {
	seen := make(map[string]bool, len(nets))
	out := nets[:0]
	for _, n := range nets {
		if seen[n.SSID] {
			continue
		}
		seen[n.SSID] = true
		out = append(out, n)
	}
	return out
}

// parseDevices converts bluetoothctl "devices" output into Device records.
// Lines look like: Device AA:BB:CC:DD:EE:FF Some Name With Spaces
func parseDevices(out string) []Device {
	var devices []Device
	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "Device ") {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 3 || parts[1] == "" {
			continue
		}
		devices = append(devices, Device{Address: parts[1], Name: parts[2]})
	}
	return devices
}
