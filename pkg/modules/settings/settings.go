// Package settings hosts the connectivity and system preferences screen.
// The Wi-Fi and Bluetooth pages drive the hardware engine: requests start
// workers, and each UI tick polls the engine's task records, raising a
// notification on every running-to-finished edge.
package settings

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/hardware"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/notify"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/store"
)

type page int

const (
	pageRoot page = iota
	pageWifi
	pagePassword
	pageBluetooth
	pageSystem
)

var rootItems = []string{"Wi-Fi", "Bluetooth", "System"}

// systemToggles is the fixed set of system preferences, in display order.
var systemToggles = []struct {
	key   string
	label string
}{
	{"sounds", "Key sounds"},
	{"auto_connect", "Auto-connect Wi-Fi on boot"},
	{"24h_clock", "24-hour clock"},
}

// systemActions follow the toggles on the System page, in display order.
var systemActions = []string{"Back up data", "Restore last backup"}

// polledKinds is every task kind whose completion the screen reports.
var polledKinds = []hardware.Kind{
	hardware.WifiScan,
	hardware.WifiConnect,
	hardware.WifiDisconnect,
	hardware.BluetoothPower,
	hardware.BluetoothScan,
	hardware.BluetoothConnect,
}

// Module implements the settings screen.
type Module struct {
	engine *hardware.Engine
	queue  *notify.Queue
	store  *store.Store

	page     page
	selected int

	networks []hardware.Network
	devices  []hardware.Device

	// last reported completion per kind, for completion-edge detection
	lastDone map[hardware.Kind]time.Time

	passwordInput textinput.Model
	connectTarget hardware.Network

	btEnabled  bool
	system     map[string]bool
	lastBackup string
}

type persisted struct {
	BluetoothEnabled bool            `json:"bluetooth_enabled"`
	System           map[string]bool `json:"system_settings"`
}

// New wires the settings screen to the engine, the notification queue, and
// the store it backs up on demand.
func New(engine *hardware.Engine, queue *notify.Queue, st *store.Store) *Module {
	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 64

	return &Module{
		engine:        engine,
		queue:         queue,
		store:         st,
		lastDone:      make(map[hardware.Kind]time.Time),
		passwordInput: password,
		system:        map[string]bool{"24h_clock": true},
	}
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleSettings }

func (m *Module) OnEnter() {
	m.page = pageRoot
	m.selected = 0
}

// Tick polls every task kind, absorbing fresh results and notifying on
// completion edges. A finished record is reported once, keyed by its
// FinishedAt stamp, so a completion between two ticks is never missed.
func (m *Module) Tick(time.Time) {
	for _, kind := range polledKinds {
		t := m.engine.Task(kind)
		if t.Status != hardware.StatusSucceeded && t.Status != hardware.StatusFailed {
			continue
		}
		if t.FinishedAt.Equal(m.lastDone[kind]) {
			continue
		}
		m.lastDone[kind] = t.FinishedAt
		m.finished(t)
	}
}

// finished reports one task completion and folds results into the lists.
func (m *Module) finished(t hardware.Task) {
	switch t.Kind {
	case hardware.WifiScan:
		if t.Status == hardware.StatusSucceeded {
			m.networks = t.Networks
			m.clampSelection()
			m.queue.Push("Wi-Fi", fmt.Sprintf("Found %d networks", len(t.Networks)), notify.Info)
		} else {
			m.queue.Push("Wi-Fi scan failed", t.Err, notify.Error)
		}

	case hardware.WifiConnect:
		if t.Status == hardware.StatusSucceeded {
			m.queue.Push("Wi-Fi", "Connected to "+t.Connected, notify.Success)
		} else {
			m.queue.Push("Wi-Fi connect failed", t.Err, notify.Error)
		}

	case hardware.WifiDisconnect:
		if t.Status == hardware.StatusSucceeded {
			m.queue.Push("Wi-Fi", "Disconnected", notify.Info)
		}

	case hardware.BluetoothPower:
		if t.Status == hardware.StatusSucceeded {
			state := "off"
			if t.Powered {
				state = "on"
			}
			m.btEnabled = t.Powered
			m.queue.Push("Bluetooth", "Power "+state, notify.Info)
		} else {
			m.queue.Push("Bluetooth power failed", t.Err, notify.Error)
		}

	case hardware.BluetoothScan:
		if t.Status == hardware.StatusSucceeded {
			m.devices = t.Devices
			m.clampSelection()
			m.queue.Push("Bluetooth", fmt.Sprintf("Found %d devices", len(t.Devices)), notify.Info)
		} else {
			m.queue.Push("Bluetooth scan failed", t.Err, notify.Error)
		}

	case hardware.BluetoothConnect:
		if t.Status == hardware.StatusSucceeded {
			m.queue.Push("Bluetooth", t.Detail, notify.Success)
		} else {
			m.queue.Push("Bluetooth connect failed", t.Err, notify.Error)
		}
	}
}

func (m *Module) clampSelection() {
	limit := m.listLen()
	if limit == 0 {
		m.selected = 0
	} else if m.selected >= limit {
		m.selected = limit - 1
	}
}

func (m *Module) listLen() int {
	switch m.page {
	case pageRoot:
		return len(rootItems)
	case pageWifi:
		return len(m.networks)
	case pageBluetooth:
		return len(m.devices)
	case pageSystem:
		return len(systemToggles) + len(systemActions)
	}
	return 0
}

func (m *Module) HandleKey(msg tea.KeyMsg) kiosk.Action {
	if m.page == pagePassword {
		m.handlePasswordKey(msg)
		return kiosk.ActionNone
	}

	switch msg.Type {
	case tea.KeyEsc:
		if m.page == pageRoot {
			return kiosk.ActionBack
		}
		m.page = pageRoot
		m.selected = 0
		return kiosk.ActionNone

	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
		return kiosk.ActionNone

	case tea.KeyDown:
		if m.selected < m.listLen()-1 {
			m.selected++
		}
		return kiosk.ActionNone

	case tea.KeyEnter:
		m.activate()
		return kiosk.ActionNone

	case tea.KeyRunes:
		m.handleRune(msg.Runes[0])
	}
	return kiosk.ActionNone
}

func (m *Module) handleRune(r rune) {
	switch m.page {
	case pageWifi:
		switch r {
		case 's':
			m.engine.StartWifiScan()
		case 'x':
			m.engine.StartWifiDisconnect()
		}
	case pageBluetooth:
		switch r {
		case 'p':
			m.engine.StartBluetoothPower(!m.engine.BluetoothPowered())
		case 's':
			m.engine.StartBluetoothScan()
		}
	}
}

func (m *Module) activate() {
	switch m.page {
	case pageRoot:
		switch m.selected {
		case 0:
			m.page = pageWifi
		case 1:
			m.page = pageBluetooth
		case 2:
			m.page = pageSystem
		}
		m.selected = 0

	case pageWifi:
		if m.selected >= len(m.networks) {
			return
		}
		target := m.networks[m.selected]
		if target.Encrypted {
			m.connectTarget = target
			m.passwordInput.SetValue("")
			m.passwordInput.Focus()
			m.page = pagePassword
			return
		}
		m.engine.StartWifiConnect(target.SSID, "")

	case pageBluetooth:
		if m.selected >= len(m.devices) {
			return
		}
		m.engine.StartBluetoothConnect(m.devices[m.selected].Address, m.devices[m.selected].Name)

	case pageSystem:
		if m.selected < len(systemToggles) {
			key := systemToggles[m.selected].key
			m.system[key] = !m.system[key]
			return
		}
		switch m.selected - len(systemToggles) {
		case 0:
			m.backup()
		case 1:
			m.restoreBackup()
		}
	}
}

// backup snapshots the whole data file next to it and remembers the path
// for a later restore.
func (m *Module) backup() {
	path, err := m.store.Backup("")
	if err != nil {
		m.queue.Push("Backup failed", err.Error(), notify.Error)
		return
	}
	m.lastBackup = path
	m.queue.Push("Backup", "Saved "+filepath.Base(path), notify.Success)
}

func (m *Module) restoreBackup() {
	if m.lastBackup == "" {
		m.queue.Push("Restore", "No backup taken this session", notify.Warning)
		return
	}
	if err := m.store.Restore(m.lastBackup); err != nil {
		m.queue.Push("Restore failed", err.Error(), notify.Error)
		return
	}
	m.queue.Push("Restore", "Restored "+filepath.Base(m.lastBackup), notify.Success)
}

func (m *Module) handlePasswordKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.page = pageWifi
		return
	case tea.KeyEnter:
		m.engine.StartWifiConnect(m.connectTarget.SSID, m.passwordInput.Value())
		m.page = pageWifi
		return
	}
	m.passwordInput, _ = m.passwordInput.Update(msg)
}

func taskLine(t hardware.Task) string {
	switch t.Status {
	case hardware.StatusRunning:
		return t.Kind.String() + " running..."
	case hardware.StatusFailed:
		return t.Kind.String() + " failed: " + t.Err
	}
	return ""
}

func (m *Module) View(width, height int) string {
	var b strings.Builder
	b.WriteString(render.Title.Render("Settings") + "\n\n")

	listWidth := max(width-6, 24)

	switch m.page {
	case pageRoot:
		for i, item := range rootItems {
			if i == m.selected {
				b.WriteString(render.Selected.Render("> "+item) + "\n")
			} else {
				b.WriteString(render.Text.Render("  "+item) + "\n")
			}
		}
		cs := m.engine.Status()
		wifi := "off"
		if cs.CurrentNetwork != "" {
			wifi = cs.CurrentNetwork
		}
		bt := "off"
		if cs.BluetoothPowered {
			bt = "on"
		}
		b.WriteString("\n" + render.Dim.Render("Wi-Fi: "+wifi+"  Bluetooth: "+bt) + "\n")
		b.WriteString("\n" + render.Dim.Render("enter open  esc back"))

	case pageWifi:
		current := m.engine.CurrentNetwork()
		if current != "" {
			b.WriteString(render.Text.Render("Connected: "+current) + "\n")
		} else {
			b.WriteString(render.Dim.Render("Not connected") + "\n")
		}

		for i, n := range m.networks {
			lock := " "
			if n.Encrypted {
				lock = "*"
			}
			quality := "?"
			if n.QualityKnown {
				quality = fmt.Sprintf("%d%%", n.Quality)
			}
			line := render.TruncateOrPad(n.SSID, listWidth-14) +
				render.TruncateOrPad(quality, 6) + lock + " " + n.Security
			if i == m.selected {
				b.WriteString(render.Selected.Render("> "+line) + "\n")
			} else {
				b.WriteString(render.Text.Render("  "+line) + "\n")
			}
		}
		if len(m.networks) == 0 {
			b.WriteString(render.Dim.Render("No scan results. Press s to scan.") + "\n")
		}
		if status := taskLine(m.engine.Task(hardware.WifiScan)); status != "" {
			b.WriteString(render.Dim.Render(status) + "\n")
		}
		if status := taskLine(m.engine.Task(hardware.WifiConnect)); status != "" {
			b.WriteString(render.Dim.Render(status) + "\n")
		}
		b.WriteString("\n" + render.Dim.Render("s scan  enter connect  x disconnect  esc back"))

	case pagePassword:
		b.WriteString(render.Text.Render("Password for "+m.connectTarget.SSID) + "\n")
		b.WriteString(m.passwordInput.View() + "\n\n")
		b.WriteString(render.Dim.Render("enter connect  esc cancel"))

	case pageBluetooth:
		state := "off"
		if m.engine.BluetoothPowered() {
			state = "on"
		}
		b.WriteString(render.Text.Render("Bluetooth: "+state) + "\n")

		for i, d := range m.devices {
			line := render.TruncateOrPad(d.Name, listWidth-18) + render.Dim.Render(d.Address)
			if i == m.selected {
				b.WriteString(render.Selected.Render("> "+line) + "\n")
			} else {
				b.WriteString(render.Text.Render("  "+line) + "\n")
			}
		}
		if len(m.devices) == 0 {
			b.WriteString(render.Dim.Render("No devices. Press s to scan.") + "\n")
		}
		for _, kind := range []hardware.Kind{hardware.BluetoothPower, hardware.BluetoothScan, hardware.BluetoothConnect} {
			if status := taskLine(m.engine.Task(kind)); status != "" {
				b.WriteString(render.Dim.Render(status) + "\n")
			}
		}
		b.WriteString("\n" + render.Dim.Render("p power  s scan  enter connect  esc back"))

	case pageSystem:
		for i, toggle := range systemToggles {
			mark := "[ ]"
			if m.system[toggle.key] {
				mark = "[x]"
			}
			line := mark + " " + toggle.label
			if i == m.selected {
				b.WriteString(render.Selected.Render("> "+line) + "\n")
			} else {
				b.WriteString(render.Text.Render("  "+line) + "\n")
			}
		}
		for i, action := range systemActions {
			if i+len(systemToggles) == m.selected {
				b.WriteString(render.Selected.Render("> "+action) + "\n")
			} else {
				b.WriteString(render.Text.Render("  "+action) + "\n")
			}
		}
		b.WriteString("\n" + render.Dim.Render("enter toggle or run  esc back"))
	}

	return b.String()
}

func (m *Module) ExportState() any {
	return persisted{BluetoothEnabled: m.btEnabled, System: m.system}
}

// ImportState restores preferences and re-applies the Bluetooth power
// choice so the adapter comes back up on boot.
func (m *Module) ImportState(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	for k, v := range p.System {
		m.system[k] = v
	}
	m.btEnabled = p.BluetoothEnabled
	if m.btEnabled {
		m.engine.StartBluetoothPower(true)
	}
}
