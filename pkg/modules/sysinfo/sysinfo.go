// Package sysinfo hosts a read-only system status screen: host identity,
// uptime, CPU, memory, load, and root filesystem usage via gopsutil.
// Collection runs on a short-lived background goroutine so the UI tick
// never blocks on /proc or statfs.
package sysinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/kiosk"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/render"
)

// refreshEvery is the minimum interval between collections while the
// screen is active.
const refreshEvery = 2 * time.Second

// Snapshot is one collected view of the system. Partial failures leave the
// affected fields zero and are listed in Errs.
type Snapshot struct {
	Hostname string
	Platform string
	Kernel   string
	Uptime   time.Duration

	CPUTotal float64
	CPUCount int

	MemUsed        uint64
	MemTotal       uint64
	MemUsedPercent float64

	Load1, Load5, Load15 float64

	DiskUsed        uint64
	DiskTotal       uint64
	DiskUsedPercent float64

	Taken time.Time
	Errs  []string
}

// Module implements the system info screen.
type Module struct {
	collect func(ctx context.Context) Snapshot

	mu      sync.Mutex
	snap    Snapshot
	have    bool
	running bool

	lastStart time.Time
}

// New returns a sysinfo module backed by gopsutil.
func New() *Module {
	return &Module{collect: collectSnapshot}
}

func (m *Module) ID() kiosk.ModuleID { return kiosk.ModuleSysInfo }

// OnEnter kicks an immediate collection so the screen has data by the
// first frame after activation.
func (m *Module) OnEnter() {
	m.refresh(time.Now())
}

// Tick re-collects at the refresh cadence while active.
func (m *Module) Tick(now time.Time) {
	m.refresh(now)
}

// refresh starts a collection worker unless one is running or the last one
// started too recently.
func (m *Module) refresh(now time.Time) {
	m.mu.Lock()
	if m.running || now.Sub(m.lastStart) < refreshEvery && m.have {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.lastStart = now
	m.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap := m.collect(ctx)

		m.mu.Lock()
		m.snap = snap
		m.have = true
		m.running = false
		m.mu.Unlock()
	}()
}

func collectSnapshot(ctx context.Context) Snapshot {
	s := Snapshot{Taken: time.Now()}

	if info, err := host.InfoWithContext(ctx); err != nil {
		s.Errs = append(s.Errs, fmt.Sprintf("host: %v", err))
	} else {
		s.Hostname = info.Hostname
		s.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		s.Kernel = info.KernelVersion
		s.Uptime = time.Duration(info.Uptime) * time.Second
	}

	if total, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		s.Errs = append(s.Errs, fmt.Sprintf("cpu: %v", err))
	} else if len(total) > 0 {
		s.CPUTotal = total[0]
	}
	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.CPUCount = count
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		s.Errs = append(s.Errs, fmt.Sprintf("memory: %v", err))
	} else {
		s.MemUsed = vm.Used
		s.MemTotal = vm.Total
		s.MemUsedPercent = vm.UsedPercent
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		s.Errs = append(s.Errs, fmt.Sprintf("load: %v", err))
	} else {
		s.Load1, s.Load5, s.Load15 = avg.Load1, avg.Load5, avg.Load15
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err != nil {
		s.Errs = append(s.Errs, fmt.Sprintf("disk: %v", err))
	} else {
		s.DiskUsed = du.Used
		s.DiskTotal = du.Total
		s.DiskUsedPercent = du.UsedPercent
	}

	return s
}

func (m *Module) HandleKey(msg tea.KeyMsg) kiosk.Action {
	switch msg.Type {
	case tea.KeyEsc:
		return kiosk.ActionBack
	case tea.KeyRunes:
		if string(msg.Runes) == "r" {
			m.mu.Lock()
			m.lastStart = time.Time{} // force the next refresh through
			m.mu.Unlock()
			m.refresh(time.Now())
		}
	}
	return kiosk.ActionNone
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func (m *Module) View(width, height int) string {
	m.mu.Lock()
	snap := m.snap
	have := m.have
	m.mu.Unlock()

	var b strings.Builder
	b.WriteString(render.Title.Render("System Info") + "\n\n")

	if !have {
		b.WriteString(render.Dim.Render("Collecting...") + "\n")
		return b.String()
	}

	row := func(label, value string) {
		b.WriteString(render.Dim.Render(render.TruncateOrPad(label, 10)) + render.Text.Render(value) + "\n")
	}

	row("Host", snap.Hostname)
	row("OS", snap.Platform)
	row("Kernel", snap.Kernel)
	row("Uptime", formatUptime(snap.Uptime))
	b.WriteString("\n")
	row("CPU", fmt.Sprintf("%.1f%%  (%d cores)", snap.CPUTotal, snap.CPUCount))
	row("Memory", fmt.Sprintf("%.1f%%  %s / %s",
		snap.MemUsedPercent, formatBytes(snap.MemUsed), formatBytes(snap.MemTotal)))
	row("Load", fmt.Sprintf("%.2f %.2f %.2f", snap.Load1, snap.Load5, snap.Load15))
	row("Disk /", fmt.Sprintf("%.1f%%  %s / %s",
		snap.DiskUsedPercent, formatBytes(snap.DiskUsed), formatBytes(snap.DiskTotal)))

	for _, e := range snap.Errs {
		b.WriteString(render.Dim.Render("! "+e) + "\n")
	}

	b.WriteString("\n" + render.Dim.Render("r refresh  esc back"))
	return b.String()
}

// ExportState returns nil: this screen persists nothing.
func (m *Module) ExportState() any { return nil }

func (m *Module) ImportState(json.RawMessage) {}
