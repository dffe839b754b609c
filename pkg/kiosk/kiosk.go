package kiosk

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/berry-kiosk/pkg/notify"
	"gitlab.com/tinyland/lab/berry-kiosk/pkg/store"
)

// screenKind is the tag of the orchestrator's current screen state.
type screenKind int

const (
	screenMenu screenKind = iota
	screenModule
	screenSaver
)

// Config holds the orchestrator's tunables.
type Config struct {
	// ItemsPerPage is the main menu page size. Default 5.
	ItemsPerPage int

	// ScreensaverTimeout is the idle duration that forces the screensaver.
	// Default 30s.
	ScreensaverTimeout time.Duration

	// FrameInterval is the UI tick cadence. Default 250ms.
	FrameInterval time.Duration
}

func (c Config) defaults() Config {
	if c.ItemsPerPage <= 0 {
		c.ItemsPerPage = 5
	}
	if c.ScreensaverTimeout <= 0 {
		c.ScreensaverTimeout = 30 * time.Second
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = 250 * time.Millisecond
	}
	return c
}

// Model is the top-level bubbletea model owning screen state, menu
// pagination, and routing into the active module.
type Model struct {
	cfg    Config
	reg    *Registry
	store  *store.Store
	queue  *notify.Queue
	logger *slog.Logger

	screen      screenKind
	active      ModuleID
	prior       screenKind // restored when the screensaver exits
	priorActive ModuleID

	selected int // index into reg.Order()
	page     int

	now       time.Time
	lastInput time.Time
	saverSince time.Time

	width  int
	height int
}

// New builds the orchestrator and restores each module's persisted state.
// ImportState tolerates absent entries, so a first run works unchanged.
func New(cfg Config, reg *Registry, st *store.Store, queue *notify.Queue, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		cfg:    cfg.defaults(),
		reg:    reg,
		store:  st,
		queue:  queue,
		logger: logger,
		screen: screenMenu,
	}

	for _, id := range reg.Order() {
		mod, _ := reg.Get(id)
		raw, _ := st.Get(id.String())
		m.safeImport(mod, raw)
	}
	return m
}

// Init starts the frame ticker.
func (m *Model) Init() tea.Cmd {
	return TickCmd(m.cfg.FrameInterval)
}

// Update routes bubbletea messages: input to dispatch, ticks to the frame
// update, window sizes to layout.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.dispatchKey(msg)

	case TickMsg:
		m.tick(msg.Time)
		return m, TickCmd(m.cfg.FrameInterval)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

// tick advances idle detection, the active module, and the notification
// queue. The menu and screensaver have no dynamic state of their own.
func (m *Model) tick(now time.Time) {
	m.now = now
	if m.lastInput.IsZero() {
		m.lastInput = now
	}

	if m.screen != screenSaver && now.Sub(m.lastInput) >= m.cfg.ScreensaverTimeout {
		m.prior = m.screen
		m.priorActive = m.active
		m.screen = screenSaver
		m.saverSince = now
	}

	if m.screen == screenModule {
		if mod, ok := m.reg.Get(m.active); ok {
			m.safeTick(mod, now)
		}
	}

	m.queue.Tick(now)
}

// exportAndSave persists one module's state through the store. Failures are
// surfaced as an error notification, never fatal.
func (m *Model) exportAndSave(id ModuleID) {
	mod, ok := m.reg.Get(id)
	if !ok {
		return
	}
	state := m.safeExport(mod)
	if state == nil {
		return
	}
	if err := m.store.Set(id.String(), state); err != nil {
		m.logger.Error("save failed", "module", id.String(), "error", err)
		m.queue.Push("Save failed", err.Error(), notify.Error)
	}
}

// SaveAll persists every module's state; called on quit and shutdown.
func (m *Model) SaveAll() {
	for _, id := range m.reg.Order() {
		m.exportAndSave(id)
	}
}
