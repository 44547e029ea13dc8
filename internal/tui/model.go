package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/config"
	"github.com/javiermolinar/meetin/internal/dateutil"
	"github.com/javiermolinar/meetin/internal/selection"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/tui/commands"
	"github.com/javiermolinar/meetin/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal        Mode = iota
	ModeForm               // entering title and description for a committed selection
	ModeConfirmCancel      // confirming a booking cancellation
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeForm:
		return "Form"
	case ModeConfirmCancel:
		return "ConfirmCancel"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Status messages stay this long before they are cleared.
const (
	statusTTL = 3 * time.Second
	errorTTL  = 5 * time.Second
)

// Model is the main TUI model. It shows one room's slots for one day.
type Model struct {
	// Dependencies
	repo   booking.Repository
	config *config.Config
	events commands.EventSource
	grid   slotgrid.Options
	now    func() time.Time

	// Theme and styles
	theme  *theme.Theme
	styles *Styles

	// Rooms and the shown day
	rooms    []*booking.Room
	roomIdx  int
	day      time.Time
	bookings []*booking.Booking
	slots    []slotgrid.Slot
	gridErr  error // the room's window produced no grid

	// Selection over slots; shared by every copy of the model
	sel    *selection.Machine
	cursor int
	mode   Mode

	// Pending actions
	form     bookingForm
	cancelID string

	// Live updates
	watchRoom   string
	watchCancel context.CancelFunc

	// Terminal dimensions
	width        int
	height       int
	scrollOffset int

	loading   bool
	focusNext bool // move the cursor to the first free slot after the next load

	// Messages
	statusMsg  string
	statusErr  bool
	statusTime time.Time
}

// New creates a new TUI model.
func New(repo booking.Repository, cfg *config.Config, opts Options) *Model {
	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load("mocha")
	}
	styles := NewStyles(t)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Model{
		repo:      repo,
		config:    cfg,
		events:    opts.Events,
		grid:      opts.Grid,
		now:       now,
		theme:     t,
		styles:    styles,
		day:       dateutil.TruncateToDay(now()),
		sel:       selection.New(nil),
		mode:      ModeNormal,
		form:      newBookingForm(styles),
		loading:   true,
		focusNext: true,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(commands.LoadRooms(m.repo), tickMinute())
}

// room returns the room being shown, nil when there are none.
func (m Model) room() *booking.Room {
	if m.roomIdx < 0 || m.roomIdx >= len(m.rooms) {
		return nil
	}
	return m.rooms[m.roomIdx]
}

// loadDay reloads the bookings of the shown room and day, and (re)subscribes
// to the room's changes when an event source is configured.
func (m *Model) loadDay() tea.Cmd {
	r := m.room()
	if r == nil {
		m.stopWatch()
		return nil
	}
	m.loading = true
	load := commands.LoadDay(m.repo, r.ID, m.day)
	if m.events == nil || m.watchRoom == r.ID {
		return load
	}
	m.stopWatch()
	m.watchRoom = r.ID
	return tea.Batch(load, commands.Watch(m.events, r.ID))
}

// stopWatch ends the current room subscription.
func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
	}
	m.watchCancel = nil
	m.watchRoom = ""
}

// rebuild regenerates the grid from the room and loaded bookings and
// refreshes the selection against it. It reports whether the selection was
// dropped because its slots are no longer free.
func (m *Model) rebuild() bool {
	r := m.room()
	if r == nil {
		m.slots = nil
		m.gridErr = nil
		m.sel.Rebind(nil)
		return false
	}
	slots, err := slotgrid.ForRoom(r, m.grid)
	m.gridErr = err
	m.slots = slotgrid.Annotate(slots, m.bookings, m.day, slotgrid.AnnotateOptions{
		Now: slotgrid.CutoffAt(m.now()),
	})
	dropped := m.sel.Refresh(m.slots)
	m.cursor = max(0, min(m.cursor, len(m.slots)-1))
	return dropped
}

// focusFirstFree puts the cursor on the first selectable slot, or on the
// first slot when none is.
func (m *Model) focusFirstFree() {
	m.cursor = 0
	for i, s := range m.slots {
		if s.Selectable() {
			m.cursor = i
			break
		}
	}
	m.ensureCursorVisible()
}

// setDay switches the shown day and drops any selection.
func (m *Model) setDay(day time.Time) tea.Cmd {
	m.day = dateutil.TruncateToDay(day)
	m.sel.Cancel()
	m.focusNext = true
	return m.loadDay()
}

// setRoom switches the shown room and drops any selection.
func (m *Model) setRoom(idx int) tea.Cmd {
	if len(m.rooms) == 0 {
		return nil
	}
	m.roomIdx = (idx%len(m.rooms) + len(m.rooms)) % len(m.rooms)
	m.sel.Cancel()
	m.bookings = nil
	m.rebuild()
	m.focusNext = true
	return m.loadDay()
}

// gridHeight is the number of slot rows that fit on screen.
func (m Model) gridHeight() int {
	// title bar, blank line, footer
	return max(1, m.height-2-footerLines)
}

func (m *Model) ensureCursorVisible() {
	h := m.gridHeight()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+h {
		m.scrollOffset = m.cursor - h + 1
	}
	m.scrollOffset = max(0, min(m.scrollOffset, len(m.slots)-h))
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = isErr
	ttl := statusTTL
	if isErr {
		ttl = errorTTL
	}
	m.statusTime = time.Now().Add(ttl)
	return commands.ClearStatusAfter(ttl)
}

func (m *Model) setMode(to Mode, reason string) {
	if m.mode != to {
		LogModeChange(m.mode, to, reason)
	}
	m.mode = to
}

type minuteTickMsg time.Time

// tickMinute refreshes which slots are already past.
func tickMinute() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return minuteTickMsg(t)
	})
}
