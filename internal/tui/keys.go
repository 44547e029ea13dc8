package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/meetin/internal/request"
	"github.com/javiermolinar/meetin/internal/selection"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
	"github.com/javiermolinar/meetin/internal/tui/commands"
)

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	LogKeyPress(msg)

	// Global keys (work in all modes)
	if msg.String() == "ctrl+c" {
		m.stopWatch()
		return m, tea.Quit
	}
	switch m.mode {
	case ModeForm:
		return m.handleFormKeys(msg)
	case ModeConfirmCancel:
		return m.handleConfirmKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.stopWatch()
		return m, tea.Quit

	// Slot navigation; extends the selection while one is in progress
	case "j", "down":
		return m.moveCursor(m.cursor+1, "down")
	case "k", "up":
		return m.moveCursor(m.cursor-1, "up")
	case "pgdown", "ctrl+d":
		return m.moveCursor(m.cursor+m.gridHeight(), "page down")
	case "pgup", "ctrl+u":
		return m.moveCursor(m.cursor-m.gridHeight(), "page up")
	case "g", "home":
		return m.moveCursor(0, "top")
	case "G", "end":
		return m.moveCursor(len(m.slots)-1, "bottom")

	// Day navigation
	case "h", "left":
		cmd := m.setDay(m.day.AddDate(0, 0, -1))
		return m, cmd
	case "l", "right":
		cmd := m.setDay(m.day.AddDate(0, 0, 1))
		return m, cmd
	case "H", "shift+left":
		cmd := m.setDay(m.day.AddDate(0, 0, -7))
		return m, cmd
	case "L", "shift+right":
		cmd := m.setDay(m.day.AddDate(0, 0, 7))
		return m, cmd
	case "t":
		cmd := m.setDay(m.now())
		return m, cmd

	// Room navigation
	case "tab", "n":
		cmd := m.setRoom(m.roomIdx + 1)
		return m, cmd
	case "shift+tab", "p":
		cmd := m.setRoom(m.roomIdx - 1)
		return m, cmd

	case "r":
		return m, commands.LoadRooms(m.repo)

	// Selection
	case " ", "v":
		return m.toggleSelection()
	case "enter":
		return m.commitSelection()
	case "esc":
		if m.sel.State() != selection.Idle {
			m.sel.Cancel()
			LogSelection(m.sel, "cancel")
		}
		return m, nil

	case "x", "d":
		return m.confirmCancel()

	case "y":
		return m.copySummary()
	}
	return m, nil
}

// moveCursor places the cursor on slot i, clamped to the grid.
func (m Model) moveCursor(i int, reason string) (tea.Model, tea.Cmd) {
	if len(m.slots) == 0 {
		return m, nil
	}
	m.cursor = max(0, min(i, len(m.slots)-1))
	LogCursorMove(m.cursor, reason)
	if m.sel.State() == selection.Selecting {
		_ = m.sel.Extend(m.cursor)
		LogSelection(m.sel, "extend")
	}
	m.ensureCursorVisible()
	return m, nil
}

// toggleSelection begins a selection at the cursor, or commits the one in
// progress and opens the booking form.
func (m Model) toggleSelection() (tea.Model, tea.Cmd) {
	if m.sel.State() == selection.Selecting {
		return m.commitSelection()
	}
	return m.beginSelection()
}

func (m Model) beginSelection() (tea.Model, tea.Cmd) {
	if m.room() == nil || len(m.slots) == 0 {
		return m, nil
	}
	if m.sel.State() != selection.Idle {
		m.sel.Cancel()
	}
	if err := m.sel.Begin(m.cursor); err != nil {
		cmd := m.setStatus(m.slotUnavailableMessage(m.cursor), true)
		return m, cmd
	}
	LogSelection(m.sel, "begin")
	return m, nil
}

// commitSelection releases the selection and asks for the booking details.
// Without a selection in progress it books the slot under the cursor.
func (m Model) commitSelection() (tea.Model, tea.Cmd) {
	if m.sel.State() == selection.Idle {
		updated, cmd := m.beginSelection()
		m = updated.(Model)
		if m.sel.State() != selection.Selecting {
			return m, cmd
		}
	}
	if err := m.sel.Release(); err != nil {
		return m, nil
	}
	LogSelection(m.sel, "release")

	start, end, ok := m.sel.Range()
	if !ok {
		return m, nil
	}
	var status tea.Cmd
	if m.sel.Truncated() {
		status = m.setStatus("Shortened to "+timeofday.Label(start, end)+", the next slot is taken", true)
	}
	m.setMode(ModeForm, "selection committed")
	cmd := tea.Batch(status, m.form.open(m.room().Name, start, end))
	return m, cmd
}

func (m Model) slotUnavailableMessage(i int) string {
	if i < 0 || i >= len(m.slots) {
		return "Nothing to select"
	}
	s := m.slots[i]
	switch {
	case s.Busy:
		if b := m.bookingByID(s.OccupyingBookingID); b != nil {
			return fmt.Sprintf("%s is booked: %s", s.Label(), b.Title)
		}
		return s.Label() + " is booked"
	case s.PastCutoff:
		return s.Label() + " has already started"
	default:
		return s.Label() + " cannot be selected"
	}
}

// handleFormKeys handles keys while the booking form is open.
func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sel.Cancel()
		m.form.close()
		m.setMode(ModeNormal, "form cancelled")
		return m, nil
	case "tab", "down":
		cmd := m.form.move(1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.form.move(-1)
		return m, cmd
	case "enter":
		return m.submitForm()
	}
	cmd := m.form.update(msg)
	return m, cmd
}

// submitForm consumes the committed selection and stores the booking.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	title := m.form.titleValue()
	if title == "" {
		cmd := m.setStatus("Title is required", true)
		return m, cmd
	}
	grid := m.sel.Grid()
	selected, err := m.sel.Consume()
	if err != nil {
		m.setMode(ModeNormal, "nothing to consume")
		cmd := m.setStatus("Error: "+err.Error(), true)
		return m, cmd
	}
	LogSelection(m.sel, "consume")
	m.form.close()
	m.setMode(ModeNormal, "form submitted")

	return m, commands.SubmitBooking(m.repo, request.Input{
		Selected:    selected,
		Grid:        grid,
		Room:        m.room(),
		Day:         m.day,
		Title:       title,
		Description: m.form.descriptionValue(),
		UserID:      m.config.Booking.UserID,
	})
}

// confirmCancel asks before cancelling the booking under the cursor.
func (m Model) confirmCancel() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.slots) || !m.slots[m.cursor].Busy {
		cmd := m.setStatus("No booking here", true)
		return m, cmd
	}
	m.sel.Cancel()
	m.cancelID = m.slots[m.cursor].OccupyingBookingID
	m.setMode(ModeConfirmCancel, "cancel requested")
	return m, nil
}

// handleConfirmKeys handles keys in the cancel confirmation.
func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		id := m.cancelID
		m.cancelID = ""
		m.setMode(ModeNormal, "cancel confirmed")
		return m, commands.CancelBooking(m.repo, id)
	case "n", "N", "esc", "q":
		m.cancelID = ""
		m.setMode(ModeNormal, "cancel aborted")
	}
	return m, nil
}

// copySummary copies the selected range, or the day's free ranges, to the
// clipboard.
func (m Model) copySummary() (tea.Model, tea.Cmd) {
	r := m.room()
	if r == nil {
		return m, nil
	}
	var text string
	if start, end, ok := m.sel.Range(); ok {
		text = fmt.Sprintf("%s %s %s", r.Name, m.day.Format("2006-01-02"), timeofday.Label(start, end))
	} else {
		text = freeSummary(r.Name, m.day.Format("Mon 2006-01-02"), m.slots)
	}
	if err := clipboardWrite(text); err != nil {
		cmd := m.setStatus("Clipboard unavailable: "+err.Error(), true)
		return m, cmd
	}
	cmd := m.setStatus("Copied: "+text, false)
	return m, cmd
}

// freeSummary renders "Orion Mon 2030-01-07 free: 09:00-10:00, 11:00-12:00".
func freeSummary(room, day string, slots []slotgrid.Slot) string {
	runs := slotgrid.NewIndex(slots).FreeRuns()
	if len(runs) == 0 {
		return fmt.Sprintf("%s %s: fully booked", room, day)
	}
	labels := make([]string, len(runs))
	for i, run := range runs {
		labels[i] = timeofday.Label(run.StartMinutes, run.EndMinutes)
	}
	return fmt.Sprintf("%s %s free: %s", room, day, strings.Join(labels, ", "))
}
