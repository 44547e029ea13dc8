package tui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/dateutil"
	"github.com/javiermolinar/meetin/internal/request"
	"github.com/javiermolinar/meetin/internal/selection"
	"github.com/javiermolinar/meetin/internal/timeofday"
	"github.com/javiermolinar/meetin/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case commands.RoomsLoadedMsg:
		var current string
		if r := m.room(); r != nil {
			current = r.ID
		}
		m.rooms = msg.Rooms
		m.roomIdx = 0
		for i, r := range m.rooms {
			if r.ID == current {
				m.roomIdx = i
			}
		}
		if len(m.rooms) == 0 {
			m.loading = false
			m.stopWatch()
			m.rebuild()
			return m, nil
		}
		cmd := m.loadDay()
		return m, cmd

	case commands.DayLoadedMsg:
		r := m.room()
		if r == nil || msg.RoomID != r.ID || !dateutil.SameDay(msg.Day, m.day) {
			// stale load for a room or day no longer shown
			return m, nil
		}
		m.bookings = msg.Bookings
		m.loading = false
		dropped := m.rebuild()
		if m.focusNext {
			m.focusNext = false
			m.focusFirstFree()
		}
		if dropped {
			if m.mode == ModeForm {
				m.form.close()
				m.setMode(ModeNormal, "selection taken")
			}
			cmd := m.setStatus("Bookings changed, selection cleared", true)
			return m, cmd
		}
		return m, nil

	case commands.BookingCreatedMsg:
		b := msg.Booking
		cmd := m.setStatus(fmt.Sprintf("Booked %s %s", timeofday.Label(b.StartMinutes, b.EndMinutes), b.Title), false)
		cmd = tea.Batch(cmd, m.loadDay())
		return m, cmd

	case commands.BookingCancelledMsg:
		cmd := m.setStatus("Cancelled booking "+shortID(msg.ID), false)
		cmd = tea.Batch(cmd, m.loadDay())
		return m, cmd

	case commands.WatchStartedMsg:
		if msg.RoomID != m.watchRoom {
			msg.Cancel()
			return m, nil
		}
		m.watchCancel = msg.Cancel
		return m, commands.WaitForEvent(msg.RoomID, msg.Events)

	case commands.RoomEventMsg:
		e := msg.Event
		LogEvent(e.Type, e.RoomID, e.BookingID)
		if e.RoomID != m.watchRoom {
			return m, nil
		}
		next := commands.WaitForEvent(e.RoomID, msg.Events)
		if !e.Date.IsZero() && !dateutil.SameDay(e.Date, m.day) {
			return m, next
		}
		r := m.room()
		return m, tea.Batch(next, commands.LoadDay(m.repo, r.ID, m.day))

	case commands.WatchEndedMsg:
		if msg.RoomID == m.watchRoom {
			m.watchCancel = nil
			m.watchRoom = ""
			cmd := m.setStatus("Live updates stopped", true)
			return m, cmd
		}
		return m, nil

	case commands.ErrMsg:
		return m.handleError(msg.Err)

	case commands.StatusMsgCmd:
		cmd := m.setStatus(msg.Msg, false)
		return m, cmd

	case commands.ClearStatusMsg:
		if !time.Now().Before(m.statusTime) {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil

	case minuteTickMsg:
		// A slot starting now would drop a selection that holds it.
		if m.mode == ModeNormal && m.sel.State() == selection.Idle {
			m.rebuild()
		}
		return m, tickMinute()
	}

	if m.mode == ModeForm {
		cmd := m.form.update(msg)
		return m, cmd
	}
	return m, nil
}

// handleError shows err and, when the store rejected a booking because the
// day changed underneath, reloads it.
func (m Model) handleError(err error) (tea.Model, tea.Cmd) {
	LogError("command failed", err)
	m.loading = false
	cmd := m.setStatus("Error: "+err.Error(), true)

	var conflict *request.ConflictError
	if errors.As(err, &conflict) {
		cmd = m.setStatus(fmt.Sprintf("%s was just booked, pick another range",
			timeofday.Label(conflict.StartMinutes, conflict.EndMinutes)), true)
	}
	if errors.Is(err, request.ErrSlotNoLongerAvailable) || errors.Is(err, booking.ErrOverlap) {
		cmd = tea.Batch(cmd, m.loadDay())
		return m, cmd
	}
	return m, cmd
}
