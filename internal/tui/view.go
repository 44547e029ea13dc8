package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/selection"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
	"github.com/javiermolinar/meetin/internal/tui/view"
)

const footerLines = view.FooterHeight

// View renders the TUI.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading..."
	}

	title := m.styles.TitleStyle.Render(view.Fit(m.headerLabel(), m.width-2))
	grid := view.PlaceBox(m.width, m.gridHeight(), lipgloss.Top, m.renderGrid(), m.styles.colorBg)
	footer := view.RenderFooter(view.FooterViewState{
		InnerW:     m.width,
		StatsLine:  m.styles.StatsBarStyle.Render(view.Fit(m.statsLine(), m.width)),
		StatusLine: m.renderStatus(),
		HelpLine:   m.styles.HelpStyle.Render(view.Fit(m.helpLine(), m.width)),
		Bg:         m.styles.colorBg,
	})
	blank := view.PadLines("", m.width, 1, m.styles.colorBg)

	base := lipgloss.JoinVertical(lipgloss.Left, title, blank, grid, footer)
	base = view.PadLines(base, m.width, m.height, m.styles.colorBg)

	switch m.mode {
	case ModeForm:
		return view.Overlay(base, m.form.render(m.styles), m.width, m.height)
	case ModeConfirmCancel:
		return view.Overlay(base, m.renderConfirm(), m.width, m.height)
	}
	return base
}

func (m Model) headerLabel() string {
	state := view.HeaderState{
		RoomIndex: m.roomIdx,
		RoomCount: len(m.rooms),
		Day:       m.day,
		Today:     m.now(),
		Live:      m.watchCancel != nil,
	}
	if r := m.room(); r != nil {
		state.RoomName = r.Name
		state.Hours = r.Hours()
		if !r.Active {
			state.Hours += " (disabled)"
		}
	}
	return view.HeaderLabel(state)
}

func (m Model) renderGrid() string {
	switch {
	case len(m.rooms) == 0:
		return m.styles.HelpStyle.Render("  meetin room add Orion --open 08:00 --close 18:00")
	case m.gridErr != nil:
		return m.styles.ErrorStyle.Render("  " + m.gridErr.Error())
	case len(m.slots) == 0 && m.loading:
		return m.styles.HelpStyle.Render("  Loading...")
	}

	ordinals := m.bookingOrdinals()
	cellW := max(1, m.width-labelWidth-2)

	end := min(len(m.slots), m.scrollOffset+m.gridHeight())
	rows := make([]string, 0, end-m.scrollOffset)
	for i := m.scrollOffset; i < end; i++ {
		rows = append(rows, m.renderSlotRow(i, cellW, ordinals))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderSlotRow(i, cellW int, ordinals map[string]int) string {
	s := m.slots[i]

	labelStyle := m.styles.TimeColumnStyle
	if i == m.cursor {
		labelStyle = m.styles.TimeColumnCursorStyle
	}
	label := labelStyle.Render(s.Label())

	text, style := m.slotCell(i, ordinals)
	marker := "  "
	if i == m.cursor {
		marker = "▸ "
	}
	return label + style.Render(view.Fit(marker+text, cellW))
}

// slotCell picks the text and style of slot i. The selection wins over the
// slot's own state; busy slots alternate shades per booking.
func (m Model) slotCell(i int, ordinals map[string]int) (string, lipgloss.Style) {
	s := m.slots[i]
	st := m.styles

	if m.sel.Contains(i) {
		if start, end, ok := m.sel.Range(); ok && i == m.sel.Selected()[0] {
			return fmt.Sprintf("%s  %s", timeofday.Label(start, end), timeofday.DurationLabel(end-start)), st.SlotSelectedStyle
		}
		return "", st.SlotSelectedStyle
	}
	if m.sel.State() != selection.Idle && m.sel.Truncated() && i == m.sel.Active() {
		return "✗ selection stops before the taken slot", st.SlotTruncatedStyle
	}

	switch {
	case s.Busy:
		text := "│"
		if i == 0 || m.slots[i-1].OccupyingBookingID != s.OccupyingBookingID {
			text = m.bookingText(s.OccupyingBookingID)
		}
		switch {
		case s.PastCutoff:
			return text, st.SlotBusyPastStyle
		case ordinals[s.OccupyingBookingID]%2 == 1:
			return text, st.SlotBusyAltStyle
		default:
			return text, st.SlotBusyStyle
		}
	case s.PastCutoff:
		return "·", st.SlotPastStyle
	default:
		if i == 0 || !m.slots[i-1].Selectable() {
			return "free", st.SlotFreeStyle
		}
		return "", st.SlotFreeStyle
	}
}

func (m Model) bookingText(id string) string {
	b := m.bookingByID(id)
	if b == nil {
		return "booked"
	}
	text := b.Title
	if b.UserID != "" {
		text += "  @" + b.UserID
	}
	return text
}

// bookingOrdinals numbers the bookings on the grid in order of appearance.
func (m Model) bookingOrdinals() map[string]int {
	ordinals := make(map[string]int)
	for _, s := range m.slots {
		if !s.Busy {
			continue
		}
		if _, ok := ordinals[s.OccupyingBookingID]; !ok {
			ordinals[s.OccupyingBookingID] = len(ordinals)
		}
	}
	return ordinals
}

func (m Model) bookingByID(id string) *booking.Booking {
	for _, b := range m.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// statsLine renders "Booked 2h 30m of 10h (25%) · 3 bookings · Free: 09:00-10:00".
func (m Model) statsLine() string {
	r := m.room()
	if r == nil {
		return ""
	}
	stats := booking.NewDay(r.ID, m.day, m.bookings).Stats(r)
	line := fmt.Sprintf("Booked %s of %s (%d%%) · %d bookings",
		view.FormatDuration(stats.BookedMinutes), view.FormatDuration(stats.OpenMinutes),
		stats.BookedPercent(), stats.LiveBookings)
	if stats.CancelledBookings > 0 {
		line += fmt.Sprintf(", %d cancelled", stats.CancelledBookings)
	}

	runs := slotgrid.NewIndex(m.slots).FreeRuns()
	if len(runs) == 0 {
		return line + " · No free slots"
	}
	labels := make([]string, len(runs))
	for i, run := range runs {
		labels[i] = timeofday.Label(run.StartMinutes, run.EndMinutes)
	}
	return line + " · Free: " + strings.Join(labels, ", ")
}

func (m Model) renderStatus() string {
	text := m.statusMsg
	style := m.styles.StatusStyle
	if m.statusErr {
		style = m.styles.ErrorStyle
	}
	if text == "" && m.sel.State() == selection.Selecting {
		if start, end, ok := m.sel.Range(); ok {
			text = fmt.Sprintf("Selecting %s (%s)", timeofday.Label(start, end), timeofday.DurationLabel(end-start))
		}
	}
	return style.Render(view.Fit(text, m.width))
}

func (m Model) helpLine() string {
	switch {
	case m.mode == ModeConfirmCancel:
		return "y confirm · n keep"
	case m.mode == ModeForm:
		return "enter save · tab next field · esc cancel"
	case m.sel.State() == selection.Selecting:
		return "j/k extend · space/enter book · esc cancel"
	default:
		return "j/k move · space select · enter book · x cancel · h/l day · t today · tab room · y copy · q quit"
	}
}

func (m Model) renderConfirm() string {
	st := m.styles
	text := "Cancel this booking?"
	if b := m.bookingByID(m.cancelID); b != nil {
		text = fmt.Sprintf("Cancel %s %s?", timeofday.Label(b.StartMinutes, b.EndMinutes), b.Title)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		st.ModalTitleStyle.Render(text),
		"",
		st.ModalHintStyle.Render("y confirm · n keep"),
	)
	return st.ModalStyle.Render(body)
}

// shortID returns the first segment of a UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
