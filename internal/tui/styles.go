package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/meetin/internal/tui/theme"
)

// Width of the time label column ("09:00-09:30").
const labelWidth = 11

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	colorBg lipgloss.Color

	// Title bar
	TitleStyle     lipgloss.Style
	LiveBadgeStyle lipgloss.Style

	// Time column
	TimeColumnStyle       lipgloss.Style
	TimeColumnCursorStyle lipgloss.Style

	// Slot cells
	SlotFreeStyle      lipgloss.Style
	SlotBusyStyle      lipgloss.Style
	SlotBusyAltStyle   lipgloss.Style // alternate shade for adjacent bookings
	SlotBusyPastStyle  lipgloss.Style
	SlotPastStyle      lipgloss.Style
	SlotSelectedStyle  lipgloss.Style
	SlotTruncatedStyle lipgloss.Style // pointer beyond where the run stopped
	CursorStyle        lipgloss.Style

	// Footer
	StatsBarStyle lipgloss.Style
	StatusStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	HelpStyle     lipgloss.Style

	// Modal
	ModalStyle            lipgloss.Style
	ModalTitleStyle       lipgloss.Style
	ModalLabelStyle       lipgloss.Style
	ModalLabelFocused     lipgloss.Style
	ModalHintStyle        lipgloss.Style
	ModalInputTextStyle   lipgloss.Style
	ModalInputCursorStyle lipgloss.Style
	ModalPlaceholderStyle lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	s := &Styles{
		palette: p,
		colorBg: p.Bg,
	}

	base := lipgloss.NewStyle().Background(p.Bg).Foreground(p.Fg)

	s.TitleStyle = lipgloss.NewStyle().
		Background(p.Accent).
		Foreground(p.TextOnAccent).
		Bold(true).
		Padding(0, 1)
	s.LiveBadgeStyle = lipgloss.NewStyle().
		Background(p.Accent).
		Foreground(p.Free).
		Bold(true)

	s.TimeColumnStyle = base.
		Foreground(p.FgMuted).
		Width(labelWidth + 2).
		PaddingLeft(1)
	s.TimeColumnCursorStyle = s.TimeColumnStyle.
		Background(p.BgSelection).
		Foreground(p.Fg).
		Bold(true)

	s.SlotFreeStyle = lipgloss.NewStyle().
		Background(p.FreeBg).
		Foreground(p.Free)
	s.SlotBusyStyle = lipgloss.NewStyle().
		Background(p.BusyBg).
		Foreground(p.TextOnBusy)
	s.SlotBusyAltStyle = s.SlotBusyStyle.
		Background(p.BusyBgAlt)
	s.SlotBusyPastStyle = lipgloss.NewStyle().
		Background(p.BusyPastBg).
		Foreground(p.FgMuted)
	s.SlotPastStyle = lipgloss.NewStyle().
		Background(p.PastBg).
		Foreground(p.FgMuted).
		Faint(true)
	s.SlotSelectedStyle = lipgloss.NewStyle().
		Background(p.Selected).
		Foreground(p.TextOnSelected).
		Bold(true)
	s.SlotTruncatedStyle = lipgloss.NewStyle().
		Background(p.Warning).
		Foreground(p.TextOnWarning)
	s.CursorStyle = lipgloss.NewStyle().
		Background(p.BgSelection).
		Foreground(p.Accent).
		Bold(true)

	s.StatsBarStyle = base.Foreground(p.FgMuted)
	s.StatusStyle = base.Foreground(p.Accent)
	s.ErrorStyle = base.Foreground(p.Warning).Bold(true)
	s.HelpStyle = base.Foreground(p.FgMuted).Faint(true)

	m := p.Modal
	s.ModalStyle = lipgloss.NewStyle().
		Background(m.Bg).
		Foreground(m.Text).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.Border).
		BorderBackground(m.Bg).
		Padding(1, 2)
	s.ModalTitleStyle = lipgloss.NewStyle().
		Background(m.Bg).
		Foreground(m.Highlight).
		Bold(true)
	s.ModalLabelStyle = lipgloss.NewStyle().
		Background(m.Bg).
		Foreground(m.Muted)
	s.ModalLabelFocused = lipgloss.NewStyle().
		Background(m.Bg).
		Foreground(m.Highlight).
		Bold(true)
	s.ModalHintStyle = lipgloss.NewStyle().
		Background(m.Bg).
		Foreground(m.Muted).
		Faint(true)
	s.ModalInputTextStyle = lipgloss.NewStyle().
		Background(m.Bg).
		Foreground(m.Text)
	s.ModalInputCursorStyle = lipgloss.NewStyle().
		Background(m.Highlight).
		Foreground(m.ReverseText)
	s.ModalPlaceholderStyle = lipgloss.NewStyle().
		Background(m.Bg).
		Foreground(m.Muted)

	return s
}
