package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/meetin/internal/timeofday"
)

const (
	formTitle = iota
	formDescription
	formFields
)

const formWidth = 44

// bookingForm collects the title and description of a new booking.
type bookingForm struct {
	title       textinput.Model
	description textinput.Model
	focus       int

	// Range being booked, for the heading.
	room       string
	start, end int
}

func newBookingForm(styles *Styles) bookingForm {
	newInput := func(placeholder string, limit int) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = limit
		ti.Width = formWidth - 4
		ti.Prompt = ""
		ti.PlaceholderStyle = styles.ModalPlaceholderStyle
		ti.TextStyle = styles.ModalInputTextStyle
		ti.PromptStyle = styles.ModalInputTextStyle
		ti.Cursor.Style = styles.ModalInputCursorStyle
		ti.Cursor.TextStyle = styles.ModalInputTextStyle
		return ti
	}
	return bookingForm{
		title:       newInput("Meeting title", 120),
		description: newInput("Description (optional)", 256),
	}
}

// open resets the form for the range [start, end) of room.
func (f *bookingForm) open(room string, start, end int) tea.Cmd {
	f.room = room
	f.start, f.end = start, end
	f.title.SetValue("")
	f.description.SetValue("")
	f.focus = formTitle
	f.description.Blur()
	return tea.Batch(f.title.Focus(), textinput.Blink)
}

func (f *bookingForm) close() {
	f.title.Blur()
	f.description.Blur()
}

// move shifts focus by delta fields, wrapping around.
func (f *bookingForm) move(delta int) tea.Cmd {
	f.focus = ((f.focus+delta)%formFields + formFields) % formFields
	if f.focus == formTitle {
		f.description.Blur()
		return f.title.Focus()
	}
	f.title.Blur()
	return f.description.Focus()
}

// update forwards msg to the focused input.
func (f *bookingForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == formTitle {
		f.title, cmd = f.title.Update(msg)
	} else {
		f.description, cmd = f.description.Update(msg)
	}
	return cmd
}

func (f bookingForm) titleValue() string {
	return strings.TrimSpace(f.title.Value())
}

func (f bookingForm) descriptionValue() string {
	return strings.TrimSpace(f.description.Value())
}

func (f bookingForm) render(s *Styles) string {
	label := func(field int, text string) string {
		if f.focus == field {
			return s.ModalLabelFocused.Render("▸ " + text)
		}
		return s.ModalLabelStyle.Render("  " + text)
	}
	heading := fmt.Sprintf("Book %s  %s (%s)",
		f.room, timeofday.Label(f.start, f.end), timeofday.DurationLabel(f.end-f.start))

	body := lipgloss.JoinVertical(lipgloss.Left,
		s.ModalTitleStyle.Render(heading),
		"",
		label(formTitle, "Title"),
		"  "+f.title.View(),
		"",
		label(formDescription, "Description"),
		"  "+f.description.View(),
		"",
		s.ModalHintStyle.Render("enter save · tab next field · esc cancel"),
	)
	return s.ModalStyle.Width(formWidth).Render(body)
}
