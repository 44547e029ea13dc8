package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// PlaceBox renders content in a lipgloss.Place box with background fill.
func PlaceBox(w, h int, vAlign lipgloss.Position, content string, bg lipgloss.Color) string {
	placed := lipgloss.Place(
		w,
		h,
		lipgloss.Left,
		vAlign,
		content,
		lipgloss.WithWhitespaceBackground(bg),
	)
	return PadLines(placed, w, h, bg)
}

// PadLines pads content to width/height with a background color and drops
// lines past height.
func PadLines(content string, width, height int, bg lipgloss.Color) string {
	if width <= 0 || height <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]

	pad := lipgloss.NewStyle().Background(bg)
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + pad.Render(strings.Repeat(" ", width-w))
		}
	}
	return strings.Join(lines, "\n")
}

// Fit truncates s to width display cells, keeping escape sequences intact,
// and pads it with spaces when shorter.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = ansi.Truncate(s, width, "…")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// Overlay centers box over base, which is width x height cells.
func Overlay(base, box string, width, height int) string {
	boxLines := strings.Split(box, "\n")
	boxW := 0
	for _, line := range boxLines {
		boxW = max(boxW, ansi.StringWidth(line))
	}
	if boxW == 0 {
		return base
	}
	boxW = min(boxW, width)

	top := max(0, (height-len(boxLines))/2)
	left := max(0, (width-boxW)/2)

	lines := strings.Split(base, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range boxLines {
		row := top + i
		if row >= len(lines) {
			break
		}
		under := Fit(lines[row], width)
		lines[row] = ansi.Cut(under, 0, left) + ansi.ResetStyle +
			Fit(line, boxW) + ansi.ResetStyle +
			ansi.Cut(under, left+boxW, width)
	}
	return strings.Join(lines, "\n")
}
