package view

import "github.com/charmbracelet/lipgloss"

// FooterViewState holds the strings needed to render the footer section.
type FooterViewState struct {
	InnerW     int
	StatsLine  string
	StatusLine string
	HelpLine   string
	Bg         lipgloss.Color
}

// FooterHeight is the number of lines RenderFooter produces.
const FooterHeight = 3

// RenderFooter renders stats, status, and help lines.
func RenderFooter(state FooterViewState) string {
	s := Fit(state.StatsLine, state.InnerW) + "\n" +
		Fit(state.StatusLine, state.InnerW) + "\n" +
		Fit(state.HelpLine, state.InnerW)
	return PlaceBox(state.InnerW, FooterHeight, lipgloss.Bottom, s, state.Bg)
}
