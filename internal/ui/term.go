package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Free slots: green, bookable
	colorFree = color.New(color.FgGreen)

	// Busy slots: red
	colorBusy = color.New(color.FgRed, color.Bold)

	// Past slots and cancelled bookings
	colorPast = color.New(color.FgWhite, color.Faint)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats: cyan for occupancy figures
	colorStats = color.New(color.FgCyan)

	// Warnings: yellow, e.g. a truncated selection
	colorWarn = color.New(color.FgYellow)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatFree(s string) string {
	return colorFree.Sprint(s)
}

func formatBusy(s string) string {
	return colorBusy.Sprint(s)
}

func formatPast(s string) string {
	return colorPast.Sprint(s)
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatStats formats text for statistics.
func formatStats(s string) string {
	return colorStats.Sprint(s)
}

func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}
