// Package ui renders tasks and weekly plans for the terminal.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/muesli/termenv"
)

var (
	// Colors
	ColorPrimary   = lipgloss.Color("205") // Pink
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange/Yellow
	ColorText      = lipgloss.Color("252") // White/Gray
	ColorCyan      = lipgloss.Color("87")

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleDayTitle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Underline(true)

	// Urgency markers
	StyleOverdue = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleUrgent  = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleSoon    = lipgloss.NewStyle().Foreground(ColorCyan)

	// Priority markers
	StylePriorityHigh   = lipgloss.NewStyle().Foreground(ColorError)
	StylePriorityMedium = lipgloss.NewStyle().Foreground(ColorWarning)
	StylePriorityLow    = lipgloss.NewStyle().Foreground(ColorSecondary)
)

// Icon returns a styled icon string
func Icon(icon string, style lipgloss.Style) string {
	return style.Render(icon)
}

// ConfigureColor disables styling when stdout is not a terminal, NO_COLOR is
// set, or the caller asks for plain output.
func ConfigureColor(plain bool) {
	if plain || os.Getenv("NO_COLOR") != "" || !IsInteractive() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// UrgencyStyle returns the style for an urgency tier. Tiers without a marker
// render as plain text.
func UrgencyStyle(u task.Urgency) lipgloss.Style {
	switch u {
	case task.UrgencyOverdue:
		return StyleOverdue
	case task.UrgencyUrgent:
		return StyleUrgent
	case task.UrgencySoon:
		return StyleSoon
	default:
		return StyleText
	}
}

// PriorityStyle returns the style for a priority.
func PriorityStyle(p task.Priority) lipgloss.Style {
	switch p {
	case task.PriorityHigh:
		return StylePriorityHigh
	case task.PriorityMedium:
		return StylePriorityMedium
	default:
		return StylePriorityLow
	}
}
