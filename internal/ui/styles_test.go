package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/weekplan/internal/task"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestStyles(t *testing.T) {
	// Force color profile for testing
	lipgloss.SetColorProfile(termenv.ANSI256)

	// Verify critical styles are defined and return something
	assert.NotNil(t, StyleTitle)
	assert.NotNil(t, StyleSuccess)

	out := StyleSuccess.Render("Test")
	assert.Contains(t, out, "Test")
	// Verify ANSI codes are present
	assert.NotEqual(t, "Test", out, "Style should add ANSI codes when forced")
}

func TestIcon(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)

	icon := "X"
	out := Icon(icon, StyleError)
	assert.Contains(t, out, icon)
	assert.NotEqual(t, icon, out)
}

func TestUrgencyStyle(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)

	assert.NotEqual(t, "OVERDUE", UrgencyStyle(task.UrgencyOverdue).Render("OVERDUE"))
	assert.NotEqual(t, "URGENT", UrgencyStyle(task.UrgencyUrgent).Render("URGENT"))
	assert.Equal(t, StyleText.Render("x"), UrgencyStyle(task.UrgencyNone).Render("x"))
	assert.Equal(t, StyleText.Render("x"), UrgencyStyle(task.UrgencyNormal).Render("x"))
}

func TestPriorityStyle(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)

	assert.Equal(t, StylePriorityHigh.Render("high"), PriorityStyle(task.PriorityHigh).Render("high"))
	assert.Equal(t, StylePriorityLow.Render("?"), PriorityStyle(task.Priority("?")).Render("?"))
}

func TestConfigureColor_Plain(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	ConfigureColor(true)

	assert.Equal(t, "plain", StyleError.Render("plain"))
}
