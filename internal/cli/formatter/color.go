package formatter

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StreakPill returns a colored indicator such as "● AT RISK".
func StreakPill(status domain.StreakStatus) string {
	switch status {
	case domain.StreakActive:
		return StyleGreen.Render("● ACTIVE")
	case domain.StreakAtRisk:
		return StyleYellow.Render("● AT RISK")
	case domain.StreakExpired:
		return StyleRed.Render("● EXPIRED")
	default:
		return StyleDim.Render("● UNKNOWN")
	}
}

// StatePill renders the timer state.
func StatePill(state domain.ExecutionState) string {
	switch state {
	case domain.StateRunning:
		return StyleGreen.Render("▶ Running")
	case domain.StatePaused:
		return StyleYellow.Render("⏸ Paused")
	default:
		return StyleDim.Render("■ Idle")
	}
}

// KindBadge labels a work item as task or habit, with the habit frequency.
func KindBadge(w *domain.WorkItem) string {
	if w.IsHabit() {
		return StylePurple.Render("habit/" + string(w.Frequency))
	}
	return StyleBlue.Render("task")
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
