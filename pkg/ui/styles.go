// Package ui renders catalog, diff and transaction output for the
// terminal. Styles use semantic names and adaptive colors so the same
// palette works on light and dark themes.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	colorError   = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorWarning = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "243", Dark: "245"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "26", Dark: "39"}
)

var (
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleActive   = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	styleName     = lipgloss.NewStyle().Foreground(colorAccent)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleAdded    = lipgloss.NewStyle().Foreground(colorSuccess)
	styleRemoved  = lipgloss.NewStyle().Foreground(colorError)
	styleModified = lipgloss.NewStyle().Foreground(colorWarning)
	styleIssue    = lipgloss.NewStyle().Foreground(colorError)
	styleRisk     = lipgloss.NewStyle().Foreground(colorWarning)
	styleDryRun   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)
