package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette, one colour per severity tier
var (
	Primary  = lipgloss.Color("#8B5CF6") // Vivid Purple
	Ok       = lipgloss.Color("#22C55E") // Green
	Watch    = lipgloss.Color("#EAB308") // Amber
	Warning  = lipgloss.Color("#F97316") // Orange
	Critical = lipgloss.Color("#F43F5E") // Rose
	Text     = lipgloss.Color("#F8FAFC") // White
	TextDim  = lipgloss.Color("#94A3B8") // Slate
	Border   = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// Severity badges
var (
	OkBadge = lipgloss.NewStyle().
		Foreground(Ok).
		Bold(true)

	WatchBadge = lipgloss.NewStyle().
			Foreground(Watch).
			Bold(true)

	WarningBadge = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	CriticalBadge = lipgloss.NewStyle().
			Foreground(Critical).
			Bold(true).
			Underline(true)
)
