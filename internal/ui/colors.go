package ui

import "github.com/charmbracelet/lipgloss"

// Palette holds the lipgloss styles shared by the renderers.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette() Palette {
	return Palette{
		title: NewBold("205"),
		ok:    NewStyle("42"),
		err:   NewStyle("196"),
		warn:  NewStyle("214"),
		help:  NewStyle("241"),
	}
}

// NewStyle creates a foreground color style from an ANSI color code.
func NewStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// NewBold creates a bold foreground color style from an ANSI color code.
func NewBold(color string) lipgloss.Style {
	return NewStyle(color).Bold(true)
}
