package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

var welcomeTips = []string{
	"Strict Q&A: answers come verbatim from the dataset.",
	"  • Ask a question and press Enter",
	"  • Type quit, exit, end, or bye to close the session",
	"  • Up/Down arrows navigate question history",
	"  • Ctrl+D exits without a farewell turn",
}

// RenderWelcomeTips returns the styled welcome block.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	_, _ = b.WriteString(s.Header.Render("strictqa"))
	_, _ = b.WriteString("\n\n")
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tips.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
