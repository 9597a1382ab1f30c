// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

// Package tui holds the terminal presentation of the tdeploy CLI: styles,
// the stage spinner and interactive prompts.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// warningStyle for size and fee warnings (orange/yellow)
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
)

// Title renders a section heading.
func Title(s string) string { return titleStyle.Render(s) }

// Success renders a completion message.
func Success(s string) string { return successStyle.Render(s) }

// Warning renders a warning line prefixed with "Warning:".
func Warning(s string) string { return warningStyle.Render("Warning:") + " " + s }

// Error renders an error line prefixed with "Error:".
func Error(s string) string { return errorStyle.Render("Error:") + " " + s }

// Value highlights an address, hash or amount.
func Value(s string) string { return valueStyle.Render(s) }

// Row is one label/value line of a summary.
type Row struct {
	Label string
	Value string
}

// Summary renders rows as an aligned two-column block.
func Summary(rows ...Row) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Label))
	}
	var b strings.Builder
	for _, r := range rows {
		label := fmt.Sprintf("%-*s", width+1, r.Label+":")
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(label))
		b.WriteString(" ")
		b.WriteString(valueStyle.Render(r.Value))
		b.WriteString("\n")
	}
	return b.String()
}
