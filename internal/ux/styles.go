// Package ux renders console output: log lines, the startup banner and the
// status view.
package ux

import "github.com/charmbracelet/lipgloss"

var (
	dimStyle    = lipgloss.NewStyle().Faint(true)
	boldStyle   = lipgloss.NewStyle().Bold(true)
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	cyanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Red renders s in red, for fatal errors printed by main.
func Red(s string) string {
	return redStyle.Render(s)
}

// Green renders s in green, for success lines.
func Green(s string) string {
	return greenStyle.Render(s)
}

// Yellow renders s in yellow, for warnings and hints.
func Yellow(s string) string {
	return yellowStyle.Render(s)
}

// Cyan renders s in cyan, for paths and commands.
func Cyan(s string) string {
	return cyanStyle.Render(s)
}

// Bold renders s in bold.
func Bold(s string) string {
	return boldStyle.Render(s)
}

// Dim renders s faint.
func Dim(s string) string {
	return dimStyle.Render(s)
}
