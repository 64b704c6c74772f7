// Package ui provides terminal rendering helpers for the td CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/taskdock/taskdock/internal/types"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

// colorEnabled reports whether the environment supports colored output.
func colorEnabled() bool {
	return termenv.EnvColorProfile() != termenv.Ascii
}

func render(style lipgloss.Style, s string) string {
	if !colorEnabled() {
		return s
	}
	return style.Render(s)
}

// RenderPass renders a success marker.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn renders a warning marker.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderFail renders a failure marker.
func RenderFail(s string) string { return render(failStyle, s) }

// RenderAccent renders an informational highlight.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderDim renders de-emphasized text.
func RenderDim(s string) string { return render(dimStyle, s) }

// RenderBold renders emphasized text.
func RenderBold(s string) string { return render(boldStyle, s) }

// RenderStatus renders a task status with its conventional color.
func RenderStatus(s types.Status) string {
	switch s {
	case types.StatusDone:
		return RenderPass(string(s))
	case types.StatusInProgress:
		return RenderAccent(string(s))
	default:
		return string(s)
	}
}

// RenderPriority renders a task priority with its conventional color.
func RenderPriority(p types.Priority) string {
	switch p {
	case types.PriorityHigh:
		return RenderFail(string(p))
	case types.PriorityLow:
		return RenderDim(string(p))
	default:
		return string(p)
	}
}

// Width returns the terminal width, or a default when stdout is not a
// terminal.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// Truncate cuts s to at most width visible cells. Escape sequences and
// multibyte runes are never split, so styled text stays intact.
func Truncate(s string, width int) string {
	return ansi.Truncate(s, width, "")
}
