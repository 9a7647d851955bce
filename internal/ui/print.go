package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// PrintCommandHeader prints a styled command header
func PrintCommandHeader(title, command string, params ...Detail) {
	header := NewHeader(title, command, params...)
	fmt.Fprintln(Output, header.Render())
	fmt.Fprintln(Output)
}

// PrintSuccess prints a styled success result
func PrintSuccess(title string, details ...Detail) {
	result := NewSuccessResult(title, details...)
	fmt.Fprintln(Output)
	fmt.Fprintln(Output, result.Render())
}

// PrintFailure prints a styled failure result
func PrintFailure(title string, err error, troubleshooting []string) {
	result := NewFailureResult(title, err, troubleshooting)
	fmt.Fprintln(Output)
	fmt.Fprintln(Output, result.Render())
}

// PrintWarning prints a styled warning result listing each note
func PrintWarning(title string, notes []string) {
	result := NewWarningResult(title, notes)
	fmt.Fprintln(Output)
	fmt.Fprintln(Output, result.Render())
}

// PrintPleaseWait prints a styled "please wait" line for operations that block,
// e.g. PrintPleaseWait("Scanning for relays", "5s").
func PrintPleaseWait(message string, durationHint string) {
	style := lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Bold(true).
		PaddingLeft(2)

	hintStyle := lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	line := style.Render(message)
	if durationHint != "" {
		line += " " + hintStyle.Render("("+durationHint+")")
	}
	line += style.Render("...")

	fmt.Fprintln(Output, line)
}
