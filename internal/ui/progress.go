package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressLabelStyle is for the label in front of a progress bar
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(PrimaryColor).
	Bold(true).
	PaddingLeft(2)

// FrameProgress shows how many frames of a send have been written.
// On a terminal the line is redrawn in place; elsewhere Update prints nothing.
type FrameProgress struct {
	Label string
	Total int
	live  bool
	bar   progress.Model
}

// NewFrameProgress creates a progress line for total frames
func NewFrameProgress(label string, total int) *FrameProgress {
	f, ok := Output.(*os.File)
	return &FrameProgress{
		Label: label,
		Total: total,
		live:  ok && IsTerminal(f),
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(barWidth(GetTerminalWidth())),
		),
	}
}

func barWidth(width int) int {
	w := width - 40
	if w < 20 {
		return 20
	}
	if w > 50 {
		return 50
	}
	return w
}

// Render returns the progress line after sent frames
func (p *FrameProgress) Render(sent int) string {
	percent := 0.0
	if p.Total > 0 {
		percent = float64(sent) / float64(p.Total)
	}
	return fmt.Sprintf("%s  %s  [%d/%d]", ProgressLabelStyle.Render(p.Label), p.bar.ViewAs(percent), sent, p.Total)
}

// Update redraws the line. It matches transport.ProgressFunc.
func (p *FrameProgress) Update(sent, total int) {
	p.Total = total
	if !p.live {
		return
	}
	fmt.Fprint(Output, "\r"+p.Render(sent))
	if sent == total {
		fmt.Fprintln(Output)
	}
}
