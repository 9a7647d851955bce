package ui

import (
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errInterrupted = errors.New("interrupted")

type doneMsg struct{ err error }

// spinnerModel spins until its task finishes, then quits.
type spinnerModel struct {
	label   string
	spinner spinner.Model
	task    func() error
	err     error
	done    bool
}

func newSpinnerModel(label string, task func() error) spinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(PrimaryColor)),
	)
	return spinnerModel{label: label, spinner: s, task: task}
}

// Init implements tea.Model
func (m spinnerModel) Init() tea.Cmd {
	task := m.task
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return doneMsg{err: task()}
	})
}

// Update implements tea.Model
func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return "  " + m.spinner.View() + " " + ProgressLabelStyle.UnsetPaddingLeft().Render(m.label) + "\n"
}

// RunWithSpinner runs task while a spinner shows label. Without a terminal
// on Output it prints a plain wait line and runs task directly.
func RunWithSpinner(label, hint string, task func() error) error {
	f, ok := Output.(*os.File)
	if !ok || !IsTerminal(f) {
		PrintPleaseWait(label, hint)
		return task()
	}

	p := tea.NewProgram(newSpinnerModel(label, task), tea.WithOutput(f), tea.WithInput(nil))
	final, err := p.Run()
	if err != nil {
		return err
	}
	m := final.(spinnerModel)
	if !m.done {
		return errInterrupted
	}
	return m.err
}
