package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type confirmKeys struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Submit key.Binding
	Cancel key.Binding
}

var defaultConfirmKeys = confirmKeys{
	Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:     key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
	Cancel: key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("esc", "cancel")),
}

type confirmModel struct {
	prompt   string
	choice   bool
	done     bool
	canceled bool
	keys     confirmKeys
}

func newConfirmModel(prompt string, defaultYes bool) confirmModel {
	return confirmModel{prompt: prompt, choice: defaultYes, keys: defaultConfirmKeys}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Cancel):
		m.canceled = true
		m.choice = false
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Yes):
		m.choice = true
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.No):
		m.choice = false
		m.done = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Toggle):
		m.choice = !m.choice
	case key.Matches(keyMsg, m.keys.Submit):
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.choice {
			answer = "yes"
		}
		return m.prompt + " " + dimStyle.Render(answer) + "\n"
	}

	yes, no := dimStyle.Render("yes"), dimStyle.Render("no")
	if m.choice {
		yes = highlightStyle.Render("[yes]")
	} else {
		no = highlightStyle.Render("[no]")
	}

	help := helpStyle.Render(fmt.Sprintf("%s %s • %s %s • %s %s",
		m.keys.Yes.Help().Key, m.keys.Yes.Help().Desc,
		m.keys.No.Help().Key, m.keys.No.Help().Desc,
		m.keys.Cancel.Help().Key, m.keys.Cancel.Help().Desc))

	return m.prompt + "  " + yes + " " + no + "\n" + help + "\n"
}

// Confirm asks a yes/no question on the terminal. Canceling counts as no.
func Confirm(prompt string, defaultYes bool, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(newConfirmModel(prompt, defaultYes), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("running prompt: %w", err)
	}

	m := final.(confirmModel)
	return m.choice && !m.canceled, nil
}
