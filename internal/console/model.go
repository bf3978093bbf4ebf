// Package console is the terminal operator console: a small bubbletea menu
// over the same service the web dashboard uses.
package console

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/auction/internal/core"
)

// Model is the bubbletea model for the console.
type Model struct {
	service *core.Service

	menu   *Menu
	cursor int

	panel  PanelMsg
	status string
	err    error
}

// New builds the console model over svc.
func New(svc *core.Service) *Model {
	m := &Model{service: svc}
	m.menu = buildMenuTree(m)
	return m
}

// Run starts the console on the current terminal and blocks until quit.
func Run(svc *core.Service, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(New(svc), opts...).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case PanelMsg:
		m.panel = msg
		m.err = nil
	case DoneMsg:
		m.status = string(msg)
		m.err = nil
	case ErrMsg:
		m.err = msg.Err
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.open(m.menu.Parent)
		}
	case "enter", " ":
		item := m.menu.Items[m.cursor]
		if item.Submenu != nil {
			m.open(item.Submenu)
			return m, nil
		}
		if item.Label == "Back" {
			// Back on the root menu has no parent.
			return m, nil
		}
		if item.Action != nil {
			m.status = ""
			return m, item.Action()
		}
	}
	return m, nil
}

func (m *Model) open(menu *Menu) {
	m.menu = menu
	m.cursor = 0
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.menu.Title)
	b.WriteString("\n\n")
	for i, item := range m.menu.Items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(cursor + item.Label + "\n")
	}

	if m.panel.Title != "" {
		fmt.Fprintf(&b, "\n-- %s --\n%s\n", m.panel.Title, m.panel.Body)
	}
	if m.err != nil {
		fmt.Fprintf(&b, "\nError: %s\n", core.FormatUserError(m.err))
	} else if m.status != "" {
		fmt.Fprintf(&b, "\n%s\n", m.status)
	}

	b.WriteString("\n↑/↓ move • enter select • esc back • q quit\n")
	return b.String()
}
