package console

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/core"
	"github.com/JonMunkholm/auction/internal/storage"
)

func newTestModel(t *testing.T) (*Model, *core.Service) {
	t.Helper()
	svc, err := core.NewService(context.Background(), storage.NewMemory(), core.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Intn:   func(int) int { return 0 },
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return New(svc), svc
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends keys in order and runs the last returned command, feeding
// its message back into the model.
func press(t *testing.T, m *Model, keys ...string) tea.Msg {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	if cmd == nil {
		return nil
	}
	msg := cmd()
	m.Update(msg)
	return msg
}

func TestLinkParents(t *testing.T) {
	m, _ := newTestModel(t)
	root := m.menu
	if root.Parent != nil {
		t.Fatal("root should have no parent")
	}
	for _, item := range root.Items {
		if item.Submenu == nil {
			continue
		}
		if item.Submenu.Parent != root {
			t.Errorf("%s parent not linked", item.Label)
		}
		last := item.Submenu.Items[len(item.Submenu.Items)-1]
		if last.Label != "Back" || last.Submenu != root {
			t.Errorf("%s Back item = %+v", item.Label, last)
		}
	}
}

func TestSummaryPanel(t *testing.T) {
	m, _ := newTestModel(t)
	msg := press(t, m, "enter")
	panel, ok := msg.(PanelMsg)
	if !ok {
		t.Fatalf("msg = %T, want PanelMsg", msg)
	}
	if !strings.Contains(panel.Body, "Players:     20") || !strings.Contains(m.View(), "-- Summary --") {
		t.Errorf("view = %q", m.View())
	}
}

func TestBudgetsShowOverBudget(t *testing.T) {
	m, svc := newTestModel(t)
	if _, err := svc.Dispatch(context.Background(), auction.Assign{PlayerID: 1, TeamID: 3, Price: 1500}); err != nil {
		t.Fatal(err)
	}
	press(t, m, "down", "enter")
	view := m.View()
	if !strings.Contains(view, "Team Green") || !strings.Contains(view, "OVER") {
		t.Errorf("view = %q", view)
	}
}

func TestUnsoldSubmenu(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "down", "down", "enter")
	if m.menu.Title != "Unsold pool" {
		t.Fatalf("menu = %q", m.menu.Title)
	}

	press(t, m, "down", "down", "enter")
	if m.panel.Title != "Unsold pool (4)" || strings.Contains(m.panel.Body, "Arjun") {
		t.Errorf("female pool = %+v", m.panel)
	}

	press(t, m, "down", "enter")
	if m.panel.Title != "Random pick" || !strings.Contains(m.panel.Body, "Arjun Mehta") {
		t.Errorf("random pick = %+v", m.panel)
	}

	press(t, m, "esc")
	if m.menu.Title != "Auction Console" || m.cursor != 0 {
		t.Errorf("esc should return to root, got %q cursor %d", m.menu.Title, m.cursor)
	}
}

func TestResetRequiresSubmenu(t *testing.T) {
	m, svc := newTestModel(t)
	if _, err := svc.Dispatch(context.Background(), auction.Assign{PlayerID: 2, TeamID: 1, Price: 40}); err != nil {
		t.Fatal(err)
	}

	press(t, m, "down", "down", "down", "enter")
	if m.menu.Title != "Reset auction" {
		t.Fatalf("menu = %q", m.menu.Title)
	}
	// Back leaves state alone.
	press(t, m, "down", "enter")
	if svc.Summary().TotalSpent != 40 {
		t.Fatal("back should not reset")
	}

	press(t, m, "down", "down", "down", "enter")
	msg := press(t, m, "enter")
	if _, ok := msg.(DoneMsg); !ok {
		t.Fatalf("msg = %T, want DoneMsg", msg)
	}
	if svc.Summary().TotalSpent != 0 {
		t.Error("reset did not clear spending")
	}
	if got := svc.Activity(1); len(got) != 1 || got[0].Actor != "console" {
		t.Errorf("activity = %+v", got)
	}
}

func TestErrorShownInView(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(ErrMsg{Err: auction.ErrTeamHasPlayers})
	if !strings.Contains(m.View(), "LED002") {
		t.Errorf("view = %q", m.View())
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}

	m, _ = newTestModel(t)
	msg := press(t, m, "down", "down", "down", "down", "enter")
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("Quit item msg = %T", msg)
	}
}
