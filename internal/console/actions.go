package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/core"
)

// ResetTimeout is the maximum duration for a reset issued from the console.
const ResetTimeout = 30 * time.Second

// DoneMsg reports a finished action in the status line.
type DoneMsg string

// ErrMsg reports a failed action.
type ErrMsg struct{ Err error }

func (e ErrMsg) Error() string { return e.Err.Error() }

// PanelMsg replaces the output panel below the menu.
type PanelMsg struct {
	Title string
	Body  string
}

type actions struct {
	service *core.Service
}

func (a *actions) Summary() tea.Cmd {
	return func() tea.Msg {
		s := a.service.Summary()
		var b strings.Builder
		fmt.Fprintf(&b, "Players:     %d\n", s.TotalPlayers)
		fmt.Fprintf(&b, "Sold:        %d\n", s.PlayersAssigned)
		fmt.Fprintf(&b, "Unsold:      %d\n", s.PlayersUnsold)
		fmt.Fprintf(&b, "Total spent: %d\n", s.TotalSpent)
		fmt.Fprintf(&b, "Teams:       %d", s.Teams)
		if n := len(s.OverBudgetTeams); n > 0 {
			fmt.Fprintf(&b, "\n%d team(s) over budget", n)
		}
		return PanelMsg{Title: "Summary", Body: b.String()}
	}
}

func (a *actions) Budgets() tea.Cmd {
	return func() tea.Msg {
		st := a.service.Snapshot()
		var b strings.Builder
		for i, t := range st.Teams {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%-16s %2d players  spent %5d / %5d  left %5d",
				t.Name, len(st.Roster(t.ID)), t.Spent, t.Budget, t.Remaining())
			if t.OverBudget() {
				b.WriteString("  OVER")
			}
		}
		if len(st.Teams) == 0 {
			b.WriteString("No teams")
		}
		return PanelMsg{Title: "Team budgets", Body: b.String()}
	}
}

// Unsold lists unsold players, optionally narrowed by gender.
func (a *actions) Unsold(gender string) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			f := auction.ParseFilter("", gender, string(auction.StatusUnsold))
			players := a.service.Players(f)
			var b strings.Builder
			for i, p := range players {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%4d  %-22s %-3s %-6s %s", p.ID, p.Name, p.Position, p.Gender, p.Year)
			}
			if len(players) == 0 {
				b.WriteString("Nobody left in the pool")
			}
			return PanelMsg{Title: fmt.Sprintf("Unsold pool (%d)", len(players)), Body: b.String()}
		}
	}
}

func (a *actions) RandomPick() tea.Cmd {
	return func() tea.Msg {
		p, ok := a.service.RandomPick(auction.PlayerFilter{})
		if !ok {
			return DoneMsg("No unsold players to pick from")
		}
		return PanelMsg{
			Title: "Random pick",
			Body:  fmt.Sprintf("%s (%s, %s, %s)", p.Name, p.Position.Label(), p.Gender, p.Year),
		}
	}
}

// Reset restores the seed roster and teams.
// This is a destructive operation; the menu places it behind a submenu.
func (a *actions) Reset() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ResetTimeout)
		defer cancel()

		ctx = core.ContextWithActor(ctx, "console")
		if _, err := a.service.Dispatch(ctx, auction.Reset{}); err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg("Auction reset to defaults")
	}
}
