package auction

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func strPtr(s string) *string { return &s }

func mustApply(t *testing.T, s State, a Action) (State, Result) {
	t.Helper()
	next, res, err := Apply(s, a)
	if err != nil {
		t.Fatalf("Apply(%s) error = %v", a.Kind(), err)
	}
	return next, res
}

func assertLedger(t *testing.T, s State) {
	t.Helper()
	for _, err := range s.CheckLedger() {
		t.Errorf("ledger: %v", err)
	}
}

func TestAddPlayerOnEmptyState(t *testing.T) {
	s, res := mustApply(t, State{}, AddPlayer{Player: PlayerInput{Name: "Solo"}})

	if res.PlayerID != 1 {
		t.Errorf("PlayerID = %d, want 1", res.PlayerID)
	}
	if len(s.Players) != 1 {
		t.Fatalf("len(Players) = %d, want 1", len(s.Players))
	}
	p := s.Players[0]
	if p.Sold() || p.Price != 0 {
		t.Errorf("new player should be unsold with price 0, got soldTo=%v price=%d", p.SoldTo, p.Price)
	}
	if p.Position != Midfielder || p.Gender != Male {
		t.Errorf("defaults = %s/%s, want MID/male", p.Position, p.Gender)
	}
	if s.Counters.NextPlayerID != 2 {
		t.Errorf("NextPlayerID = %d, want 2", s.Counters.NextPlayerID)
	}
}

func TestAddPlayerValidation(t *testing.T) {
	tests := []struct {
		name  string
		input PlayerInput
		want  error
	}{
		{"blank name", PlayerInput{Name: "  "}, ErrNameRequired},
		{"bad position", PlayerInput{Name: "A", Position: "WING"}, ErrInvalidPosition},
		{"bad gender", PlayerInput{Name: "A", Gender: "other"}, ErrInvalidGender},
	}
	base := SeedState()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := Apply(base, AddPlayer{Player: tt.input})
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if len(next.Players) != len(base.Players) {
				t.Errorf("state changed on validation error")
			}
		})
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	s := SeedState()
	s, first := mustApply(t, s, AddPlayer{Player: PlayerInput{Name: "First"}})
	s, _ = mustApply(t, s, DeletePlayer{ID: first.PlayerID})
	s, second := mustApply(t, s, AddPlayer{Player: PlayerInput{Name: "Second"}})

	if second.PlayerID <= first.PlayerID {
		t.Errorf("second id %d should be greater than deleted id %d", second.PlayerID, first.PlayerID)
	}

	s, team := mustApply(t, s, AddTeam{Team: TeamInput{Name: "Late", Budget: 500}})
	s, _ = mustApply(t, s, DeleteTeam{ID: team.TeamID})
	_, team2 := mustApply(t, s, AddTeam{Team: TeamInput{Name: "Later", Budget: 500}})
	if team2.TeamID <= team.TeamID {
		t.Errorf("team id %d reused after delete of %d", team2.TeamID, team.TeamID)
	}
}

func TestEditPlayer(t *testing.T) {
	s := SeedState()
	target := s.Players[0]

	s, res := mustApply(t, s, EditPlayer{ID: target.ID, Patch: PlayerPatch{Name: strPtr("Renamed")}})
	if !res.Changed {
		t.Fatal("expected change")
	}
	got, _, _ := s.Player(target.ID)
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	if got.Year != target.Year || got.Position != target.Position || got.Department != target.Department {
		t.Errorf("unpatched fields changed: %+v -> %+v", target, got)
	}

	before := s
	after, res := mustApply(t, s, EditPlayer{ID: 9999, Patch: PlayerPatch{Name: strPtr("Ghost")}})
	if res.Changed {
		t.Error("edit of missing player should be a no-op")
	}
	if len(after.Players) != len(before.Players) {
		t.Error("state changed on missing-player edit")
	}
}

func TestEditTeamBudgetBelowSpentWarns(t *testing.T) {
	s := SeedState()
	s, _ = mustApply(t, s, Assign{PlayerID: 1, TeamID: 1, Price: 300})

	budget := 100
	s, res := mustApply(t, s, EditTeam{ID: 1, Patch: TeamPatch{Budget: &budget}})
	if res.Warning == "" {
		t.Error("expected over-budget warning")
	}
	team, _, _ := s.Team(1)
	if team.Spent != 300 {
		t.Errorf("Spent = %d, want 300 (no reconciliation)", team.Spent)
	}
	if !team.OverBudget() || team.Remaining() != -200 {
		t.Errorf("Remaining = %d, want -200", team.Remaining())
	}
}

func TestDeleteTeamRefusedWithPlayers(t *testing.T) {
	s := SeedState()
	s, _ = mustApply(t, s, AddTeam{Team: TeamInput{Name: "Extra", Budget: 800}})
	newTeam := s.Teams[len(s.Teams)-1].ID
	s, _ = mustApply(t, s, Assign{PlayerID: 2, TeamID: newTeam, Price: 50})

	next, _, err := Apply(s, DeleteTeam{ID: newTeam})
	if !errors.Is(err, ErrTeamHasPlayers) {
		t.Fatalf("error = %v, want ErrTeamHasPlayers", err)
	}
	if _, _, ok := next.Team(newTeam); !ok {
		t.Error("team removed despite refusal")
	}

	s, _ = mustApply(t, s, Unassign{PlayerID: 2})
	s, res := mustApply(t, s, DeleteTeam{ID: newTeam})
	if !res.Changed {
		t.Fatal("delete after release should succeed")
	}
	if _, _, ok := s.Team(newTeam); ok {
		t.Error("team still present")
	}
}

func TestDeleteSoldPlayerDecrementsSpent(t *testing.T) {
	s := SeedState()
	s, _ = mustApply(t, s, Assign{PlayerID: 3, TeamID: 4, Price: 120})
	s, _ = mustApply(t, s, Assign{PlayerID: 4, TeamID: 4, Price: 80})

	s, res := mustApply(t, s, DeletePlayer{ID: 3})
	if res.TeamID != 4 || res.Price != 120 {
		t.Errorf("result = %+v, want team 4 price 120", res)
	}
	team, _, _ := s.Team(4)
	if team.Spent != 80 {
		t.Errorf("Spent = %d, want 80", team.Spent)
	}
	if _, _, ok := s.Player(3); ok {
		t.Error("player still present")
	}
	assertLedger(t, s)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := SeedState()
	for _, a := range []Action{DeletePlayer{ID: 999}, DeleteTeam{ID: 999}, Unassign{PlayerID: 999}} {
		_, res, err := Apply(s, a)
		if err != nil {
			t.Errorf("%s: error = %v", a.Kind(), err)
		}
		if res.Changed {
			t.Errorf("%s: expected no change", a.Kind())
		}
	}
}

func TestResetRestoresSeedAndKeepsCounters(t *testing.T) {
	s := SeedState()
	s, added := mustApply(t, s, AddPlayer{Player: PlayerInput{Name: "Temp"}})
	s, _ = mustApply(t, s, Assign{PlayerID: added.PlayerID, TeamID: 2, Price: 40})

	s, _ = mustApply(t, s, Reset{})
	if len(s.Teams) != len(SeedTeams()) {
		t.Errorf("teams = %d, want %d", len(s.Teams), len(SeedTeams()))
	}
	for _, team := range s.Teams {
		if team.Spent != 0 {
			t.Errorf("team %d spent = %d after reset", team.ID, team.Spent)
		}
	}
	if s.Counters.NextPlayerID <= added.PlayerID {
		t.Errorf("NextPlayerID = %d, must stay above retired id %d", s.Counters.NextPlayerID, added.PlayerID)
	}
	captains := 0
	for _, p := range s.Players {
		if p.IsCaptain {
			captains++
		}
	}
	if captains != len(SeedCaptains()) {
		t.Errorf("captains = %d, want %d", captains, len(SeedCaptains()))
	}
	assertLedger(t, s)
}

func TestReplaceFromImportMergesCaptains(t *testing.T) {
	imported := []Player{
		{ID: 1, Name: "A", Position: Goalkeeper, Gender: Male},
		{ID: 101, Name: "B", Position: Attacker, Gender: Female},
		{ID: 201, Name: "Collides", Position: Defender, Gender: Male},
	}
	s, _ := mustApply(t, SeedState(), ReplaceFromImport{Players: imported})

	if got, want := len(s.Players), len(imported)+len(SeedCaptains())-1; got != want {
		t.Errorf("players = %d, want %d", got, want)
	}
	p, _, _ := s.Player(201)
	if p.Name != "Collides" || p.IsCaptain {
		t.Errorf("imported player with id 201 should win over captain, got %+v", p)
	}
	assertLedger(t, s)
}

func TestApplyUnknownAction(t *testing.T) {
	_, _, err := Apply(State{}, nil)
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("error = %v, want ErrUnknownAction", err)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	s := SeedState()
	before := s.Clone()
	_, _ = mustApply(t, s, Assign{PlayerID: 1, TeamID: 1, Price: 10})

	p, _, _ := s.Player(1)
	if p.Sold() {
		t.Error("input state was mutated")
	}
	if s.Teams[0].Spent != before.Teams[0].Spent {
		t.Error("input team was mutated")
	}
}

func TestSpentInvariantRandomSequence(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := SeedState()
	for i := 0; i < 500; i++ {
		p := s.Players[rng.IntN(len(s.Players))]
		var a Action
		if p.Sold() {
			a = Unassign{PlayerID: p.ID}
		} else {
			team := s.Teams[rng.IntN(len(s.Teams))]
			a = Assign{PlayerID: p.ID, TeamID: team.ID, Price: 1 + rng.IntN(200)}
		}
		next, _, err := Apply(s, a)
		if err != nil {
			t.Fatalf("step %d %s: %v", i, a.Kind(), err)
		}
		s = next
		if errs := s.CheckLedger(); len(errs) > 0 {
			t.Fatalf("step %d: %v", i, errs)
		}
	}
}
