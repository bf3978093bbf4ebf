package auction

import (
	"fmt"
	"slices"
	"strings"
)

// Kind names an action for logs, metrics and the activity feed.
type Kind string

const (
	KindAddPlayer         Kind = "add_player"
	KindEditPlayer        Kind = "edit_player"
	KindDeletePlayer      Kind = "delete_player"
	KindAddTeam           Kind = "add_team"
	KindEditTeam          Kind = "edit_team"
	KindDeleteTeam        Kind = "delete_team"
	KindAssign            Kind = "assign"
	KindUnassign          Kind = "unassign"
	KindReset             Kind = "reset"
	KindReplaceFromImport Kind = "replace_from_import"
)

// Action is a single state transition request.
type Action interface {
	Kind() Kind
}

// PlayerInput carries the fields supplied when registering a player.
type PlayerInput struct {
	Name           string
	Year           string
	Position       Position
	Gender         Gender
	Department     string
	PrevTournament bool
}

// PlayerPatch edits a player. Nil fields are left as they are.
// Ownership and price are not patchable; they move through Assign/Unassign.
type PlayerPatch struct {
	Name           *string
	Year           *string
	Position       *Position
	Gender         *Gender
	Department     *string
	PrevTournament *bool
}

// TeamInput carries the fields supplied when creating a team.
type TeamInput struct {
	Name   string
	Budget int
	Owner  string
}

// TeamPatch edits a team. Spent is never patchable.
type TeamPatch struct {
	Name   *string
	Budget *int
	Owner  *string
}

type (
	AddPlayer    struct{ Player PlayerInput }
	EditPlayer   struct {
		ID    int
		Patch PlayerPatch
	}
	DeletePlayer struct{ ID int }
	AddTeam      struct{ Team TeamInput }
	EditTeam     struct {
		ID    int
		Patch TeamPatch
	}
	DeleteTeam struct{ ID int }
	Assign     struct {
		PlayerID int
		TeamID   int
		Price    int
	}
	Unassign struct{ PlayerID int }
	// Reset restores the seed roster, seed teams and pinned captains.
	Reset struct{}
	// ReplaceFromImport swaps the player pool for an imported one.
	// Captains are merged back in and teams return to the seed.
	ReplaceFromImport struct{ Players []Player }
)

func (AddPlayer) Kind() Kind         { return KindAddPlayer }
func (EditPlayer) Kind() Kind        { return KindEditPlayer }
func (DeletePlayer) Kind() Kind      { return KindDeletePlayer }
func (AddTeam) Kind() Kind           { return KindAddTeam }
func (EditTeam) Kind() Kind          { return KindEditTeam }
func (DeleteTeam) Kind() Kind        { return KindDeleteTeam }
func (Assign) Kind() Kind            { return KindAssign }
func (Unassign) Kind() Kind          { return KindUnassign }
func (Reset) Kind() Kind             { return KindReset }
func (ReplaceFromImport) Kind() Kind { return KindReplaceFromImport }

// Result describes what an applied action did.
type Result struct {
	Kind     Kind
	Changed  bool
	PlayerID int
	TeamID   int
	Price    int
	// Warning is set for permitted but notable outcomes such as a team
	// ending up over budget.
	Warning string
}

// Apply runs a on a copy of s and returns the new state. On error the
// returned state is s unchanged.
func Apply(s State, a Action) (State, Result, error) {
	next := s.Clone()
	var (
		res Result
		err error
	)
	switch a := a.(type) {
	case AddPlayer:
		res, err = next.addPlayer(a.Player)
	case EditPlayer:
		res, err = next.editPlayer(a.ID, a.Patch)
	case DeletePlayer:
		res = next.deletePlayer(a.ID)
	case AddTeam:
		res, err = next.addTeam(a.Team)
	case EditTeam:
		res, err = next.editTeam(a.ID, a.Patch)
	case DeleteTeam:
		res, err = next.deleteTeam(a.ID)
	case Assign:
		res, err = next.assign(a.PlayerID, a.TeamID, a.Price)
	case Unassign:
		res = next.unassign(a.PlayerID)
	case Reset:
		next = next.reset(SeedPlayers())
		res = Result{Changed: true}
	case ReplaceFromImport:
		next = next.reset(a.Players)
		res = Result{Changed: true}
	case nil:
		return s, Result{}, ErrUnknownAction
	default:
		return s, Result{}, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	if err != nil {
		return s, Result{Kind: a.Kind()}, err
	}
	res.Kind = a.Kind()
	if !res.Changed {
		return s, res, nil
	}
	return next.SyncCounters(), res, nil
}

func (s *State) addPlayer(in PlayerInput) (Result, error) {
	p, err := in.build()
	if err != nil {
		return Result{}, err
	}
	s.bumpCounters()
	p.ID = s.Counters.NextPlayerID
	s.Counters.NextPlayerID++
	s.Players = append(s.Players, p)
	return Result{Changed: true, PlayerID: p.ID}, nil
}

func (in PlayerInput) build() (Player, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Player{}, ErrNameRequired
	}
	pos := in.Position
	if pos == "" {
		pos = Midfielder
	}
	if !pos.Valid() {
		return Player{}, ErrInvalidPosition
	}
	g := in.Gender
	if g == "" {
		g = Male
	}
	if g != Male && g != Female {
		return Player{}, ErrInvalidGender
	}
	return Player{
		Name:           name,
		Year:           strings.TrimSpace(in.Year),
		Position:       pos,
		Gender:         g,
		Department:     strings.TrimSpace(in.Department),
		PrevTournament: in.PrevTournament,
	}, nil
}

func (s *State) editPlayer(id int, patch PlayerPatch) (Result, error) {
	_, i, ok := s.Player(id)
	if !ok {
		return Result{PlayerID: id}, nil
	}
	p := s.Players[i]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Result{}, ErrNameRequired
		}
		p.Name = name
	}
	if patch.Year != nil {
		p.Year = strings.TrimSpace(*patch.Year)
	}
	if patch.Position != nil {
		if !patch.Position.Valid() {
			return Result{}, ErrInvalidPosition
		}
		p.Position = *patch.Position
	}
	if patch.Gender != nil {
		if *patch.Gender != Male && *patch.Gender != Female {
			return Result{}, ErrInvalidGender
		}
		p.Gender = *patch.Gender
	}
	if patch.Department != nil {
		p.Department = strings.TrimSpace(*patch.Department)
	}
	if patch.PrevTournament != nil {
		p.PrevTournament = *patch.PrevTournament
	}
	s.Players[i] = p
	return Result{Changed: true, PlayerID: id}, nil
}

func (s *State) deletePlayer(id int) Result {
	p, i, ok := s.Player(id)
	if !ok {
		return Result{PlayerID: id}
	}
	res := Result{Changed: true, PlayerID: id}
	if p.Sold() {
		un := s.unassign(id)
		res.TeamID = un.TeamID
		res.Price = un.Price
	}
	s.Players = slices.Delete(s.Players, i, i+1)
	return res
}

func (s *State) addTeam(in TeamInput) (Result, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Result{}, ErrNameRequired
	}
	if in.Budget <= 0 {
		return Result{}, ErrInvalidBudget
	}
	s.bumpCounters()
	t := Team{
		ID:     s.Counters.NextTeamID,
		Name:   name,
		Budget: in.Budget,
		Owner:  strings.TrimSpace(in.Owner),
	}
	s.Counters.NextTeamID++
	s.Teams = append(s.Teams, t)
	return Result{Changed: true, TeamID: t.ID}, nil
}

func (s *State) editTeam(id int, patch TeamPatch) (Result, error) {
	_, i, ok := s.Team(id)
	if !ok {
		return Result{TeamID: id}, nil
	}
	t := s.Teams[i]
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return Result{}, ErrNameRequired
		}
		t.Name = name
	}
	if patch.Budget != nil {
		if *patch.Budget <= 0 {
			return Result{}, ErrInvalidBudget
		}
		t.Budget = *patch.Budget
	}
	if patch.Owner != nil {
		t.Owner = strings.TrimSpace(*patch.Owner)
	}
	s.Teams[i] = t
	res := Result{Changed: true, TeamID: id}
	if t.OverBudget() {
		res.Warning = overBudgetWarning(t)
	}
	return res, nil
}

func (s *State) deleteTeam(id int) (Result, error) {
	_, i, ok := s.Team(id)
	if !ok {
		return Result{TeamID: id}, nil
	}
	if n := len(s.Roster(id)); n > 0 {
		return Result{}, fmt.Errorf("%w (%d assigned)", ErrTeamHasPlayers, n)
	}
	s.Teams = slices.Delete(s.Teams, i, i+1)
	return Result{Changed: true, TeamID: id}, nil
}

// reset replaces the pool with players merged with the pinned captains and
// restores the seed teams. Counters are kept and raised as needed, so ids
// handed out before the reset stay retired.
func (s State) reset(players []Player) State {
	next := State{
		Players:  MergeCaptains(players),
		Teams:    SeedTeams(),
		Counters: s.Counters,
	}
	return next.Clone()
}

func (s *State) bumpCounters() {
	*s = s.SyncCounters()
}

func overBudgetWarning(t Team) string {
	return fmt.Sprintf("team %q is over budget by %d", t.Name, t.Spent-t.Budget)
}
