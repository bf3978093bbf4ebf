// Package auction models the player auction: the player and team
// collections, the id counters, and the pure state transitions that keep
// the two sides of the ledger consistent.
//
// Every mutation is expressed as an [Action] and applied with [Apply], which
// returns a new [State] and never modifies the one passed in. Callers that
// need shared, persisted state wrap this package (see internal/core).
package auction

import (
	"strings"
)

// Position is the short code stored for a player's playing position.
type Position string

const (
	Goalkeeper Position = "GK"
	Defender   Position = "DEF"
	Midfielder Position = "MID"
	Attacker   Position = "ATT"
)

// Positions lists every position in roster order.
var Positions = []Position{Goalkeeper, Defender, Midfielder, Attacker}

// Label returns the long display name for the position.
func (p Position) Label() string {
	switch p {
	case Goalkeeper:
		return "Goalkeeper"
	case Defender:
		return "Defender"
	case Midfielder:
		return "Midfielder"
	case Attacker:
		return "Attacker"
	default:
		return string(p)
	}
}

// Order returns the roster sort rank (GK first). Unknown positions sort last.
func (p Position) Order() int {
	for i, pos := range Positions {
		if p == pos {
			return i + 1
		}
	}
	return len(Positions) + 1
}

// Valid reports whether p is one of the known position codes.
func (p Position) Valid() bool {
	return p.Order() <= len(Positions)
}

// ParsePosition accepts a short code or long name in any case.
func ParsePosition(s string) (Position, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, pos := range Positions {
		if s == string(pos) || s == strings.ToUpper(pos.Label()) {
			return pos, true
		}
	}
	return "", false
}

// Gender of a registrant.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ParseGender accepts "male"/"female" in any case.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, true
	case "female", "f":
		return Female, true
	}
	return "", false
}

// Player is one registrant in the auction pool.
type Player struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Year           string   `json:"year"`
	Position       Position `json:"position"`
	Gender         Gender   `json:"gender"`
	Department     string   `json:"department"`
	PrevTournament bool     `json:"prevTournament"`
	SoldTo         *int     `json:"soldTo"`
	Price          int      `json:"price"`
	IsCaptain      bool     `json:"isCaptain,omitempty"`
}

// Sold reports whether the player is assigned to a team.
func (p Player) Sold() bool {
	return p.SoldTo != nil
}

// OwnedBy reports whether the player is assigned to teamID.
func (p Player) OwnedBy(teamID int) bool {
	return p.SoldTo != nil && *p.SoldTo == teamID
}

// Team is a bidding entity with a points budget.
type Team struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Budget int    `json:"budget"`
	Spent  int    `json:"spent"`
	Owner  string `json:"owner,omitempty"`
}

// Remaining is budget minus spent; negative when over budget.
func (t Team) Remaining() int {
	return t.Budget - t.Spent
}

// OverBudget is a display warning only; sales past budget are allowed.
func (t Team) OverBudget() bool {
	return t.Spent > t.Budget
}

// Counters hold the next id to hand out for each collection.
// They only ever grow, so ids are never reused after a delete.
type Counters struct {
	NextPlayerID int `json:"nextPlayerId"`
	NextTeamID   int `json:"nextTeamId"`
}

// State is the complete auction snapshot.
type State struct {
	Players  []Player `json:"players"`
	Teams    []Team   `json:"teams"`
	Counters Counters `json:"counters"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Players:  make([]Player, len(s.Players)),
		Teams:    make([]Team, len(s.Teams)),
		Counters: s.Counters,
	}
	for i, p := range s.Players {
		if p.SoldTo != nil {
			p.SoldTo = intPtr(*p.SoldTo)
		}
		out.Players[i] = p
	}
	copy(out.Teams, s.Teams)
	return out
}

// Player looks up a player by id and returns its index.
func (s State) Player(id int) (Player, int, bool) {
	for i, p := range s.Players {
		if p.ID == id {
			return p, i, true
		}
	}
	return Player{}, -1, false
}

// Team looks up a team by id and returns its index.
func (s State) Team(id int) (Team, int, bool) {
	for i, t := range s.Teams {
		if t.ID == id {
			return t, i, true
		}
	}
	return Team{}, -1, false
}

// Roster returns the players currently owned by teamID, in collection order.
func (s State) Roster(teamID int) []Player {
	var out []Player
	for _, p := range s.Players {
		if p.OwnedBy(teamID) {
			out = append(out, p)
		}
	}
	return out
}

// Summary holds the aggregates shown in the dashboard header.
type Summary struct {
	TotalPlayers    int   `json:"totalPlayers"`
	PlayersAssigned int   `json:"playersAssigned"`
	PlayersUnsold   int   `json:"playersUnsold"`
	TotalSpent      int   `json:"totalSpent"`
	Teams           int   `json:"teams"`
	OverBudgetTeams []int `json:"overBudgetTeams,omitempty"`
}

// Summary recomputes the derived aggregates.
func (s State) Summary() Summary {
	sum := Summary{
		TotalPlayers: len(s.Players),
		Teams:        len(s.Teams),
	}
	for _, p := range s.Players {
		if p.Sold() {
			sum.PlayersAssigned++
		}
	}
	sum.PlayersUnsold = sum.TotalPlayers - sum.PlayersAssigned
	for _, t := range s.Teams {
		sum.TotalSpent += t.Spent
		if t.OverBudget() {
			sum.OverBudgetTeams = append(sum.OverBudgetTeams, t.ID)
		}
	}
	return sum
}

// maxIDs returns the largest player and team ids present (0 when empty).
func (s State) maxIDs() (player, team int) {
	for _, p := range s.Players {
		if p.ID > player {
			player = p.ID
		}
	}
	for _, t := range s.Teams {
		if t.ID > team {
			team = t.ID
		}
	}
	return player, team
}

// SyncCounters raises the counters so they sit above every id in use.
// Counters never move down.
func (s State) SyncCounters() State {
	maxPlayer, maxTeam := s.maxIDs()
	if s.Counters.NextPlayerID <= maxPlayer {
		s.Counters.NextPlayerID = maxPlayer + 1
	}
	if s.Counters.NextTeamID <= maxTeam {
		s.Counters.NextTeamID = maxTeam + 1
	}
	return s
}

func intPtr(v int) *int {
	return &v
}
