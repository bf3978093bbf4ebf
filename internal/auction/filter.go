package auction

import (
	"math/rand/v2"
	"strings"
)

// Status filters players by sale state.
type Status string

const (
	StatusAll    Status = "ALL"
	StatusSold   Status = "SOLD"
	StatusUnsold Status = "UNSOLD"
)

// PlayerFilter narrows the player list. Empty fields match everything.
type PlayerFilter struct {
	Position Position
	Gender   Gender
	Status   Status
	Team     int
	Query    string
}

// ParseFilter builds a filter from loosely formatted strings as they arrive
// in query parameters. "ALL" and unknown values are treated as no filter;
// an explicit "ALL" status is kept so PickRandom can tell it from unset.
func ParseFilter(position, gender, status string) PlayerFilter {
	var f PlayerFilter
	if pos, ok := ParsePosition(position); ok {
		f.Position = pos
	}
	if g, ok := ParseGender(gender); ok {
		f.Gender = g
	}
	switch Status(strings.ToUpper(strings.TrimSpace(status))) {
	case StatusSold:
		f.Status = StatusSold
	case StatusUnsold:
		f.Status = StatusUnsold
	case StatusAll:
		f.Status = StatusAll
	}
	return f
}

// Match reports whether p passes every set criterion.
func (f PlayerFilter) Match(p Player) bool {
	if f.Position != "" && p.Position != f.Position {
		return false
	}
	if f.Gender != "" && p.Gender != f.Gender {
		return false
	}
	switch f.Status {
	case StatusSold:
		if !p.Sold() {
			return false
		}
	case StatusUnsold:
		if p.Sold() {
			return false
		}
	}
	if f.Team != 0 && !p.OwnedBy(f.Team) {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

// FilterPlayers returns the players matching f in collection order.
func FilterPlayers(players []Player, f PlayerFilter) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// PickRandom chooses one player matching f. A picker with no status set
// draws from the unsold pool. intn defaults to math/rand/v2.
func PickRandom(players []Player, f PlayerFilter, intn func(int) int) (Player, bool) {
	if f.Status == "" {
		f.Status = StatusUnsold
	}
	pool := FilterPlayers(players, f)
	if len(pool) == 0 {
		return Player{}, false
	}
	if intn == nil {
		intn = rand.IntN
	}
	return pool[intn(len(pool))], true
}
