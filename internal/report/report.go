// Package report builds the end-of-auction results: overview figures,
// gender and position breakdowns, team budgets, the full player list and
// one roster per team. Rendering is left to callers; this package ships a
// CSV writer and the web package renders the printable HTML page.
package report

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/JonMunkholm/auction/internal/auction"
)

// Breakdown is a total/sold/unsold row for one category.
type Breakdown struct {
	Label  string `json:"label"`
	Total  int    `json:"total"`
	Sold   int    `json:"sold"`
	Unsold int    `json:"unsold"`
}

// SoldPercent is the share of the category that was sold, 0 when empty.
func (b Breakdown) SoldPercent() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Sold) * 100 / float64(b.Total)
}

// Overview is the headline block.
type Overview struct {
	TotalPlayers int     `json:"totalPlayers"`
	Sold         int     `json:"sold"`
	Unsold       int     `json:"unsold"`
	TotalSpent   int     `json:"totalSpent"`
	AveragePrice float64 `json:"averagePrice"`
	Teams        int     `json:"teams"`
}

// TeamLine is one row of the team summary.
type TeamLine struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	Budget     int    `json:"budget"`
	Spent      int    `json:"spent"`
	Remaining  int    `json:"remaining"`
	OverBudget bool   `json:"overBudget"`
}

// PlayerLine is one row of the complete player list.
type PlayerLine struct {
	Name     string           `json:"name"`
	Year     string           `json:"year"`
	Position auction.Position `json:"position"`
	Gender   auction.Gender   `json:"gender"`
	Team     string           `json:"team"`
	Price    int              `json:"price"`
	Sold     bool             `json:"sold"`
}

// Roster is a team's squad sheet.
type Roster struct {
	Team         TeamLine                 `json:"team"`
	Players      []auction.Player         `json:"players"`
	Positions    map[auction.Position]int `json:"positions"`
	Male         int                      `json:"male"`
	Female       int                      `json:"female"`
	AveragePrice float64                  `json:"averagePrice"`
}

// Report is the complete results document.
type Report struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Overview    Overview     `json:"overview"`
	Genders     []Breakdown  `json:"genders"`
	Positions   []Breakdown  `json:"positions"`
	Teams       []TeamLine   `json:"teams"`
	Players     []PlayerLine `json:"players"`
	Rosters     []Roster     `json:"rosters"`
}

// Unsold is the label used for players without a team.
const Unsold = "UNSOLD"

// Build computes the report from the current collections. Inputs are not
// modified.
func Build(players []auction.Player, teams []auction.Team, now time.Time) Report {
	r := Report{GeneratedAt: now}

	teamNames := make(map[int]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	r.Overview.TotalPlayers = len(players)
	r.Overview.Teams = len(teams)
	soldTotal := 0
	for _, p := range players {
		if p.Sold() {
			r.Overview.Sold++
			soldTotal += p.Price
		}
	}
	r.Overview.Unsold = r.Overview.TotalPlayers - r.Overview.Sold
	for _, t := range teams {
		r.Overview.TotalSpent += t.Spent
	}
	if r.Overview.Sold > 0 {
		r.Overview.AveragePrice = float64(soldTotal) / float64(r.Overview.Sold)
	}

	r.Genders = []Breakdown{
		breakdown("Male Players", players, func(p auction.Player) bool { return p.Gender == auction.Male }),
		breakdown("Female Players", players, func(p auction.Player) bool { return p.Gender == auction.Female }),
	}
	for _, pos := range auction.Positions {
		r.Positions = append(r.Positions, breakdown(string(pos), players, func(p auction.Player) bool { return p.Position == pos }))
	}

	state := auction.State{Players: players, Teams: teams}
	for _, t := range teams {
		line := TeamLine{
			ID:         t.ID,
			Name:       t.Name,
			Players:    len(state.Roster(t.ID)),
			Budget:     t.Budget,
			Spent:      t.Spent,
			Remaining:  t.Remaining(),
			OverBudget: t.OverBudget(),
		}
		r.Teams = append(r.Teams, line)
		r.Rosters = append(r.Rosters, buildRoster(line, state.Roster(t.ID)))
	}

	for _, p := range players {
		line := PlayerLine{
			Name:     p.Name,
			Year:     p.Year,
			Position: p.Position,
			Gender:   p.Gender,
			Team:     Unsold,
			Price:    p.Price,
			Sold:     p.Sold(),
		}
		if p.Sold() {
			if name, ok := teamNames[*p.SoldTo]; ok {
				line.Team = name
			}
		}
		r.Players = append(r.Players, line)
	}
	// Sold first, then by team name, then by player name.
	slices.SortStableFunc(r.Players, func(a, b PlayerLine) int {
		if a.Sold != b.Sold {
			if a.Sold {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.Team, b.Team); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	return r
}

func breakdown(label string, players []auction.Player, match func(auction.Player) bool) Breakdown {
	b := Breakdown{Label: label}
	for _, p := range players {
		if !match(p) {
			continue
		}
		b.Total++
		if p.Sold() {
			b.Sold++
		}
	}
	b.Unsold = b.Total - b.Sold
	return b
}

// buildRoster orders a squad GK, DEF, MID, ATT and by price within a
// position, most expensive first.
func buildRoster(team TeamLine, players []auction.Player) Roster {
	ro := Roster{
		Team:      team,
		Players:   slices.Clone(players),
		Positions: make(map[auction.Position]int, len(auction.Positions)),
	}
	slices.SortStableFunc(ro.Players, func(a, b auction.Player) int {
		if c := cmp.Compare(a.Position.Order(), b.Position.Order()); c != 0 {
			return c
		}
		return cmp.Compare(b.Price, a.Price)
	})
	total := 0
	for _, p := range ro.Players {
		ro.Positions[p.Position]++
		if p.Gender == auction.Female {
			ro.Female++
		} else {
			ro.Male++
		}
		total += p.Price
	}
	if len(ro.Players) > 0 {
		ro.AveragePrice = float64(total) / float64(len(ro.Players))
	}
	return ro
}
