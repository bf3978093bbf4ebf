package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/auction/internal/auction"
)

type section struct {
	title string
	rows  [][]string
}

// WriteCSV writes the report as one CSV document with a titled section per
// report part, separated by blank lines.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	sections := []section{
		{"Auction Overview", r.overviewRows()},
		{"Gender Breakdown", breakdownRows("Category", r.Genders)},
		{"Position Breakdown", breakdownRows("Position", r.Positions)},
		{"Team Summary", r.teamRows()},
		{"Complete Player List", r.playerRows()},
	}
	for _, ro := range r.Rosters {
		sections = append(sections, section{"Team Roster: " + ro.Team.Name, rosterRows(ro)})
	}

	for i, s := range sections {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{s.title}); err != nil {
			return err
		}
		if err := cw.WriteAll(s.rows); err != nil {
			return fmt.Errorf("write %s: %w", s.title, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r Report) overviewRows() [][]string {
	o := r.Overview
	return [][]string{
		{"Total Players", itoa(o.TotalPlayers)},
		{"Players Sold", itoa(o.Sold)},
		{"Players Unsold", itoa(o.Unsold)},
		{"Total Spent", itoa(o.TotalSpent)},
		{"Average Price", ftoa(o.AveragePrice)},
		{"Teams", itoa(o.Teams)},
	}
}

func breakdownRows(label string, bs []Breakdown) [][]string {
	rows := [][]string{{label, "Total", "Sold", "Unsold", "Sold %"}}
	for _, b := range bs {
		rows = append(rows, []string{b.Label, itoa(b.Total), itoa(b.Sold), itoa(b.Unsold), ftoa(b.SoldPercent()) + "%"})
	}
	return rows
}

func (r Report) teamRows() [][]string {
	rows := [][]string{{"Team", "Players", "Budget", "Spent", "Remaining"}}
	for _, t := range r.Teams {
		rows = append(rows, []string{t.Name, itoa(t.Players), itoa(t.Budget), itoa(t.Spent), itoa(t.Remaining)})
	}
	return rows
}

func (r Report) playerRows() [][]string {
	rows := [][]string{{"Name", "Year", "Position", "Gender", "Team", "Price"}}
	for _, p := range r.Players {
		rows = append(rows, []string{p.Name, p.Year, string(p.Position), string(p.Gender), p.Team, itoa(p.Price)})
	}
	return rows
}

func rosterRows(ro Roster) [][]string {
	rows := [][]string{{"Name", "Year", "Position", "Price", "Department"}}
	for _, p := range ro.Players {
		rows = append(rows, []string{p.Name, p.Year, string(p.Position), itoa(p.Price), p.Department})
	}
	counts := []string{"Positions"}
	for _, pos := range auction.Positions {
		counts = append(counts, fmt.Sprintf("%s %d", pos, ro.Positions[pos]))
	}
	rows = append(rows,
		counts,
		[]string{"Gender", fmt.Sprintf("male %d", ro.Male), fmt.Sprintf("female %d", ro.Female)},
		[]string{"Total Spent", itoa(ro.Team.Spent)},
		[]string{"Average Price", ftoa(ro.AveragePrice)},
	)
	return rows
}

// WritePlayersCSV writes the raw player collection, one row per player.
func WritePlayersCSV(w io.Writer, players []auction.Player, teams []auction.Team) error {
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "year", "position", "gender", "department", "prevTournament", "team", "price", "captain"}); err != nil {
		return err
	}
	for _, p := range players {
		team := ""
		if p.Sold() {
			team = names[*p.SoldTo]
		}
		if err := cw.Write([]string{
			itoa(p.ID), p.Name, p.Year, string(p.Position), string(p.Gender), p.Department,
			strconv.FormatBool(p.PrevTournament), team, itoa(p.Price), strconv.FormatBool(p.IsCaptain),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) }
