package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/auction/internal/auction"
)

func team(id int) *int { return &id }

func fixture() ([]auction.Player, []auction.Team) {
	players := []auction.Player{
		{ID: 1, Name: "zed", Position: auction.Attacker, Gender: auction.Male, SoldTo: team(1), Price: 50},
		{ID: 2, Name: "Amy", Position: auction.Goalkeeper, Gender: auction.Female, SoldTo: team(1), Price: 30},
		{ID: 3, Name: "Bob", Position: auction.Attacker, Gender: auction.Male, SoldTo: team(1), Price: 90},
		{ID: 4, Name: "Cal", Position: auction.Defender, Gender: auction.Male},
		{ID: 5, Name: "Dia", Position: auction.Midfielder, Gender: auction.Female, SoldTo: team(2), Price: 20},
	}
	teams := []auction.Team{
		{ID: 1, Name: "Red", Budget: 150, Spent: 170},
		{ID: 2, Name: "Blue", Budget: 1000, Spent: 20},
		{ID: 3, Name: "Empty", Budget: 500},
	}
	return players, teams
}

func TestBuildOverview(t *testing.T) {
	players, teams := fixture()
	r := Build(players, teams, time.Unix(0, 0))

	o := r.Overview
	if o.TotalPlayers != 5 || o.Sold != 4 || o.Unsold != 1 || o.TotalSpent != 190 || o.Teams != 3 {
		t.Errorf("overview = %+v", o)
	}
	if o.AveragePrice != 47.5 {
		t.Errorf("AveragePrice = %v, want 47.5", o.AveragePrice)
	}

	if g := r.Genders[1]; g.Total != 2 || g.Sold != 2 || g.SoldPercent() != 100 {
		t.Errorf("female breakdown = %+v", g)
	}
	if p := r.Positions[1]; p.Label != "DEF" || p.Total != 1 || p.Unsold != 1 || p.SoldPercent() != 0 {
		t.Errorf("DEF breakdown = %+v", p)
	}
	if (Breakdown{}).SoldPercent() != 0 {
		t.Error("empty breakdown should report 0%")
	}

	if tl := r.Teams[0]; tl.Players != 3 || tl.Remaining != -20 || !tl.OverBudget {
		t.Errorf("team line = %+v", tl)
	}
}

func TestBuildPlayerOrder(t *testing.T) {
	players, teams := fixture()
	r := Build(players, teams, time.Now())

	var got []string
	for _, p := range r.Players {
		got = append(got, p.Name+"/"+p.Team)
	}
	want := []string{"Dia/Blue", "Amy/Red", "Bob/Red", "zed/Red", "Cal/UNSOLD"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", got, want)
	}
	if players[0].Name != "zed" {
		t.Error("input slice was reordered")
	}
}

func TestBuildRosters(t *testing.T) {
	players, teams := fixture()
	r := Build(players, teams, time.Now())

	if len(r.Rosters) != len(teams) {
		t.Fatalf("rosters = %d, want %d", len(r.Rosters), len(teams))
	}
	red := r.Rosters[0]
	var ids []int
	for _, p := range red.Players {
		ids = append(ids, p.ID)
	}
	// GK first, then attackers by price descending.
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 3 || ids[2] != 1 {
		t.Errorf("roster order = %v, want [2 3 1]", ids)
	}
	if red.Positions[auction.Attacker] != 2 || red.Male != 2 || red.Female != 1 {
		t.Errorf("roster counts = %+v", red)
	}
	if empty := r.Rosters[2]; len(empty.Players) != 0 || empty.AveragePrice != 0 {
		t.Errorf("empty roster = %+v", empty)
	}
}

func TestWriteCSV(t *testing.T) {
	players, teams := fixture()
	var buf bytes.Buffer
	if err := Build(players, teams, time.Now()).WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Auction Overview",
		"Players Sold,4",
		"Average Price,47.5",
		"Female Players,2,2,0,100.0%",
		"Team Summary",
		"Red,3,150,170,-20",
		"Cal,,DEF,male,UNSOLD,0",
		"Team Roster: Empty",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	rd := csv.NewReader(strings.NewReader(out))
	rd.FieldsPerRecord = -1
	if _, err := rd.ReadAll(); err != nil {
		t.Errorf("output is not valid CSV: %v", err)
	}
}

func TestWritePlayersCSV(t *testing.T) {
	players, teams := fixture()
	var buf bytes.Buffer
	if err := WritePlayersCSV(&buf, players, teams); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(players)+1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[1][7] != "Red" || rows[4][7] != "" {
		t.Errorf("team column = %q / %q", rows[1][7], rows[4][7])
	}
}
