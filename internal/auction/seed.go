package auction

// DefaultTeamBudget is the budget given to seed teams and the form default.
const DefaultTeamBudget = 1000

// CaptainFirstID is the id of the first pinned captain.
const CaptainFirstID = 201

var seedColors = []string{"Red", "Blue", "Green", "Yellow", "Purple", "Orange", "Silver", "Gold"}

// SeedTeams returns the eight default teams, ids 1 through 8.
func SeedTeams() []Team {
	teams := make([]Team, len(seedColors))
	for i, c := range seedColors {
		teams[i] = Team{ID: i + 1, Name: "Team " + c, Budget: DefaultTeamBudget}
	}
	return teams
}

// SeedCaptains returns the pinned captains, ids 201 through 208, each
// pre-sold to the matching seed team for 0 points.
func SeedCaptains() []Player {
	caps := make([]Player, len(seedColors))
	for i, c := range seedColors {
		caps[i] = Player{
			ID:         CaptainFirstID + i,
			Name:       "Captain " + c,
			Year:       "2023",
			Position:   Midfielder,
			Gender:     Male,
			Department: "",
			SoldTo:     intPtr(i + 1),
			IsCaptain:  true,
		}
	}
	return caps
}

type seedRow struct {
	name, year, dept string
	pos              Position
	gender           Gender
	prev             bool
}

var seedRoster = []seedRow{
	{"Arjun Mehta", "2022", "CSE", Goalkeeper, Male, true},
	{"Rohan Das", "2023", "ECE", Defender, Male, false},
	{"Vikram Rao", "2024", "ME", Defender, Male, true},
	{"Kabir Singh", "2025", "CE", Midfielder, Male, false},
	{"Nikhil Jain", "2023", "EE", Midfielder, Male, true},
	{"Aditya Nair", "2022", "CSE", Attacker, Male, true},
	{"Siddharth Iyer", "2024", "BT", Attacker, Male, false},
	{"Karan Malhotra", "2025", "ME", Goalkeeper, Male, false},
	{"Ananya Sharma", "2023", "CSE", Midfielder, Female, true},
	{"Priya Verma", "2024", "ECE", Defender, Female, false},
	{"Meera Pillai", "2022", "EE", Attacker, Female, true},
	{"Isha Kapoor", "2025", "CE", Goalkeeper, Female, false},
}

// SeedPlayers returns the default roster plus the pinned captains.
// Male players take ids from 1 and female players from 101, matching the
// id ranges produced by a CSV import.
func SeedPlayers() []Player {
	players := make([]Player, 0, len(seedRoster))
	male, female := 1, 101
	for _, r := range seedRoster {
		p := Player{
			Name:           r.name,
			Year:           r.year,
			Position:       r.pos,
			Gender:         r.gender,
			Department:     r.dept,
			PrevTournament: r.prev,
		}
		if r.gender == Female {
			p.ID = female
			female++
		} else {
			p.ID = male
			male++
		}
		players = append(players, p)
	}
	return players
}

// SeedState is the state used when nothing has been stored yet.
func SeedState() State {
	s := State{
		Players: MergeCaptains(SeedPlayers()),
		Teams:   SeedTeams(),
	}
	return s.SyncCounters()
}

// MergeCaptains appends every pinned captain whose id is not already used
// by players. The input slice is not modified.
func MergeCaptains(players []Player) []Player {
	out := make([]Player, 0, len(players)+len(seedColors))
	seen := make(map[int]struct{}, len(players))
	for _, p := range players {
		seen[p.ID] = struct{}{}
		if p.SoldTo != nil {
			p.SoldTo = intPtr(*p.SoldTo)
		}
		out = append(out, p)
	}
	for _, c := range SeedCaptains() {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
