package auction

import "fmt"

// assign records a sale. Both sides of the ledger change in the same state,
// so callers never see the player sold without the team charged.
// There is no budget cap: an over-budget sale succeeds with a warning.
func (s *State) assign(playerID, teamID, price int) (Result, error) {
	if price <= 0 {
		return Result{}, ErrInvalidPrice
	}
	if teamID == 0 {
		return Result{}, ErrTeamRequired
	}
	_, ti, ok := s.Team(teamID)
	if !ok {
		return Result{}, teamNotFound(teamID)
	}
	p, pi, ok := s.Player(playerID)
	if !ok {
		return Result{}, playerNotFound(playerID)
	}
	if p.Sold() {
		return Result{}, fmt.Errorf("%w: %s belongs to team %d", ErrPlayerAlreadySold, p.Name, *p.SoldTo)
	}

	s.Players[pi].SoldTo = intPtr(teamID)
	s.Players[pi].Price = price
	s.Teams[ti].Spent += price

	res := Result{Changed: true, PlayerID: playerID, TeamID: teamID, Price: price}
	if t := s.Teams[ti]; t.OverBudget() {
		res.Warning = overBudgetWarning(t)
	}
	return res, nil
}

// unassign releases a sold player. Unsold or unknown players are a no-op.
// If the owning team was removed the player is still released.
func (s *State) unassign(playerID int) Result {
	p, pi, ok := s.Player(playerID)
	if !ok || !p.Sold() {
		return Result{PlayerID: playerID}
	}
	teamID := *p.SoldTo
	if _, ti, ok := s.Team(teamID); ok {
		s.Teams[ti].Spent -= p.Price
	}
	s.Players[pi].SoldTo = nil
	s.Players[pi].Price = 0
	return Result{Changed: true, PlayerID: playerID, TeamID: teamID, Price: p.Price}
}

// Selection is what the UI should do when a player card is picked.
type Selection string

const (
	// SelectionOpenAssign opens the sale form for an unsold player.
	SelectionOpenAssign Selection = "open_assign"
	// SelectionUnassignPrompt asks the operator to confirm releasing a sold
	// player; on confirmation the caller dispatches Unassign.
	SelectionUnassignPrompt Selection = "confirm_unassign"
)

// Select applies the selection policy to a player. Captains are sold and
// follow the same rule as any other sold player.
func Select(s State, playerID int) (Selection, Player, error) {
	p, _, ok := s.Player(playerID)
	if !ok {
		return "", Player{}, playerNotFound(playerID)
	}
	if p.Sold() {
		return SelectionUnassignPrompt, p, nil
	}
	return SelectionOpenAssign, p, nil
}

// LedgerViolation describes a team whose spent does not match its roster.
type LedgerViolation struct {
	TeamID   int
	Spent    int
	Expected int
}

func (v LedgerViolation) Error() string {
	return fmt.Sprintf("ledger mismatch for team %d: spent %d, roster total %d", v.TeamID, v.Spent, v.Expected)
}

// CheckLedger verifies spent == sum of roster prices for every team and
// that unsold players carry no price.
func (s State) CheckLedger() []error {
	var errs []error
	totals := make(map[int]int, len(s.Teams))
	for _, p := range s.Players {
		if !p.Sold() {
			if p.Price != 0 {
				errs = append(errs, fmt.Errorf("unsold player %d has price %d", p.ID, p.Price))
			}
			continue
		}
		totals[*p.SoldTo] += p.Price
	}
	for _, t := range s.Teams {
		if totals[t.ID] != t.Spent {
			errs = append(errs, LedgerViolation{TeamID: t.ID, Spent: t.Spent, Expected: totals[t.ID]})
		}
	}
	return errs
}
