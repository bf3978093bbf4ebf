package auction

import (
	"errors"
	"fmt"
)

// Validation errors. No state change happens when one of these is returned.
var (
	ErrNameRequired    = errors.New("required field: name")
	ErrInvalidPosition = errors.New("invalid position: must be one of GK, DEF, MID, ATT")
	ErrInvalidGender   = errors.New("invalid gender: must be male or female")
	ErrInvalidBudget   = errors.New("invalid budget: must be a positive integer")
	ErrInvalidPrice    = errors.New("invalid price: must be a positive integer")
	ErrTeamRequired    = errors.New("required field: team")
)

// Referential and ledger errors.
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTeamNotFound      = errors.New("team not found")
	ErrPlayerAlreadySold = errors.New("player already sold")
	ErrTeamHasPlayers    = errors.New("team has players: remove all players first")
	ErrUnknownAction     = errors.New("unknown action")
)

func playerNotFound(id int) error {
	return fmt.Errorf("%w: id %d", ErrPlayerNotFound, id)
}

func teamNotFound(id int) error {
	return fmt.Errorf("%w: id %d", ErrTeamNotFound, id)
}
