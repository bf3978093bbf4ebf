package web

import (
	"net/http"

	"github.com/JonMunkholm/auction/internal/auction"
)

type assignRequest struct {
	PlayerID int `json:"playerId" validate:"gt=0"`
	TeamID   int `json:"teamId" validate:"gt=0"`
	Price    int `json:"price" validate:"gt=0"`
}

type randomPickRequest struct {
	Position string `json:"position"`
	Gender   string `json:"gender"`
	Status   string `json:"status"`
}

// handleAssign records a sale.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.Assign{
		PlayerID: req.PlayerID,
		TeamID:   req.TeamID,
		Price:    req.Price,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusOK, res)
}

// handleUnassign releases a sold player back to the pool. The UI only
// calls this after the operator confirms the prompt returned by select.
func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := requireConfirm(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.Unassign{PlayerID: id})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusOK, res)
}

// handleRandomPick draws a random player for the auctioneer. Without a
// status the draw is from unsold players.
func (s *Server) handleRandomPick(w http.ResponseWriter, r *http.Request) {
	var req randomPickRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	p, ok := s.service.RandomPick(auction.ParseFilter(req.Position, req.Gender, req.Status))
	if !ok {
		writeJSON(w, map[string]any{"found": false})
		return
	}
	writeJSON(w, map[string]any{"found": true, "player": p})
}
