package web

import (
	"net/http"

	"github.com/JonMunkholm/auction/internal/auction"
)

type playerRequest struct {
	Name           string `json:"name" validate:"required"`
	Year           string `json:"year"`
	Position       string `json:"position" validate:"omitempty,position"`
	Gender         string `json:"gender" validate:"omitempty,gender"`
	Department     string `json:"department"`
	PrevTournament bool   `json:"prevTournament"`
}

type playerPatchRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	Year           *string `json:"year"`
	Position       *string `json:"position" validate:"omitempty,position"`
	Gender         *string `json:"gender" validate:"omitempty,gender"`
	Department     *string `json:"department"`
	PrevTournament *bool   `json:"prevTournament"`
}

// actionResponse is returned by every state-changing endpoint.
type actionResponse struct {
	Result  auction.Result  `json:"result"`
	Summary auction.Summary `json:"summary"`
}

func (s *Server) respondAction(w http.ResponseWriter, status int, res auction.Result) {
	writeJSONStatus(w, status, actionResponse{Result: res, Summary: s.service.Summary()})
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := auction.ParseFilter(q.Get("position"), q.Get("gender"), q.Get("status"))
	f.Query = q.Get("q")
	writeJSON(w, s.service.Players(f))
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	in := auction.PlayerInput{
		Name:           req.Name,
		Year:           req.Year,
		Department:     req.Department,
		PrevTournament: req.PrevTournament,
	}
	in.Position, _ = auction.ParsePosition(req.Position)
	in.Gender, _ = auction.ParseGender(req.Gender)

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.AddPlayer{Player: in})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusCreated, res)
}

func (s *Server) handleEditPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req playerPatchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	patch := auction.PlayerPatch{
		Name:           req.Name,
		Year:           req.Year,
		Department:     req.Department,
		PrevTournament: req.PrevTournament,
	}
	if req.Position != nil {
		pos, _ := auction.ParsePosition(*req.Position)
		patch.Position = &pos
	}
	if req.Gender != nil {
		g, _ := auction.ParseGender(*req.Gender)
		patch.Gender = &g
	}

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.EditPlayer{ID: id, Patch: patch})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusOK, res)
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := requireConfirm(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.DeletePlayer{ID: id})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusOK, res)
}

// selectResponse tells the UI what to do with a picked card.
type selectResponse struct {
	Selection auction.Selection `json:"selection"`
	Player    auction.Player    `json:"player"`
}

func (s *Server) handleSelectPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sel, p, err := s.service.Select(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, selectResponse{Selection: sel, Player: p})
}
