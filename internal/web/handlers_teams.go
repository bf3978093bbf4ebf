package web

import (
	"net/http"

	"github.com/JonMunkholm/auction/internal/auction"
)

type teamRequest struct {
	Name   string `json:"name" validate:"required"`
	Budget int    `json:"budget" validate:"gt=0"`
	Owner  string `json:"owner"`
}

type teamPatchRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1"`
	Budget *int    `json:"budget" validate:"omitempty,gt=0"`
	Owner  *string `json:"owner"`
}

// teamView adds the derived budget figures to a team.
type teamView struct {
	auction.Team
	Remaining  int  `json:"remaining"`
	OverBudget bool `json:"overBudget"`
	Players    int  `json:"players"`
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	st := s.service.Snapshot()
	out := make([]teamView, 0, len(st.Teams))
	for _, t := range st.Teams {
		out = append(out, teamView{
			Team:       t,
			Remaining:  t.Remaining(),
			OverBudget: t.OverBudget(),
			Players:    len(st.Roster(t.ID)),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleAddTeam(w http.ResponseWriter, r *http.Request) {
	req := teamRequest{Budget: s.cfg.Auction.DefaultBudget}
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.AddTeam{Team: auction.TeamInput{
		Name:   req.Name,
		Budget: req.Budget,
		Owner:  req.Owner,
	}})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusCreated, res)
}

func (s *Server) handleEditTeam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req teamPatchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.EditTeam{ID: id, Patch: auction.TeamPatch{
		Name:   req.Name,
		Budget: req.Budget,
		Owner:  req.Owner,
	}})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusOK, res)
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := requireConfirm(r); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Dispatch(WithRequestMetadata(r.Context(), r), auction.DeleteTeam{ID: id})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondAction(w, http.StatusOK, res)
}
