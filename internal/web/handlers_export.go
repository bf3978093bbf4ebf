package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/core"
	"github.com/JonMunkholm/auction/internal/logging"
	"github.com/JonMunkholm/auction/internal/report"
)

// stateResponse is the full dashboard snapshot.
type stateResponse struct {
	Players []auction.Player         `json:"players"`
	Teams   []auction.Team           `json:"teams"`
	Summary auction.Summary          `json:"summary"`
	Imports core.ImportLimiterStatus `json:"imports"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.service.Snapshot()
	writeJSON(w, stateResponse{
		Players: st.Players,
		Teams:   st.Teams,
		Summary: st.Summary(),
		Imports: s.service.ImportStatus(),
	})
}

// handleActivity returns recent activity, newest first. ?limit=N caps it.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)
	entries := s.service.Activity(limit)
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, entries)
}

// handleExportReport streams the multi-section results CSV.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	rep := s.service.Report()
	setCSVHeaders(w, "auction-report", rep.GeneratedAt)
	if err := rep.WriteCSV(w); err != nil {
		logging.FromContext(r.Context()).Error("report export failed", "error", err)
	}
}

// handleExportPlayers streams the flat player list.
func (s *Server) handleExportPlayers(w http.ResponseWriter, r *http.Request) {
	st := s.service.Snapshot()
	setCSVHeaders(w, "auction-players", time.Now())
	if err := report.WritePlayersCSV(w, st.Players, st.Teams); err != nil {
		logging.FromContext(r.Context()).Error("player export failed", "error", err)
	}
}

func setCSVHeaders(w http.ResponseWriter, base string, at time.Time) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.csv"`, base, at.Format("20060102-150405")))
}

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
