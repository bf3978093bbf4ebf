package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/web/templates"
)

// handleDashboard renders the main page. Query parameters: tab, position,
// status, gender.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	st := s.service.Snapshot()

	filter := auction.ParseFilter(q.Get("position"), q.Get("gender"), q.Get("status"))
	tab := templates.TabPlayers
	if q.Get("tab") == templates.TabTeams {
		tab = templates.TabTeams
	}

	names := make(map[int]string, len(st.Teams))
	for _, t := range st.Teams {
		names[t.ID] = t.Name
	}

	body := templates.Dashboard(templates.DashboardData{
		Summary:       st.Summary(),
		Tab:           tab,
		Filter:        filter,
		Players:       auction.FilterPlayers(st.Players, filter),
		Teams:         st.Teams,
		TeamNames:     names,
		DefaultBudget: s.cfg.Auction.DefaultBudget,
	})
	s.renderPage(w, r, "Auction dashboard", true, body)
}

// handleReportPage renders the printable results.
func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "Auction report", false, templates.ReportPage(s.service.Report()))
}

// renderPage serves body alone for HTMX requests and wrapped in the
// layout otherwise.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, title string, live bool, body templ.Component) {
	page := body
	if !isHTMX(r) {
		page = templates.Layout(title, live, body)
	}
	templ.Handler(page).ServeHTTP(w, r)
}
