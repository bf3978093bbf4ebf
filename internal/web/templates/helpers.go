// Package templates holds the templ components for the dashboard and the
// printable report. The *_templ.go files are generated from the .templ
// sources; run `go generate` in this directory after editing them.
package templates

//go:generate templ generate

import (
	"strconv"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/report"
)

// Dashboard tabs.
const (
	TabPlayers = "players"
	TabTeams   = "teams"
)

// DashboardData is everything the dashboard page shows.
type DashboardData struct {
	Summary auction.Summary
	Tab     string
	Filter  auction.PlayerFilter
	Players []auction.Player
	Teams   []auction.Team
	// TeamNames resolves soldTo ids for the players table.
	TeamNames     map[int]string
	DefaultBudget int
}

var (
	statuses = []auction.Status{auction.StatusAll, auction.StatusSold, auction.StatusUnsold}
	genders  = []auction.Gender{auction.Male, auction.Female}
)

const styles = `<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1d232b}
header{background:#1d3557;color:#fff;padding:.8rem 1.5rem;display:flex;gap:1.5rem;align-items:center}
header a{color:#fff;text-decoration:none;font-weight:600}
main{padding:1.5rem;max-width:1200px;margin:0 auto}
table{border-collapse:collapse;width:100%;background:#fff;margin-bottom:1.5rem}
th,td{padding:.4rem .6rem;border-bottom:1px solid #e3e6ea;text-align:left}
td.num,th.num{text-align:right}
.stats{display:flex;gap:1rem;flex-wrap:wrap;margin-bottom:1.5rem}
.stat{background:#fff;border-radius:6px;padding:.8rem 1.2rem;min-width:9rem}
.stat b{display:block;font-size:1.6rem}
.warn{color:#b3261e;font-weight:600}
.sold{color:#2e7d32}
.alert{border:1px solid #b3261e;background:#fdecea;padding:.8rem 1rem;border-radius:6px;margin-bottom:1rem}
.tabs a{margin-right:1rem}
form.filters{margin-bottom:1rem;display:flex;gap:.5rem;align-items:center}
section.page{page-break-before:always}
section.page:first-of-type{page-break-before:auto}
@media print{header,form,.noprint{display:none}body{background:#fff}}
</style>`

// liveReload reloads the page when another operator changes the auction.
const liveReload = `<script>
(function(){
  if(!window.EventSource)return;
  var es=new EventSource("/api/events");
  es.addEventListener("state",function(){window.location.reload();});
})();
</script>`

func playerLabel(p auction.Player) string {
	if p.IsCaptain {
		return p.Name + " (C)"
	}
	return p.Name
}

func teamLabel(names map[int]string, id int) string {
	if name := names[id]; name != "" {
		return name
	}
	return "team " + strconv.Itoa(id)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func oneDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func rosterLine(ro report.Roster) string {
	return "Spent " + strconv.Itoa(ro.Team.Spent) + " of " + strconv.Itoa(ro.Team.Budget) +
		", " + strconv.Itoa(ro.Team.Remaining) + " remaining. " +
		strconv.Itoa(ro.Male) + " male, " + strconv.Itoa(ro.Female) + " female. " +
		"Average price " + oneDecimal(ro.AveragePrice) + "."
}
