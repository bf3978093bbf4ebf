package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/config"
	"github.com/JonMunkholm/auction/internal/core"
	"github.com/JonMunkholm/auction/internal/metrics"
	"github.com/JonMunkholm/auction/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			RequestTimeout:  5 * time.Second,
			EventsHeartbeat: time.Second,
		},
		Import:   config.ImportConfig{MaxFileSize: 1 << 20, YearPolicy: "verbatim", Timeout: time.Second, MaxConcurrent: 2},
		Security: config.SecurityConfig{EnableCSP: true},
		Auction:  config.AuctionConfig{DefaultBudget: 1000, ActivityLimit: 50},
	}
}

type testEnv struct {
	srv     *Server
	service *core.Service
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	rec := metrics.New()
	svc, err := core.NewService(context.Background(), storage.NewMemory(), core.Options{
		Metrics: rec,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	srv := NewServer(svc, cfg, rec)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		svc.Close()
	})
	return &testEnv{srv: srv, service: svc}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	if got := decode[ErrorResponse](t, rec).Code; got != code {
		t.Errorf("code = %q, want %q", got, code)
	}
}

func TestState(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	st := decode[stateResponse](t, rec)
	if len(st.Players) != 20 || len(st.Teams) != 8 || st.Summary.PlayersAssigned != 8 {
		t.Errorf("state = %d players, %d teams, summary %+v", len(st.Players), len(st.Teams), st.Summary)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing price", `{"playerId":1,"teamId":2}`, http.StatusBadRequest, "VAL005"},
		{"negative price", `{"playerId":1,"teamId":2,"price":-5}`, http.StatusBadRequest, "VAL005"},
		{"missing team", `{"playerId":1,"price":10}`, http.StatusBadRequest, "VAL001"},
		{"unknown team", `{"playerId":1,"teamId":99,"price":10}`, http.StatusNotFound, "REF002"},
		{"unknown player", `{"playerId":999,"teamId":1,"price":10}`, http.StatusNotFound, "REF001"},
		{"captain already sold", `{"playerId":201,"teamId":2,"price":10}`, http.StatusConflict, "LED001"},
		{"malformed", `{"playerId":`, http.StatusBadRequest, "VAL006"},
		{"unknown field", `{"player":1}`, http.StatusBadRequest, "VAL006"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			expectError(t, env.do(t, http.MethodPost, "/api/assign", tt.body), tt.status, tt.code)
		})
	}

	t.Run("sale recorded", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/api/assign", `{"playerId":1,"teamId":2,"price":1200}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[actionResponse](t, rec)
		if resp.Summary.TotalSpent != 1200 || resp.Result.Warning == "" {
			t.Errorf("response = %+v, want spent 1200 with over-budget warning", resp)
		}
		team, _, _ := env.service.Snapshot().Team(2)
		if team.Spent != 1200 {
			t.Errorf("team spent = %d", team.Spent)
		}
	})
}

func TestSelectThenUnassign(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/assign", `{"playerId":3,"teamId":5,"price":70}`)

	rec := env.do(t, http.MethodPost, "/api/players/3/select", "")
	if got := decode[selectResponse](t, rec); got.Selection != auction.SelectionUnassignPrompt {
		t.Fatalf("selection = %q", got.Selection)
	}
	rec = env.do(t, http.MethodPost, "/api/players/4/select", "")
	if got := decode[selectResponse](t, rec); got.Selection != auction.SelectionOpenAssign {
		t.Errorf("unsold selection = %q", got.Selection)
	}
	expectError(t, env.do(t, http.MethodPost, "/api/players/abc/select", ""), http.StatusBadRequest, "VAL007")

	expectError(t, env.do(t, http.MethodPost, "/api/unassign/3", ""), http.StatusConflict, "CONF001")

	rec = env.do(t, http.MethodPost, "/api/unassign/3?confirm=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unassign status = %d", rec.Code)
	}
	team, _, _ := env.service.Snapshot().Team(5)
	if team.Spent != 0 {
		t.Errorf("spent after unassign = %d, want 0", team.Spent)
	}
}

func TestPlayerCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	expectError(t, env.do(t, http.MethodPost, "/api/players", `{"year":"2024"}`), http.StatusBadRequest, "VAL001")
	expectError(t, env.do(t, http.MethodPost, "/api/players", `{"name":"X","position":"sweeper"}`), http.StatusBadRequest, "VAL002")
	expectError(t, env.do(t, http.MethodPost, "/api/players", `{"name":"X","gender":"other"}`), http.StatusBadRequest, "VAL003")

	rec := env.do(t, http.MethodPost, "/api/players", `{"name":"Tara Bose","position":"goalkeeper","gender":"f"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	id := decode[actionResponse](t, rec).Result.PlayerID
	if id != 209 {
		t.Errorf("new id = %d, want 209", id)
	}
	p, _, _ := env.service.Snapshot().Player(id)
	if p.Position != auction.Goalkeeper || p.Gender != auction.Female {
		t.Errorf("player = %+v", p)
	}

	rec = env.do(t, http.MethodPatch, "/api/players/209", `{"position":"ATT","department":"ME"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d", rec.Code)
	}
	p, _, _ = env.service.Snapshot().Player(id)
	if p.Position != auction.Attacker || p.Department != "ME" || p.Name != "Tara Bose" {
		t.Errorf("patched player = %+v", p)
	}
	expectError(t, env.do(t, http.MethodPatch, "/api/players/209", `{"name":""}`), http.StatusBadRequest, "VAL001")

	// Missing id is a silent no-op.
	rec = env.do(t, http.MethodPatch, "/api/players/5000", `{"name":"Ghost"}`)
	if rec.Code != http.StatusOK || decode[actionResponse](t, rec).Result.Changed {
		t.Errorf("edit of missing player = %d %s", rec.Code, rec.Body.String())
	}

	expectError(t, env.do(t, http.MethodDelete, "/api/players/209", ""), http.StatusConflict, "CONF001")
	rec = env.do(t, http.MethodDelete, "/api/players/209", "", "X-Confirm", "true")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if _, _, ok := env.service.Snapshot().Player(209); ok {
		t.Error("player still present after delete")
	}

	rec = env.do(t, http.MethodGet, "/api/players?position=GK&status=UNSOLD", "")
	for _, p := range decode[[]auction.Player](t, rec) {
		if p.Position != auction.Goalkeeper || p.Sold() {
			t.Errorf("filter leaked %+v", p)
		}
	}
}

func TestTeamCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	expectError(t, env.do(t, http.MethodPost, "/api/teams", `{"budget":100}`), http.StatusBadRequest, "VAL001")
	expectError(t, env.do(t, http.MethodPost, "/api/teams", `{"name":"Broke","budget":-1}`), http.StatusBadRequest, "VAL004")

	rec := env.do(t, http.MethodPost, "/api/teams", `{"name":"Team Teal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", rec.Code, rec.Body.String())
	}
	id := decode[actionResponse](t, rec).Result.TeamID
	team, _, _ := env.service.Snapshot().Team(id)
	if id != 9 || team.Budget != 1000 {
		t.Errorf("team = %+v, want id 9 with default budget", team)
	}

	env.do(t, http.MethodPost, "/api/assign", `{"playerId":1,"teamId":9,"price":300}`)
	rec = env.do(t, http.MethodPatch, "/api/teams/9", `{"budget":200}`)
	if w := decode[actionResponse](t, rec).Result.Warning; w == "" {
		t.Error("budget below spent should warn")
	}

	rec = env.do(t, http.MethodGet, "/api/teams", "")
	views := decode[[]teamView](t, rec)
	if last := views[len(views)-1]; !last.OverBudget || last.Remaining != -100 || last.Players != 1 {
		t.Errorf("team view = %+v", last)
	}

	expectError(t, env.do(t, http.MethodDelete, "/api/teams/9?confirm=true", ""), http.StatusConflict, "LED002")
	env.do(t, http.MethodPost, "/api/unassign/1?confirm=true", "")
	if rec := env.do(t, http.MethodDelete, "/api/teams/9?confirm=true", ""); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRandomPick(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/random-pick", `{"gender":"female"}`)
	got := decode[struct {
		Found  bool           `json:"found"`
		Player auction.Player `json:"player"`
	}](t, rec)
	if !got.Found || got.Player.Gender != auction.Female || got.Player.Sold() {
		t.Errorf("pick = %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/api/random-pick", `{"gender":"female","status":"SOLD"}`)
	if decode[map[string]any](t, rec)["found"] != false {
		t.Error("expected no sold female player")
	}
}

const uploadCSV = "ts,email,consent,role,name,dept,position,played,year,x\n" +
	"t,a@x,y,Male player,Ravi Kumar,CSE,Defender,yes,2nd,\n"

func multipartBody(t *testing.T, filename, contentType, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(part, content)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, path, filename, contentType, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, contentType, content, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestImport(t *testing.T) {
	confirm := map[string]string{"confirm": "true"}

	t.Run("not a csv", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.upload(t, "/api/import", "players.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", uploadCSV, confirm)
		expectError(t, rec, http.StatusUnsupportedMediaType, "FILE002")
	})
	t.Run("csv name with image type", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.upload(t, "/api/import", "players.csv", "image/png", uploadCSV, confirm)
		expectError(t, rec, http.StatusUnsupportedMediaType, "FILE002")
	})
	t.Run("no file", func(t *testing.T) {
		env := newTestEnv(t, nil)
		expectError(t, env.upload(t, "/api/import", "", "", "", confirm), http.StatusBadRequest, "FILE003")
	})
	t.Run("too large", func(t *testing.T) {
		env := newTestEnv(t, func(c *config.Config) { c.Import.MaxFileSize = 16 })
		rec := env.upload(t, "/api/import", "players.csv", "text/csv", uploadCSV, confirm)
		expectError(t, rec, http.StatusRequestEntityTooLarge, "FILE001")
	})
	t.Run("needs confirmation", func(t *testing.T) {
		env := newTestEnv(t, nil)
		expectError(t, env.upload(t, "/api/import", "players.csv", "text/csv", uploadCSV, nil), http.StatusConflict, "CONF001")
	})
	t.Run("no players", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.upload(t, "/api/import", "players.csv", "text/csv", "header only\n", confirm)
		expectError(t, rec, http.StatusBadRequest, "IMP001")
	})
	t.Run("bad year policy", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.upload(t, "/api/import", "players.csv", "text/csv", uploadCSV, map[string]string{"confirm": "true", "year_policy": "fiscal"})
		expectError(t, rec, http.StatusBadRequest, "IMP002")
	})
	t.Run("applied", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.upload(t, "/api/import", "players.csv", "text/csv", uploadCSV, map[string]string{"confirm": "true", "year_policy": "graduation"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		res := decode[core.ImportResult](t, rec)
		if !res.Applied || res.Stats.Players != 1 || res.Summary.TotalPlayers != 9 {
			t.Errorf("result = %+v", res)
		}
		p, _, _ := env.service.Snapshot().Player(1)
		if p.Name != "Ravi Kumar" || p.Year != "2028" || p.Position != auction.Defender {
			t.Errorf("imported player = %+v", p)
		}
	})
	t.Run("preview", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.upload(t, "/api/import/preview", "players.csv", "", uploadCSV, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if res := decode[core.ImportResult](t, rec); res.Applied || len(res.Sample) != 1 {
			t.Errorf("preview = %+v", res)
		}
		if n := len(env.service.Snapshot().Players); n != 20 {
			t.Errorf("players = %d after preview, want 20", n)
		}
	})
}

func TestReset(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/assign", `{"playerId":1,"teamId":2,"price":50}`)

	expectError(t, env.do(t, http.MethodPost, "/api/reset", ""), http.StatusConflict, "CONF001")
	if rec := env.do(t, http.MethodPost, "/api/reset?confirm=true", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.service.Summary().TotalSpent != 0 {
		t.Error("reset left spending behind")
	}

	rec := env.do(t, http.MethodGet, "/api/activity?limit=1", "")
	entries := decode[[]core.AuditEntry](t, rec)
	if len(entries) != 1 || entries[0].Action != auction.KindReset || entries[0].Severity != core.SeverityCritical {
		t.Errorf("activity = %+v", entries)
	}
	if entries[0].RequestID == "" {
		t.Error("activity entry missing request id")
	}
}

func TestExports(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/assign", `{"playerId":2,"teamId":1,"price":80}`)

	rec := env.do(t, http.MethodGet, "/api/export/players.csv", "")
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "auction-players-") {
		t.Errorf("disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if !strings.HasPrefix(rec.Body.String(), "id,name,year,position") || !strings.Contains(rec.Body.String(), "Rohan Das") {
		t.Errorf("players csv = %q", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/export/report.csv", "")
	for _, want := range []string{"Auction Overview", "Team Roster: Team Red"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("report csv missing %q", want)
		}
	}
}

func TestPages(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/?position=GK", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<title>Auction dashboard</title>") {
		t.Fatalf("dashboard = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Rohan Das") {
		t.Error("position filter ignored")
	}

	rec = env.do(t, http.MethodGet, "/?tab=teams", "")
	if !strings.Contains(rec.Body.String(), "Team Gold") {
		t.Error("teams tab missing teams")
	}

	rec = env.do(t, http.MethodGet, "/report", "", "HX-Request", "true")
	body := rec.Body.String()
	if strings.Contains(body, "<html") || !strings.Contains(body, "Auction results") {
		t.Error("HTMX report should render the fragment only")
	}
}

func TestHTMXErrorFragment(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/reset", "", "HX-Request", "true")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `class="alert"`) || !strings.Contains(rec.Body.String(), "CONF001") {
		t.Errorf("fragment = %q", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/assign", `{"playerId":1,"teamId":1,"price":10}`)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{
		`auction_ledger_actions_total{kind="assign",outcome="ok"} 1`,
		`auction_ledger_sales_total 1`,
		`route="/api/assign"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, ImportLimit: 1}
	})
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/api/state", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/api/state", "")
	expectError(t, rec, http.StatusTooManyRequests, "RATE001")
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestOperatorKeyGuardsWrites(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"s3cret"}
	})
	if rec := env.do(t, http.MethodGet, "/api/state", ""); rec.Code != http.StatusOK {
		t.Errorf("read status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/reset?confirm=true", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("write without key = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/reset?confirm=true", "", "X-API-Key", "s3cret"); rec.Code != http.StatusOK {
		t.Errorf("write with key = %d", rec.Code)
	}
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(prefix string) string {
		t.Helper()
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q: %v", prefix, lines.Err())
		return ""
	}

	waitFor("event: hello")

	if _, err := env.service.Dispatch(context.Background(), auction.Assign{PlayerID: 6, TeamID: 7, Price: 33}); err != nil {
		t.Fatal(err)
	}
	waitFor("event: state")
	data := strings.TrimPrefix(waitFor("data: "), "data: ")

	var e core.Event
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if e.Kind != auction.KindAssign || e.Summary == nil || e.Summary.TotalSpent != 33 {
		t.Errorf("event = %+v", e)
	}
}
