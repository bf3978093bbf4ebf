package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/ingest"
	"github.com/JonMunkholm/auction/internal/metrics"
	"github.com/JonMunkholm/auction/internal/storage"
)

var fixedNow = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, kv storage.KV) *Service {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemory()
	}
	svc, err := NewService(context.Background(), kv, Options{
		Logger:  testLogger(),
		Metrics: metrics.New(),
		Now:     func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestNewServiceSeedsEmptyStore(t *testing.T) {
	kv := storage.NewMemory()
	svc := newTestService(t, kv)

	st := svc.Snapshot()
	if len(st.Teams) != 8 {
		t.Errorf("teams = %d, want 8", len(st.Teams))
	}
	if len(st.Players) != len(auction.SeedPlayers())+8 {
		t.Errorf("players = %d, want seed roster plus 8 captains", len(st.Players))
	}
	if st.Counters.NextPlayerID != 209 || st.Counters.NextTeamID != 9 {
		t.Errorf("counters = %+v, want {209 9}", st.Counters)
	}

	for _, key := range []string{storage.KeyPlayers, storage.KeyTeams, storage.KeyMeta} {
		if _, ok, _ := kv.Get(context.Background(), key); !ok {
			t.Errorf("seeded snapshot missing key %q", key)
		}
	}
}

func TestDispatchPersistsBeforeSwap(t *testing.T) {
	kv := storage.NewMemory()
	svc := newTestService(t, kv)
	ctx := context.Background()

	res, err := svc.Dispatch(ctx, auction.Assign{PlayerID: 1, TeamID: 2, Price: 150})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !res.Changed || res.Price != 150 {
		t.Errorf("result = %+v", res)
	}

	// A fresh service over the same store sees the sale.
	reloaded, err := NewService(ctx, kv, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}
	team, _, _ := reloaded.Snapshot().Team(2)
	if team.Spent != 150 {
		t.Errorf("reloaded spent = %d, want 150", team.Spent)
	}
	p, _, _ := reloaded.Snapshot().Player(1)
	if !p.OwnedBy(2) {
		t.Errorf("reloaded player soldTo = %v, want 2", p.SoldTo)
	}
}

func TestDispatchWriteFailureLeavesStateUnchanged(t *testing.T) {
	kv := storage.NewMemory()
	svc := newTestService(t, kv)
	before := svc.Summary()

	kv.FailPut = errors.New("disk full")
	_, err := svc.Dispatch(context.Background(), auction.Assign{PlayerID: 1, TeamID: 1, Price: 100})
	if err == nil {
		t.Fatal("Dispatch() expected error")
	}
	if !strings.Contains(err.Error(), "storage write failed") {
		t.Errorf("error = %v, want storage write failed", err)
	}
	if MapError(err).Code != "STO001" {
		t.Errorf("MapError code = %s, want STO001", MapError(err).Code)
	}

	after := svc.Summary()
	if after.PlayersAssigned != before.PlayersAssigned || after.TotalSpent != before.TotalSpent {
		t.Errorf("summary changed after failed write: %+v -> %+v", before, after)
	}
	if got := len(svc.Activity(0)); got != 0 {
		t.Errorf("activity entries = %d, want 0", got)
	}
}

func TestDispatchRejectedActionIsNotPersisted(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Dispatch(ctx, auction.Assign{PlayerID: 201, TeamID: 1, Price: 10}); !errors.Is(err, auction.ErrPlayerAlreadySold) {
		t.Fatalf("error = %v, want ErrPlayerAlreadySold", err)
	}
	if _, err := svc.Dispatch(ctx, auction.DeleteTeam{ID: 1}); !errors.Is(err, auction.ErrTeamHasPlayers) {
		t.Fatalf("error = %v, want ErrTeamHasPlayers", err)
	}
	if len(svc.Activity(0)) != 0 {
		t.Error("rejected actions should not reach the activity log")
	}
}

func TestDispatchNoopSkipsAudit(t *testing.T) {
	svc := newTestService(t, nil)

	res, err := svc.Dispatch(context.Background(), auction.Unassign{PlayerID: 1})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Changed {
		t.Error("unassign of unsold player should be a no-op")
	}
	if len(svc.Activity(0)) != 0 {
		t.Error("no-op should not be audited")
	}
}

func TestDispatchPublishesEvents(t *testing.T) {
	svc := newTestService(t, nil)
	events, cancel := svc.Subscribe()
	defer cancel()

	if _, err := svc.Dispatch(context.Background(), auction.Assign{PlayerID: 101, TeamID: 3, Price: 40}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	select {
	case e := <-events:
		if e.Type != EventState || e.Kind != auction.KindAssign {
			t.Errorf("event = %+v", e)
		}
		if e.Summary == nil || e.Summary.TotalSpent != 40 {
			t.Errorf("event summary = %+v, want total spent 40", e.Summary)
		}
		if !strings.Contains(e.Message, "Ananya Sharma") || !strings.Contains(e.Message, "Team Green") {
			t.Errorf("event message = %q", e.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestDispatchAuditsWithContext(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := ContextWithIPAddress(context.Background(), "10.0.0.7")
	ctx = ContextWithUserAgent(ctx, "test-agent")

	if _, err := svc.Dispatch(ctx, auction.DeletePlayer{ID: 2}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	entries := svc.Activity(10)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != auction.KindDeletePlayer || e.Severity != SeverityHigh {
		t.Errorf("entry = %+v", e)
	}
	if e.IPAddress != "10.0.0.7" || e.UserAgent != "test-agent" || e.Actor != "web" {
		t.Errorf("entry context fields = %q %q %q", e.IPAddress, e.UserAgent, e.Actor)
	}
	if e.Message != "Rohan Das removed" {
		t.Errorf("message = %q", e.Message)
	}
	if !e.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, fixedNow)
	}
}

func TestDispatchAfterClose(t *testing.T) {
	svc, err := NewService(context.Background(), storage.NewMemory(), Options{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	events, _ := svc.Subscribe()
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-events; ok {
		t.Error("subscriber channel should be closed")
	}
	if _, err := svc.Dispatch(context.Background(), auction.Reset{}); !errors.Is(err, ErrServiceClosed) {
		t.Errorf("error = %v, want ErrServiceClosed", err)
	}
	if err := svc.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSelectAndRandomPick(t *testing.T) {
	svc := newTestService(t, nil)

	sel, p, err := svc.Select(201)
	if err != nil || sel != auction.SelectionUnassignPrompt || !p.IsCaptain {
		t.Errorf("Select(captain) = %v, %+v, %v", sel, p, err)
	}
	if _, _, err := svc.Select(999); !errors.Is(err, auction.ErrPlayerNotFound) {
		t.Errorf("Select(999) error = %v", err)
	}

	svc.intn = func(int) int { return 0 }
	got, ok := svc.RandomPick(auction.PlayerFilter{Gender: auction.Female})
	if !ok || got.ID != 101 {
		t.Errorf("RandomPick = %+v, %v, want first unsold female", got, ok)
	}
	if _, ok := svc.RandomPick(auction.PlayerFilter{Status: auction.StatusSold, Gender: auction.Female}); ok {
		t.Error("RandomPick should find no sold female player")
	}
}

func TestReportUsesClock(t *testing.T) {
	svc := newTestService(t, nil)
	r := svc.Report()
	if !r.GeneratedAt.Equal(fixedNow) {
		t.Errorf("GeneratedAt = %v", r.GeneratedAt)
	}
	if r.Overview.Teams != 8 {
		t.Errorf("Overview.Teams = %d", r.Overview.Teams)
	}
}

const importCSV = "ts,email,consent,role,name,dept,position,played,year,x,fname,fdept,fpos,fyear\n" +
	"t,a@x,y,Male player,Ravi Kumar,CSE,Striker,yes,3rd,,,,,\n" +
	"t,b@x,y,Female player,,,,no,,,,Lata Rao,ECE,Goalkeeper,1st\n" +
	"t,c@x,y,Manager,Someone,,,,,,,,,\n"

func TestImportReplacesPool(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.Dispatch(ctx, auction.Assign{PlayerID: 3, TeamID: 4, Price: 90}); err != nil {
		t.Fatal(err)
	}

	events, cancel := svc.Subscribe()
	defer cancel()

	res, err := svc.Import(ctx, strings.NewReader(importCSV), ImportRequest{
		FileName:   "reg.csv",
		Size:       int64(len(importCSV)),
		YearPolicy: ingest.YearAdmissionBatch,
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !res.Applied || res.Stats.Players != 2 || res.Stats.SkippedRole != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Captains != 8 {
		t.Errorf("captains = %d, want 8", res.Captains)
	}

	st := svc.Snapshot()
	if len(st.Players) != 10 {
		t.Fatalf("players = %d, want 2 imported + 8 captains", len(st.Players))
	}
	ravi, _, ok := st.Player(1)
	if !ok || ravi.Name != "Ravi Kumar" || ravi.Position != auction.Attacker || ravi.Year != "2023" {
		t.Errorf("player 1 = %+v", ravi)
	}
	lata, _, ok := st.Player(101)
	if !ok || lata.Gender != auction.Female || lata.Year != "2025" {
		t.Errorf("player 101 = %+v", lata)
	}
	for _, team := range st.Teams {
		if team.Spent != 0 {
			t.Errorf("team %d spent = %d after import, want 0", team.ID, team.Spent)
		}
	}

	var sawProgress, sawState bool
	for !sawState {
		select {
		case e := <-events:
			switch e.Type {
			case EventImportProgress:
				sawProgress = e.ImportID == res.ID
			case EventState:
				sawState = e.Kind == auction.KindReplaceFromImport
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	if !sawProgress {
		t.Error("no import progress event")
	}

	if e := svc.Activity(1)[0]; e.Severity != SeverityCritical {
		t.Errorf("import severity = %s, want critical", e.Severity)
	}
}

func TestImportEmptyLeavesState(t *testing.T) {
	svc := newTestService(t, nil)
	before := svc.Snapshot()

	_, err := svc.Import(context.Background(), strings.NewReader("header\n\n"), ImportRequest{})
	if !errors.Is(err, ingest.ErrNoPlayers) {
		t.Fatalf("error = %v, want ErrNoPlayers", err)
	}
	if len(svc.Snapshot().Players) != len(before.Players) {
		t.Error("failed import changed the pool")
	}
}

func TestPreviewImportDoesNotApply(t *testing.T) {
	svc := newTestService(t, nil)
	before := len(svc.Snapshot().Players)

	res, err := svc.PreviewImport(context.Background(), strings.NewReader(importCSV), ImportRequest{FileName: "reg.csv"})
	if err != nil {
		t.Fatalf("PreviewImport() error = %v", err)
	}
	if res.Applied {
		t.Error("preview reported applied")
	}
	if len(res.Sample) != 2 || res.Summary.TotalPlayers != 10 || res.Summary.PlayersAssigned != 8 {
		t.Errorf("preview = %+v", res)
	}
	if res.Sample[0].Year != "3rd" {
		t.Errorf("default policy should keep the year verbatim, got %q", res.Sample[0].Year)
	}
	if got := len(svc.Snapshot().Players); got != before {
		t.Errorf("players = %d after preview, want %d", got, before)
	}
}

func TestImportLogsRangeWarnings(t *testing.T) {
	var buf strings.Builder
	svc, err := NewService(context.Background(), storage.NewMemory(), Options{
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
		Now:    func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	csv := "ts,email,consent,role,name,dept,position,played,year,x,fname,fdept,fpos,fyear\n" +
		strings.Repeat("t,a@x,y,Male player,M,CSE,Striker,yes,3rd,,,,,\n", 101) +
		"t,b@x,y,Female player,,,,no,,,,F,ECE,Goalkeeper,1st\n"

	res, err := svc.Import(context.Background(), strings.NewReader(csv), ImportRequest{FileName: "big.csv"})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(res.Stats.Warnings) != 1 {
		t.Errorf("warnings = %q, want 1", res.Stats.Warnings)
	}
	if _, _, ok := svc.Snapshot().Player(102); !ok {
		t.Error("female player should take id 102")
	}

	out := buf.String()
	for _, want := range []string{"import id ranges overlap", "import_id=" + res.ID, "file=big.csv", "import applied"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
