package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/ingest"
	"github.com/JonMunkholm/auction/internal/metrics"
	"github.com/JonMunkholm/auction/internal/report"
	"github.com/JonMunkholm/auction/internal/storage"
)

// DefaultActivityLimit is the number of activity entries kept in memory.
const DefaultActivityLimit = 500

// PersistTimeout bounds a single snapshot write.
var PersistTimeout = 10 * time.Second

// ErrServiceClosed is returned by Dispatch after Close.
var ErrServiceClosed = errors.New("service closed")

// Options configures a Service. Every field is optional.
type Options struct {
	Metrics       *metrics.Recorder
	Logger        *slog.Logger
	ActivityLimit int
	YearPolicy    ingest.YearPolicy
	// MaxConcurrentImports bounds parallel CSV parses.
	MaxConcurrentImports int
	// Now overrides the clock, for tests.
	Now func() time.Time
	// Intn overrides the random source used by RandomPick, for tests.
	Intn func(int) int
}

// Service owns the live auction state.
type Service struct {
	kv      storage.KV
	metrics *metrics.Recorder
	logger  *slog.Logger
	policy  ingest.YearPolicy
	now     func() time.Time
	intn    func(int) int

	// writeMu serializes Dispatch so each action sees the state produced by
	// the previous one and writes land in order.
	writeMu sync.Mutex

	mu     sync.RWMutex
	state  auction.State
	closed bool

	audit   *auditLog
	events  *broker
	imports *ImportLimiter
}

// NewService loads the stored snapshot (seeding and migrating as needed)
// and returns a ready Service.
func NewService(ctx context.Context, kv storage.KV, opts Options) (*Service, error) {
	if kv == nil {
		return nil, errors.New("nil store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	policy := opts.YearPolicy
	if policy == "" {
		policy = ingest.YearVerbatim
	}

	s := &Service{
		kv:      kv,
		metrics: opts.Metrics,
		logger:  logger,
		policy:  policy,
		now:     now,
		intn:    opts.Intn,
		audit:   newAuditLog(opts.ActivityLimit),
		events:  newBroker(),
		imports: NewImportLimiter(opts.MaxConcurrentImports, 0),
	}

	ld, err := loadState(ctx, kv, logger)
	if err != nil {
		return nil, err
	}
	if ld.seeded || ld.migrated {
		if err := s.persist(ctx, ld.state); err != nil {
			return nil, err
		}
	}
	if ld.seeded {
		logger.Info("seeded default auction", "players", len(ld.state.Players), "teams", len(ld.state.Teams))
	}

	s.state = ld.state
	s.updateGauges(ld.state)
	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() auction.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Summary returns the dashboard aggregates for the current state.
func (s *Service) Summary() auction.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Summary()
}

// Dispatch applies a to the current state. The new state is written to the
// store before it becomes visible; if the write fails the state is left as
// it was and the error wraps "storage write failed".
func (s *Service) Dispatch(ctx context.Context, a auction.Action) (auction.Result, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	before, closed := s.state, s.closed
	s.mu.RUnlock()
	if closed {
		return auction.Result{}, ErrServiceClosed
	}

	kind := ""
	if a != nil {
		kind = string(a.Kind())
	}

	next, res, err := auction.Apply(before, a)
	if err != nil {
		s.metrics.ActionApplied(kind, err)
		s.logger.DebugContext(ctx, "action rejected", "action", kind, "error", err)
		return res, err
	}
	if !res.Changed {
		s.metrics.ActionApplied(kind, nil)
		return res, nil
	}

	if err := s.persist(ctx, next); err != nil {
		s.metrics.ActionApplied(kind, err)
		s.logger.ErrorContext(ctx, "snapshot write failed", "action", kind, "error", err)
		return auction.Result{Kind: res.Kind}, err
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	entry := s.recordAudit(ctx, res, before, next)
	s.metrics.ActionApplied(kind, nil)
	if res.Kind == auction.KindAssign {
		s.metrics.Sale(res.Price)
	}
	s.updateGauges(next)

	sum := next.Summary()
	s.events.publish(Event{
		Type:    EventState,
		Kind:    res.Kind,
		Summary: &sum,
		Message: entry.Message,
		Warning: res.Warning,
		At:      entry.CreatedAt,
	})
	return res, nil
}

// persist writes st to the store in one PutAll.
func (s *Service) persist(ctx context.Context, st auction.State) error {
	entries, err := encodeState(st)
	if err != nil {
		return fmt.Errorf("storage write failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PersistTimeout)
	defer cancel()

	start := time.Now()
	err = s.kv.PutAll(ctx, entries)
	s.metrics.StoreWrite(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("storage write failed: %w", err)
	}
	return nil
}

func (s *Service) updateGauges(st auction.State) {
	if s.metrics == nil {
		return
	}
	sum := st.Summary()
	spent := make(map[string]int, len(st.Teams))
	for _, t := range st.Teams {
		spent[t.Name] = t.Spent
	}
	s.metrics.SetPool(sum.PlayersAssigned, sum.PlayersUnsold, spent)
}

// Select applies the selection policy to a player card.
func (s *Service) Select(playerID int) (auction.Selection, auction.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return auction.Select(s.state, playerID)
}

// Players returns the players matching f in collection order.
func (s *Service) Players(f auction.PlayerFilter) []auction.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return auction.FilterPlayers(s.state.Players, f)
}

// Teams returns a copy of the teams.
func (s *Service) Teams() []auction.Team {
	return s.Snapshot().Teams
}

// RandomPick returns a random player matching f. ok is false when nothing
// matches.
func (s *Service) RandomPick(f auction.PlayerFilter) (auction.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return auction.PickRandom(s.state.Players, f, s.intn)
}

// Report builds the results report for the current state.
func (s *Service) Report() report.Report {
	st := s.Snapshot()
	return report.Build(st.Players, st.Teams, s.now())
}

// Close stops accepting actions, closes subscriber channels and the store.
func (s *Service) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.events.close()
	return s.kv.Close()
}
