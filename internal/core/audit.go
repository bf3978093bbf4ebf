package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/auction/internal/auction"
)

// AuditSeverity represents how disruptive an applied action was.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry is one line of the activity feed.
type AuditEntry struct {
	ID        string        `json:"id"`
	Action    auction.Kind  `json:"action"`
	Severity  AuditSeverity `json:"severity"`
	PlayerID  int           `json:"playerId,omitempty"`
	TeamID    int           `json:"teamId,omitempty"`
	Price     int           `json:"price,omitempty"`
	Message   string        `json:"message"`
	Warning   string        `json:"warning,omitempty"`
	Actor     string        `json:"actor"`
	IPAddress string        `json:"ipAddress,omitempty"`
	UserAgent string        `json:"userAgent,omitempty"`
	RequestID string        `json:"requestId,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// determineSeverity ranks an action for the activity feed.
func determineSeverity(kind auction.Kind) AuditSeverity {
	switch kind {
	case auction.KindReset, auction.KindReplaceFromImport:
		return SeverityCritical
	case auction.KindDeletePlayer, auction.KindDeleteTeam:
		return SeverityHigh
	case auction.KindAssign, auction.KindUnassign:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// auditLog is a bounded ring of the most recent entries, newest last.
type auditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	next    int
	full    bool
}

func newAuditLog(limit int) *auditLog {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return &auditLog{entries: make([]AuditEntry, limit)}
}

func (l *auditLog) add(e AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// recent returns up to n entries, newest first. n <= 0 means all.
func (l *auditLog) recent(n int) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	size := l.next
	if l.full {
		size = len(l.entries)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]AuditEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.next - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}

// describe renders a one-line summary of an applied action against the
// state it produced (and the one before it, for removals).
func describe(res auction.Result, before, after auction.State) string {
	playerName := func(id int) string {
		if p, _, ok := after.Player(id); ok {
			return p.Name
		}
		if p, _, ok := before.Player(id); ok {
			return p.Name
		}
		return fmt.Sprintf("player %d", id)
	}
	teamName := func(id int) string {
		if t, _, ok := after.Team(id); ok {
			return t.Name
		}
		if t, _, ok := before.Team(id); ok {
			return t.Name
		}
		return fmt.Sprintf("team %d", id)
	}

	switch res.Kind {
	case auction.KindAssign:
		return fmt.Sprintf("%s sold to %s for %d", playerName(res.PlayerID), teamName(res.TeamID), res.Price)
	case auction.KindUnassign:
		return fmt.Sprintf("%s released from %s (%d refunded)", playerName(res.PlayerID), teamName(res.TeamID), res.Price)
	case auction.KindAddPlayer:
		return fmt.Sprintf("%s registered", playerName(res.PlayerID))
	case auction.KindEditPlayer:
		return fmt.Sprintf("%s updated", playerName(res.PlayerID))
	case auction.KindDeletePlayer:
		if res.TeamID != 0 {
			return fmt.Sprintf("%s removed and released from %s", playerName(res.PlayerID), teamName(res.TeamID))
		}
		return fmt.Sprintf("%s removed", playerName(res.PlayerID))
	case auction.KindAddTeam:
		return fmt.Sprintf("%s created", teamName(res.TeamID))
	case auction.KindEditTeam:
		return fmt.Sprintf("%s updated", teamName(res.TeamID))
	case auction.KindDeleteTeam:
		return fmt.Sprintf("%s deleted", teamName(res.TeamID))
	case auction.KindReset:
		return "auction reset to defaults"
	case auction.KindReplaceFromImport:
		return fmt.Sprintf("player pool replaced by import (%d players)", len(after.Players))
	}
	return string(res.Kind)
}

// recordAudit builds, stores and logs the entry for an applied action.
func (s *Service) recordAudit(ctx context.Context, res auction.Result, before, after auction.State) AuditEntry {
	entry := AuditEntry{
		ID:        uuid.NewString(),
		Action:    res.Kind,
		Severity:  determineSeverity(res.Kind),
		PlayerID:  res.PlayerID,
		TeamID:    res.TeamID,
		Price:     res.Price,
		Message:   describe(res, before, after),
		Warning:   res.Warning,
		Actor:     GetActorFromContext(ctx),
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		RequestID: middleware.GetReqID(ctx),
		CreatedAt: s.now(),
	}
	s.audit.add(entry)

	level := slog.LevelInfo
	if entry.Warning != "" {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "action applied",
		"action", entry.Action,
		"severity", entry.Severity,
		"player_id", entry.PlayerID,
		"team_id", entry.TeamID,
		"price", entry.Price,
		"actor", entry.Actor,
		"request_id", entry.RequestID,
		"message", entry.Message,
		"warning", entry.Warning,
	)
	return entry
}

// Activity returns up to limit recent entries, newest first.
func (s *Service) Activity(limit int) []AuditEntry {
	return s.audit.recent(limit)
}
