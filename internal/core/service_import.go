package core

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/ingest"
	"github.com/JonMunkholm/auction/internal/logging"
)

// ImportTimeout is the maximum duration for parsing and applying an import.
var ImportTimeout = time.Minute

// previewSize is how many parsed players a preview carries.
const previewSize = 10

// ImportRequest describes one uploaded or local CSV.
type ImportRequest struct {
	FileName string
	// Size is the byte length when known; it drives progress events.
	Size int64
	// YearPolicy overrides the service default when set.
	YearPolicy ingest.YearPolicy
}

// ImportResult reports what an import produced.
type ImportResult struct {
	ID       string           `json:"id"`
	FileName string           `json:"fileName,omitempty"`
	Stats    ingest.Stats     `json:"stats"`
	Captains int              `json:"captains"`
	Sample   []auction.Player `json:"sample,omitempty"`
	Applied  bool             `json:"applied"`
	Summary  auction.Summary  `json:"summary"`
}

// PreviewImport parses the CSV without touching the auction. Summary
// describes the state the import would produce.
func (s *Service) PreviewImport(ctx context.Context, r io.Reader, req ImportRequest) (ImportResult, error) {
	res, parsed, err := s.parseImport(ctx, r, req)
	if err != nil {
		return res, err
	}

	merged := auction.MergeCaptains(parsed)
	res.Captains = len(merged) - len(parsed)
	res.Sample = parsed[:min(previewSize, len(parsed))]
	res.Summary = auction.State{Players: merged, Teams: auction.SeedTeams()}.Summary()
	return res, nil
}

// Import parses the CSV and replaces the player pool with the result.
// Teams return to the seed and captains are merged back in.
func (s *Service) Import(ctx context.Context, r io.Reader, req ImportRequest) (ImportResult, error) {
	res, parsed, err := s.parseImport(ctx, r, req)
	if err != nil {
		return res, err
	}

	if _, err := s.Dispatch(ctx, auction.ReplaceFromImport{Players: parsed}); err != nil {
		return res, err
	}

	st := s.Snapshot()
	res.Captains = len(st.Players) - len(parsed)
	res.Applied = true
	res.Summary = st.Summary()

	s.importLogger(ctx, res).InfoContext(ctx, "import applied",
		"players", res.Stats.Players,
		"male", res.Stats.Male,
		"female", res.Stats.Female,
		"skipped", res.Stats.Skipped(),
	)
	return res, nil
}

func (s *Service) parseImport(ctx context.Context, r io.Reader, req ImportRequest) (ImportResult, []auction.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, ImportTimeout)
	defer cancel()

	res := ImportResult{ID: uuid.NewString(), FileName: req.FileName}
	if err := s.imports.Acquire(ctx); err != nil {
		return res, nil, err
	}
	defer s.imports.Release()

	policy := req.YearPolicy
	if policy == "" {
		policy = s.policy
	}

	lastPct := int64(-1)
	parsed, err := ingest.Parse(ctx, r, ingest.Options{
		YearPolicy: policy,
		Size:       req.Size,
		Progress: func(read, total int64) {
			// One event per whole percent; unknown sizes report every read.
			if total > 0 {
				pct := read * 100 / total
				if pct == lastPct {
					return
				}
				lastPct = pct
			}
			s.events.publish(Event{
				Type:      EventImportProgress,
				ImportID:  res.ID,
				Message:   req.FileName,
				BytesRead: read,
				BytesSize: total,
				At:        s.now(),
			})
		},
	})
	res.Stats = parsed.Stats
	s.metrics.ImportFinished(parsed.Stats.Players, parsed.Stats.Skipped(), err)
	logger := s.importLogger(ctx, res)
	if err != nil {
		logger.WarnContext(ctx, "import rejected", "error", err)
		return res, nil, err
	}
	for _, w := range parsed.Stats.Warnings {
		logger.WarnContext(ctx, "import id ranges overlap", "detail", w)
	}
	return res, parsed.Players, nil
}

func (s *Service) importLogger(ctx context.Context, res ImportResult) *slog.Logger {
	return logging.WithFields(ctx, s.logger, "import_id", res.ID, "file", res.FileName)
}

// ImportStatus reports how many import slots are in use.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.imports.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.imports.WaitForDrain(ctx)
}
