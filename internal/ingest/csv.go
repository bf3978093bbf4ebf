// Package ingest turns a registration-form CSV export into auction players.
//
// The export has one row per registration. A row may describe a male player
// or a female player, each in its own fixed column range, selected by the
// role column. Malformed rows are skipped rather than reported; a file that
// yields no players at all is an error.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/auction/internal/auction"
)

// ErrNoPlayers is returned when a file produces zero player records.
var ErrNoPlayers = errors.New("empty file: no valid player rows")

const (
	minFields     = 10
	roleColumn    = 3
	flagColumn    = 7
	maleFirstID   = 1
	femaleFirstID = 101
	maxLineBytes  = 1 << 20
)

// columns locates one extractor's fields within a row.
type columns struct {
	name, department, position, year int
}

var (
	maleColumns   = columns{name: 4, department: 5, position: 6, year: 8}
	femaleColumns = columns{name: 11, department: 12, position: 13, year: 14}
)

// Options tune a parse.
type Options struct {
	YearPolicy YearPolicy
	// Size is the input length if known, passed through to Progress.
	Size int64
	// Progress, when set, is called as bytes are consumed.
	Progress func(read, total int64)
}

// Stats counts what happened to each input line.
type Stats struct {
	Lines        int `json:"lines"`
	Players      int `json:"players"`
	Male         int `json:"male"`
	Female       int `json:"female"`
	SkippedShort int `json:"skippedShort"`
	SkippedRole  int `json:"skippedRole"`
	SkippedEmpty int `json:"skippedEmptyName"`
	SkippedLong  int `json:"skippedLong"`
	// Warnings describe id ranges that ran into each other.
	Warnings []string `json:"warnings,omitempty"`
}

// Skipped is the total number of data rows that produced no player.
func (s Stats) Skipped() int {
	return s.SkippedShort + s.SkippedRole + s.SkippedEmpty + s.SkippedLong
}

// Result is the outcome of a successful parse.
type Result struct {
	Players []auction.Player
	Stats   Stats
}

// Parse reads a registration CSV from r. Players come back in source line
// order. The context is checked between lines.
//
// Male rows are numbered from 1 and female rows from 101. When more than
// 100 male rows arrive the female range moves up past the last male id, so
// ids stay unique, and a warning is added to Stats.
func Parse(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	br := bufio.NewReaderSize(wrap(r, opts.Size, opts.Progress), 64*1024)

	var (
		res    Result
		maleID = maleFirstID
		header = true
	)
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		raw, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		if tooLong {
			res.Stats.Lines++
			res.Stats.SkippedLong++
			continue
		}
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Stats.Lines++

		fields := SplitLine(strings.ToValidUTF8(line, "?"))
		if len(fields) < minFields {
			res.Stats.SkippedShort++
			continue
		}

		role := ParseRole(fields[roleColumn])
		var cols columns
		switch role {
		case RoleMale:
			cols = maleColumns
		case RoleFemale:
			cols = femaleColumns
		default:
			res.Stats.SkippedRole++
			continue
		}

		p, ok := extract(fields, cols, opts.YearPolicy)
		if !ok {
			res.Stats.SkippedEmpty++
			continue
		}
		if role == RoleFemale {
			p.Gender = auction.Female
			res.Stats.Female++
		} else {
			p.Gender = auction.Male
			p.ID = maleID
			maleID++
			res.Stats.Male++
		}
		res.Players = append(res.Players, p)
	}

	res.Stats.Players = len(res.Players)
	if len(res.Players) == 0 {
		return res, ErrNoPlayers
	}
	numberFemales(&res)
	return res, nil
}

// numberFemales assigns female ids once the male count is known and records
// range collisions.
func numberFemales(res *Result) {
	lastMale := maleFirstID + res.Stats.Male - 1
	femaleID := femaleFirstID
	if res.Stats.Female > 0 && lastMale >= femaleID {
		femaleID = lastMale + 1
		res.Stats.Warnings = append(res.Stats.Warnings, fmt.Sprintf(
			"%d male rows overrun the male id range; female ids start at %d", res.Stats.Male, femaleID))
	}
	maxID := lastMale
	for i := range res.Players {
		if res.Players[i].Gender == auction.Female {
			res.Players[i].ID = femaleID
			maxID = max(maxID, femaleID)
			femaleID++
		}
	}

	captains := len(auction.SeedCaptains())
	if maxID >= auction.CaptainFirstID {
		hidden := min(maxID-auction.CaptainFirstID+1, captains)
		res.Stats.Warnings = append(res.Stats.Warnings, fmt.Sprintf(
			"player ids reach %d; %d captain ids are taken and those captains will not be kept", maxID, hidden))
	}
}

// readLine returns the next line without its newline. A line longer than
// maxLineBytes is consumed and reported as tooLong. io.EOF is returned only
// when no bytes remain.
func readLine(br *bufio.Reader) (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF:
			if len(buf) == 0 && !tooLong {
				return "", false, io.EOF
			}
		case err != nil:
			return "", false, err
		}
		return strings.TrimSuffix(string(buf), "\n"), tooLong, nil
	}
}

// ReadFile parses the CSV at path.
func ReadFile(ctx context.Context, path string, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	if opts.Size == 0 {
		if info, err := f.Stat(); err == nil {
			opts.Size = info.Size()
		}
	}
	return Parse(ctx, f, opts)
}

// field returns fields[i] or "" when the row is too short.
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func extract(fields []string, cols columns, policy YearPolicy) (auction.Player, bool) {
	name := field(fields, cols.name)
	if name == "" {
		return auction.Player{}, false
	}
	return auction.Player{
		Name:           name,
		Department:     field(fields, cols.department),
		Position:       NormalizePosition(field(fields, cols.position)),
		Year:           policy.Apply(field(fields, cols.year)),
		PrevTournament: ParseFlag(field(fields, flagColumn)),
	}, true
}

// SplitLine tokenizes one line on commas. A quote toggles quoted mode, in
// which commas are literal. Quotes are dropped and every field is trimmed.
// Doubled quotes are not treated as escapes.
func SplitLine(line string) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ',' && !inQuote:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(cur.String()))
}
