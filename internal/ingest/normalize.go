package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/auction/internal/auction"
)

// positionKeywords is checked in order; the first substring hit wins.
var positionKeywords = []struct {
	words []string
	pos   auction.Position
}{
	{[]string{"goalkeeper", "keeper"}, auction.Goalkeeper},
	{[]string{"defender", "defence", "defense"}, auction.Defender},
	{[]string{"midfielder", "midfield"}, auction.Midfielder},
	{[]string{"forward", "attacker", "striker"}, auction.Attacker},
}

// NormalizePosition maps free-text position answers to a position code.
// Anything unrecognized becomes a midfielder.
func NormalizePosition(s string) auction.Position {
	lower := strings.ToLower(s)
	for _, kw := range positionKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				return kw.pos
			}
		}
	}
	return auction.Midfielder
}

// ParseFlag reports whether s is an affirmative answer.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "t":
		return true
	}
	return false
}

// Role is the registrant category read from the role column.
type Role int

const (
	RoleSkip Role = iota
	RoleMale
	RoleFemale
)

func (r Role) String() string {
	switch r {
	case RoleMale:
		return "male"
	case RoleFemale:
		return "female"
	default:
		return "skip"
	}
}

// ParseRole classifies a role tag. "female" is tested before "male" since
// one contains the other; managers and anything else are skipped.
func ParseRole(tag string) Role {
	lower := strings.ToLower(tag)
	switch {
	case strings.Contains(lower, "manager"):
		return RoleSkip
	case strings.Contains(lower, "female"):
		return RoleFemale
	case strings.Contains(lower, "male"):
		return RoleMale
	}
	return RoleSkip
}

// YearPolicy decides how the free-text cohort answer becomes Player.Year.
type YearPolicy string

const (
	// YearVerbatim keeps the answer exactly as entered (trimmed).
	YearVerbatim YearPolicy = "verbatim"
	// YearAdmissionBatch maps study year to admission year: 1st → 2025 … 4th → 2022.
	YearAdmissionBatch YearPolicy = "batch"
	// YearGraduation maps study year to graduation year: 4th → 2026 … 1st → 2029.
	YearGraduation YearPolicy = "graduation"
)

// ParseYearPolicy accepts a policy name; empty means YearVerbatim.
func ParseYearPolicy(s string) (YearPolicy, error) {
	switch p := YearPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return YearVerbatim, nil
	case YearVerbatim, YearAdmissionBatch, YearGraduation:
		return p, nil
	}
	return "", fmt.Errorf("invalid year policy %q: want verbatim, batch or graduation", s)
}

var batchPattern = regexp.MustCompile(`(?i)batch\s*(\d{4})`)

var ordinalYears = []struct {
	words      []string
	admission  string
	graduation string
}{
	{[]string{"1st", "first"}, "2025", "2029"},
	{[]string{"2nd", "second"}, "2024", "2028"},
	{[]string{"3rd", "third"}, "2023", "2027"},
	{[]string{"4th", "fourth"}, "2022", "2026"},
}

// Apply converts a raw cohort answer under the policy. A study year word
// wins over a "Batch NNNN" mention in the same answer. Answers that match
// no rule are kept verbatim.
func (p YearPolicy) Apply(raw string) string {
	raw = strings.TrimSpace(raw)
	if p == YearVerbatim || p == "" {
		return raw
	}
	lower := strings.ToLower(raw)
	for _, oy := range ordinalYears {
		for _, w := range oy.words {
			if strings.Contains(lower, w) {
				if p == YearGraduation {
					return oy.graduation
				}
				return oy.admission
			}
		}
	}
	if m := batchPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}
