package ingest

import (
	"testing"

	"github.com/JonMunkholm/auction/internal/auction"
)

func TestNormalizePosition(t *testing.T) {
	tests := []struct {
		in   string
		want auction.Position
	}{
		{"Goalkeeper", auction.Goalkeeper},
		{"keeper", auction.Goalkeeper},
		{"Defender (CB)", auction.Defender},
		{"defence", auction.Defender},
		{"MIDFIELDER", auction.Midfielder},
		{"Forward or Attacker", auction.Attacker},
		{"striker", auction.Attacker},
		{"", auction.Midfielder},
		{"anywhere", auction.Midfielder},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizePosition(tt.in); got != tt.want {
				t.Errorf("NormalizePosition(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"yes", "Y", "TRUE", "1", "t", " Yes "} {
		if !ParseFlag(s) {
			t.Errorf("ParseFlag(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "no", "n", "0", "maybe"} {
		if ParseFlag(s) {
			t.Errorf("ParseFlag(%q) = true, want false", s)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"Male Player", RoleMale},
		{"Female Player", RoleFemale},
		{"FEMALE", RoleFemale},
		{"Team Manager", RoleSkip},
		{"Male Manager", RoleSkip},
		{"", RoleSkip},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseRole(tt.in); got != tt.want {
				t.Errorf("ParseRole(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseYearPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    YearPolicy
		wantErr bool
	}{
		{"", YearVerbatim, false},
		{"Verbatim", YearVerbatim, false},
		{"batch", YearAdmissionBatch, false},
		{" graduation ", YearGraduation, false},
		{"fiscal", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYearPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestYearPolicyApply(t *testing.T) {
	tests := []struct {
		name   string
		policy YearPolicy
		in     string
		want   string
	}{
		{"verbatim trims", YearVerbatim, "  4th year (Batch 2022) ", "4th year (Batch 2022)"},
		{"graduation ordinal", YearGraduation, "2nd year", "2028"},
		{"graduation ordinal beats batch", YearGraduation, "4th year (Batch 2022)", "2026"},
		{"batch ordinal beats batch", YearAdmissionBatch, "1st year, Batch 2023", "2025"},
		{"graduation batch only", YearGraduation, "Batch 2024", "2024"},
		{"spelled ordinal", YearAdmissionBatch, "Third Year", "2023"},
		{"unmatched kept", YearGraduation, "alumni", "alumni"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Apply(tt.in); got != tt.want {
				t.Errorf("%s.Apply(%q) = %q, want %q", tt.policy, tt.in, got, tt.want)
			}
		})
	}
}
