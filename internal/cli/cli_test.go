package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/auction/internal/core"
)

const registrations = "ts,email,consent,role,name,dept,position,played,year,x,fname,fdept,fpos,fyear\n" +
	"t,a@x,y,Male player,Ravi Kumar,CSE,Striker,yes,3rd,,,,,\n" +
	"t,b@x,y,Female player,,,,no,,,,Lata Rao,ECE,Goalkeeper,1st\n"

type cliEnv struct {
	dataDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{dataDir: t.TempDir()}
}

// run executes the root command with the storage flags pointed at the
// test directory and returns stdout.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{
		"--env-file", filepath.Join(e.dataDir, "missing.env"),
		"--storage", "file",
		"--data", e.dataDir,
		"--log-level", "error",
	}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "registrations.csv")
	if err := os.WriteFile(path, []byte(registrations), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportThenExport(t *testing.T) {
	env := newCLIEnv(t)
	path := writeCSV(t, t.TempDir())

	out, err := env.run(t, "", "import", path, "--yes", "--year-policy", "batch")
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if !strings.Contains(out, "Imported 2 players (1 male, 1 female)") || !strings.Contains(out, "Captains kept: 8") {
		t.Errorf("import output = %q", out)
	}

	out, err = env.run(t, "", "export", "--players")
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	if !strings.Contains(out, "Ravi Kumar,2023,ATT,male") || !strings.Contains(out, "Lata Rao,2025,GK,female") {
		t.Errorf("players csv = %q", out)
	}
	if strings.Contains(out, "Arjun Mehta") {
		t.Error("seed player survived the import")
	}
}

func TestImportDeclined(t *testing.T) {
	env := newCLIEnv(t)
	path := writeCSV(t, t.TempDir())

	out, err := env.run(t, "n\n", "import", path)
	if !errors.Is(err, core.ErrConfirmationRequired) {
		t.Fatalf("err = %v, want confirmation required", err)
	}
	if !strings.Contains(out, "Parsed 2 players") || !strings.Contains(out, "[y/N]") {
		t.Errorf("preview output = %q", out)
	}

	out, _ = env.run(t, "", "export", "--players")
	if !strings.Contains(out, "Arjun Mehta") {
		t.Error("declined import changed the pool")
	}
}

func TestImportDryRun(t *testing.T) {
	env := newCLIEnv(t)
	path := writeCSV(t, t.TempDir())

	out, err := env.run(t, "", "import", path, "--dry-run", "--yes")
	if err != nil {
		t.Fatalf("dry run error = %v", err)
	}
	if !strings.Contains(out, "Parsed 2 players") || strings.Contains(out, "Imported") {
		t.Errorf("dry run output = %q", out)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(path string) []string
		want string
	}{
		{"bad year policy", func(p string) []string { return []string{"import", p, "--yes", "--year-policy", "fiscal"} }, "invalid year policy"},
		{"missing file", func(p string) []string { return []string{"import", p + ".nope", "--yes"} }, "no such file"},
		{"no argument", func(string) []string { return []string{"import"} }, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			_, err := env.run(t, "", tt.args(writeCSV(t, t.TempDir()))...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestResetAndReportFile(t *testing.T) {
	env := newCLIEnv(t)
	path := writeCSV(t, t.TempDir())
	if _, err := env.run(t, "", "import", path, "--yes"); err != nil {
		t.Fatal(err)
	}

	if _, err := env.run(t, "", "reset"); !errors.Is(err, core.ErrConfirmationRequired) {
		t.Errorf("reset without answer err = %v", err)
	}

	out, err := env.run(t, "", "reset", "--yes")
	if err != nil {
		t.Fatalf("reset error = %v", err)
	}
	if !strings.Contains(out, "Auction reset: 20 players, 8 teams") {
		t.Errorf("reset output = %q", out)
	}

	reportPath := filepath.Join(t.TempDir(), "results.csv")
	if _, err := env.run(t, "", "export", "--out", reportPath); err != nil {
		t.Fatalf("export error = %v", err)
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Auction Overview", "Team Roster: Team Gold", "Arjun Mehta"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestConfigErrorsSurface(t *testing.T) {
	t.Setenv("IMPORT_YEAR_POLICY", "fiscal")
	env := newCLIEnv(t)
	_, err := env.run(t, "", "export")
	if err == nil || !strings.Contains(err.Error(), "IMPORT_YEAR_POLICY") {
		t.Errorf("err = %v", err)
	}
}
