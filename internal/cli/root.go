// Package cli wires the auction commands: the web server, one-shot import,
// export and reset, and the terminal console.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	envFile       string
	storageDriver string
	storagePath   string
	logLevel      string
}

// NewRootCommand creates the root command for the CLI.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "auction",
		Short: "Player auction dashboard",
		Long: `Runs the auction dashboard and the operator tools around it.

Settings come from the environment (optionally a .env file). Storage flags
override STORAGE_DRIVER and STORAGE_PATH for a single run.

Examples:
  auction serve
  auction import registrations.csv --year-policy batch --yes
  auction export --out results.csv
  auction reset --yes
  auction console`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env",
		"Path to a .env file; missing files are ignored")
	rootCmd.PersistentFlags().StringVar(&g.storageDriver, "storage", "",
		"Storage driver: file, sqlite, postgres, memory (overrides STORAGE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&g.storagePath, "data", "",
		"Data directory or sqlite file (overrides STORAGE_PATH)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides LOG_LEVEL)")

	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newImportCommand(g))
	rootCmd.AddCommand(newExportCommand(g))
	rootCmd.AddCommand(newResetCommand(g))
	rootCmd.AddCommand(newConsoleCommand(g))

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// confirmPrompt asks a yes/no question on out and reads the answer from in.
func confirmPrompt(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	var answer string
	fmt.Fscanln(in, &answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}
