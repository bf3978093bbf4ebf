package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/auction/internal/core"
	"github.com/JonMunkholm/auction/internal/ingest"
)

func newImportCommand(g *globalFlags) *cobra.Command {
	var (
		yes        bool
		dryRun     bool
		yearPolicy string
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Replace the player pool with a registration CSV",
		Long: `Parses a registration export and replaces every non-captain player.
All sales are cleared and teams return to the defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			req := core.ImportRequest{FileName: args[0]}
			if yearPolicy != "" {
				if req.YearPolicy, err = ingest.ParseYearPolicy(yearPolicy); err != nil {
					return err
				}
			}

			service, err := openService(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer service.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			if info, err := f.Stat(); err == nil {
				req.Size = info.Size()
			}

			out := cmd.OutOrStdout()
			if dryRun || !yes {
				res, err := service.PreviewImport(cmd.Context(), f, req)
				if err != nil {
					return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
				}
				printImport(cmd, res)
				if dryRun {
					return nil
				}
				if !confirmPrompt(cmd.InOrStdin(), out, "Replace the current player pool?") {
					return core.ErrConfirmationRequired
				}
				if _, err := f.Seek(0, io.SeekStart); err != nil {
					return err
				}
			}

			res, err := service.Import(core.ContextWithActor(cmd.Context(), "cli"), f, req)
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}
			printImport(cmd, res)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply without asking for confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what the import would do")
	cmd.Flags().StringVar(&yearPolicy, "year-policy", "", "Year policy: verbatim, batch, graduation (overrides IMPORT_YEAR_POLICY)")
	return cmd
}

func printImport(cmd *cobra.Command, res core.ImportResult) {
	out := cmd.OutOrStdout()
	verb := "Parsed"
	if res.Applied {
		verb = "Imported"
	}
	fmt.Fprintf(out, "%s %d players (%d male, %d female) from %s\n",
		verb, res.Stats.Players, res.Stats.Male, res.Stats.Female, res.FileName)
	if n := res.Stats.Skipped(); n > 0 {
		fmt.Fprintf(out, "  Skipped: %d (short %d, role %d, no name %d, too long %d)\n",
			n, res.Stats.SkippedShort, res.Stats.SkippedRole, res.Stats.SkippedEmpty, res.Stats.SkippedLong)
	}
	for _, w := range res.Stats.Warnings {
		fmt.Fprintf(out, "  Warning: %s\n", w)
	}
	fmt.Fprintf(out, "  Captains kept: %d\n", res.Captains)
	fmt.Fprintf(out, "  Pool after import: %d players, %d teams\n", res.Summary.TotalPlayers, res.Summary.Teams)
}
