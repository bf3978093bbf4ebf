package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/auction/internal/report"
)

func newExportCommand(g *globalFlags) *cobra.Command {
	var (
		outPath string
		players bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the auction report as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			service, err := openService(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer service.Close()

			var (
				w    io.Writer = cmd.OutOrStdout()
				file *os.File
			)
			if outPath != "" && outPath != "-" {
				if file, err = os.Create(outPath); err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			if players {
				st := service.Snapshot()
				err = report.WritePlayersCSV(w, st.Players, st.Teams)
			} else {
				err = service.Report().WriteCSV(w)
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if file == nil {
				return nil
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&players, "players", false, "Export the flat player list instead of the report")
	return cmd
}
