package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/auction/internal/console"
)

func newConsoleCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Open the terminal operator console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log lines would corrupt the terminal UI.
			cfg, err := loadConfig(g, io.Discard)
			if err != nil {
				return err
			}
			service, err := openService(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer service.Close()

			return console.Run(service)
		},
	}
}
