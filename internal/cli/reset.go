package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/core"
)

func newResetCommand(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default roster and teams",
		Long:  `Clears every sale and restores the seed players, teams and captains.`,
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

			if !yes && !confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), "Reset the auction? Every sale is cleared.") {
				return core.ErrConfirmationRequired
			}

			if _, err := service.Dispatch(core.ContextWithActor(cmd.Context(), "cli"), auction.Reset{}); err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}
			s := service.Summary()
			fmt.Fprintf(cmd.OutOrStdout(), "Auction reset: %d players, %d teams\n", s.TotalPlayers, s.Teams)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Reset without asking for confirmation")
	return cmd
}
