package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/auction/internal/metrics"
	"github.com/JonMunkholm/auction/internal/web"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, os.Stdout)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			slog.Info("configuration loaded",
				"port", cfg.Server.Port,
				"storage", cfg.Storage.Driver,
				"rate_limit_enabled", cfg.Rate.Enabled,
				"require_api_key", cfg.Security.RequireAPIKey,
			)

			rec := metrics.New()
			service, err := openService(cmd.Context(), cfg, rec)
			if err != nil {
				return err
			}
			defer service.Close()

			server := web.NewServer(service, cfg, rec)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if st := service.ImportStatus(); st.Active > 0 {
				slog.Info("waiting for imports to complete", "active", st.Active)
				if err := service.WaitForImports(shutdownCtx); err != nil {
					slog.Warn("imports did not complete in time", "error", err)
				}
			}

			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides SERVER_PORT)")
	return cmd
}
