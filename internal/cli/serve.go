package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"provider-finder/internal/server"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

The server provides endpoints for:
- Searching providers by name, category and address
- Listing the categories present in the directory
- Exporting a search as an xlsx workbook
- Health checks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.String("host", "", "Server host")
	f.Int("port", 0, "Server port")
	f.String("mode", "", "Server mode (debug, release, test)")
	a.v.BindPFlag("server.host", f.Lookup("host"))
	a.v.BindPFlag("server.port", f.Lookup("port"))
	a.v.BindPFlag("server.mode", f.Lookup("mode"))
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	svc, closeCache, err := a.buildService()
	if err != nil {
		return err
	}
	defer closeCache()

	srv := server.New(a.cfg, svc, a.log)
	srv.Setup()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.log.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		a.log.Info("server stopped gracefully")
		return nil
	}
}
