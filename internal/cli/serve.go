package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/web"
)

// shutdownTimeout bounds graceful shutdown after a signal.
const shutdownTimeout = 30 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the attendance API over HTTP",
		Long: `Serve the attendance engine as a JSON API under /api/v1.

Recognition clients post to /api/v1/attendance or /api/v1/scans; an
operator or cron job posts to /api/v1/sweeps after each session.

Examples:
  rollcall serve
  rollcall serve --addr 127.0.0.1:9000 --db attendance.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default http.addr from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	s, err := opts.open()
	if err != nil {
		return err
	}
	defer s.Close(opts.logger())

	addr := opts.Addr
	if addr == "" {
		addr = s.cfg.HTTP.Addr
	}
	server := web.NewServer(s.engine, addr, opts.Clock, opts.logger())

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			opts.logger().Error("error during shutdown", "error", err)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s (policy: %s)\n", s.cfg.Database.Path, addr, s.engine.Policy())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
