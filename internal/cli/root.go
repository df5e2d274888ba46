package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/config"
	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/policy"
	"github.com/roach88/rollcall/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // overrides database.path from the config file
	ConfigPath string

	// Clock supplies the current time for recognition events and sweeps.
	// If nil, the system clock is used.
	Clock policy.Clock

	// Logger is installed by the root command. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rollcall CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollcall",
		Short: "rollcall - attendance ledger",
		Long: `rollcall keeps a roster and a daily attendance ledger.

Recognition events (face, badge or manual) are classified against the
attendance policy, an absence sweep closes each session, and members who
miss too many sessions are dropped until reactivated.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env file is optional, don't fail if not found
			_ = godotenv.Load()

			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config and "+config.EnvDB+")")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (.yaml, .yml or .cue)")

	// Add subcommands
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewPersonCommand(opts))
	cmd.AddCommand(NewCardCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *RootOptions) now() time.Time {
	if o.Clock != nil {
		return o.Clock.Now()
	}
	return time.Now()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadConfig reads --config and applies --db.
func (o *RootOptions) loadConfig() (config.File, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.File{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database.Path = o.Database
	}
	return cfg, nil
}

// session is an open store and the engine built on it.
type session struct {
	cfg    config.File
	store  *store.Store
	engine *engine.Engine
}

// open loads configuration, opens the database and builds the engine.
// Callers must Close the session.
func (o *RootOptions) open() (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	pol, err := cfg.BuildPolicy()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid policy", err)
	}
	retry, err := cfg.EngineRetry()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid retry settings", err)
	}
	busy, err := cfg.BusyTimeout()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid database settings", err)
	}

	logger := o.logger()
	logger.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path, store.WithBusyTimeout(busy))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithRetry(retry),
	}
	if o.Clock != nil {
		opts = append(opts, engine.WithClock(o.Clock))
	}
	eng, err := engine.New(st, pol, opts...)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create engine", err)
	}

	return &session{cfg: cfg, store: st, engine: eng}, nil
}

func (s *session) Close(logger *slog.Logger) {
	if err := s.store.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}
