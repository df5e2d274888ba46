package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/model"
)

// AtLayout is the format accepted by --at, in the policy timezone.
const AtLayout = "2006-01-02 15:04:05"

// RecordOptions holds flags for the record and scan commands.
type RecordOptions struct {
	*RootOptions
	Channel string
	At      string
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <name>",
		Short: "Record a recognition event for a person",
		Long: `Record a recognition event for a person.

The event is classified against the attendance policy. The first event of
a day is stored; later events the same day report the stored status and
change nothing. Events outside the window are reported and ignored.

Exit codes:
  0 - Recorded, already recorded, or outside the window
  1 - Unknown or dropped person
  2 - Command error (bad config, database unavailable, etc.)

Examples:
  rollcall record "Ada Lovelace"
  rollcall record Ada --channel manual --at "2026-10-15 12:40:00"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, func(ctx context.Context, eng *engine.Engine, now time.Time) (engine.Outcome, error) {
				return eng.RecordAttendance(ctx, args[0], model.Channel(opts.Channel), now)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Channel, "channel", string(model.ChannelFace), "provenance tag (face|rfid|manual)")
	cmd.Flags().StringVar(&opts.At, "at", "", `event time "YYYY-MM-DD HH:MM:SS" in the policy timezone (default now)`)

	return cmd
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan <card-id>",
		Short: "Record a badge scan",
		Long: `Resolve a badge to its linked person and record attendance on the
rfid channel.

Example:
  rollcall scan AA:BB:CC:DD`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, func(ctx context.Context, eng *engine.Engine, now time.Time) (engine.Outcome, error) {
				return eng.RecordCardScan(ctx, args[0], now)
			})
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", `scan time "YYYY-MM-DD HH:MM:SS" in the policy timezone (default now)`)

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command, record func(context.Context, *engine.Engine, time.Time) (engine.Outcome, error)) error {
	out := opts.formatter(cmd)

	s, err := opts.open()
	if err != nil {
		return err
	}
	defer s.Close(opts.logger())

	now, err := opts.eventTime(s.engine, opts.At)
	if err != nil {
		return err
	}

	outcome, err := record(commandContext(cmd), s.engine, now)
	if err != nil {
		return out.Fail("record failed", err)
	}
	return out.Success(outcome)
}

// eventTime parses at in the policy timezone, or returns the current time.
func (o *RootOptions) eventTime(eng *engine.Engine, at string) (time.Time, error) {
	if at == "" {
		return o.now(), nil
	}
	t, err := time.ParseInLocation(AtLayout, at, eng.Policy().Location)
	if err != nil {
		return time.Time{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --at %q", at), err)
	}
	return t, nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
