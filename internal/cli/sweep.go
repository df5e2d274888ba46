package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/model"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	Force bool
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep [date]",
		Short: "Mark everyone without a record as absent",
		Long: `Close a session: every active person without a record for the date
gets an absent record, and anyone whose absences reach the drop threshold
is dropped. Running it again for the same date changes nothing.

The date defaults to today. Sweeping a date whose attendance window has
not closed yet is refused unless --force is given.

Examples:
  rollcall sweep
  rollcall sweep 2026-10-15
  rollcall sweep --force`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := ""
			if len(args) == 1 {
				date = args[0]
			}
			return runSweep(opts, date, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "sweep even if the attendance window is still open")

	return cmd
}

func runSweep(opts *SweepOptions, date string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	s, err := opts.open()
	if err != nil {
		return err
	}
	defer s.Close(opts.logger())

	pol := s.engine.Policy()
	now := opts.now()
	if date == "" {
		date = pol.DateOf(now)
	}

	if !opts.Force {
		closed, err := pol.WindowClosed(date, now)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid date %q", date), err)
		}
		if !closed {
			msg := fmt.Sprintf("attendance window for %s closes at %s; use --force to sweep now", date, pol.LateEnd)
			if err := out.Error(CodeWindowOpen, msg, nil); err != nil {
				return err
			}
			exitErr := NewExitError(ExitFailure, msg)
			exitErr.Reported = true
			return exitErr
		}
	}

	report, err := s.engine.SweepAbsences(commandContext(cmd), date)
	if err != nil {
		// Completed units are durable; report them before failing.
		out.VerboseLog("sweep stopped after %d people: %s", len(report.Processed), strings.Join(report.Processed, ", "))
		return out.Fail("sweep failed", err)
	}

	return out.Render(report, func(w io.Writer) {
		writeSweepReport(w, report)
	})
}

func writeSweepReport(w io.Writer, report model.SweepReport) {
	fmt.Fprintln(w, report)
	if len(report.Absent) > 0 {
		fmt.Fprintf(w, "  absent:  %s\n", strings.Join(report.Absent, ", "))
	}
	if len(report.Dropped) > 0 {
		fmt.Fprintf(w, "  dropped: %s\n", strings.Join(report.Dropped, ", "))
	}
}
