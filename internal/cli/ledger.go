package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/model"
)

// NewLedgerCommand creates the ledger command group.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect attendance records and sweep history",
	}

	cmd.AddCommand(newLedgerShowCommand(rootOpts))
	cmd.AddCommand(newLedgerHistoryCommand(rootOpts))
	cmd.AddCommand(newLedgerSweepsCommand(rootOpts))

	return cmd
}

func newLedgerShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show [date]",
		Short:         "Show a day's records (default today)",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close(opts.logger())

			date := s.engine.Policy().DateOf(opts.now())
			if len(args) == 1 {
				date = args[0]
			}
			report, err := s.engine.DayReport(commandContext(cmd), date)
			if err != nil {
				return out.Fail("report failed", err)
			}
			return out.Render(report, func(w io.Writer) {
				writeDayReport(w, report)
			})
		},
	}
}

func newLedgerHistoryCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:           "history <name>",
		Short:         "Show a person's records",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close(opts.logger())

			records, err := s.engine.PersonHistory(commandContext(cmd), args[0], from, to)
			if err != nil {
				return out.Fail("history failed", err)
			}
			return out.Render(records, func(w io.Writer) {
				writeRecords(w, records)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")

	return cmd
}

func newLedgerSweepsCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "sweeps",
		Short:         "List completed sweeps, most recent first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close(opts.logger())

			runs, err := s.engine.SweepHistory(commandContext(cmd), limit)
			if err != nil {
				return out.Fail("sweep history failed", err)
			}
			return out.Render(runs, func(w io.Writer) {
				if len(runs) == 0 {
					fmt.Fprintln(w, "(no sweeps)")
					return
				}
				fmt.Fprintf(w, "%-10s %10s %6s %7s  %s\n", "DATE", "CONSIDERED", "ABSENT", "DROPPED", "FINISHED")
				for _, r := range runs {
					fmt.Fprintf(w, "%-10s %10d %6d %7d  %s\n",
						r.Date, r.ConsideredCount, r.AbsentCount, r.DroppedCount, r.FinishedAt.Format(AtLayout))
				}
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sweeps (0 for all)")

	return cmd
}

func writeDayReport(w io.Writer, report engine.DayReport) {
	fmt.Fprintf(w, "Ledger for %s: %d present, %d late, %d absent\n",
		report.Date, report.Present, report.Late, report.Absent)
	writeRecords(w, report.Records)
}

func writeRecords(w io.Writer, records []model.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "(no records)")
		return
	}
	for _, r := range records {
		fmt.Fprintln(w, r)
	}
}
