package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/model"
)

// NewPersonCommand creates the person command group.
func NewPersonCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage the roster",
	}

	cmd.AddCommand(newPersonAddCommand(rootOpts))
	cmd.AddCommand(newPersonListCommand(rootOpts))
	cmd.AddCommand(newPersonShowCommand(rootOpts))
	cmd.AddCommand(newPersonLifecycleCommand(rootOpts, "drop", "Drop an active person", (*engine.Engine).Drop))
	cmd.AddCommand(newPersonLifecycleCommand(rootOpts, "reactivate", "Reactivate a dropped person and zero their counters", (*engine.Engine).Reactivate))
	cmd.AddCommand(newPersonResetCommand(rootOpts))
	cmd.AddCommand(newPersonImportCommand(rootOpts))

	return cmd
}

func newPersonAddCommand(opts *RootOptions) *cobra.Command {
	var image string

	cmd := &cobra.Command{
		Use:           "add <name>",
		Short:         "Register a person",
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

			p, err := s.engine.RegisterPerson(commandContext(cmd), args[0], image, opts.now())
			if err != nil {
				return out.Fail("register failed", err)
			}
			return out.Render(p, func(w io.Writer) {
				fmt.Fprintf(w, "Registered %s\n", p.Name)
			})
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "path of the person's reference image")

	return cmd
}

func newPersonListCommand(opts *RootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the roster",
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

			people, err := s.engine.ListPeople(commandContext(cmd), model.Lifecycle(status))
			if err != nil {
				return out.Fail("list failed", err)
			}
			return out.Render(people, func(w io.Writer) {
				writePeople(w, people)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (active|dropped)")

	return cmd
}

func newPersonShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Show a person's status and counters",
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

			p, err := s.engine.Person(commandContext(cmd), args[0])
			if err != nil {
				return out.Fail("lookup failed", err)
			}
			return out.Render(p, func(w io.Writer) {
				writePerson(w, p)
			})
		},
	}
}

// lifecycleFunc matches (*engine.Engine).Drop and (*engine.Engine).Reactivate.
type lifecycleFunc func(e *engine.Engine, ctx context.Context, name string, now time.Time) (model.Person, error)

func newPersonLifecycleCommand(opts *RootOptions, use, short string, apply lifecycleFunc) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <name>",
		Short:         short,
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

			p, err := apply(s.engine, commandContext(cmd), args[0], opts.now())
			if err != nil {
				return out.Fail(use+" failed", err)
			}
			return out.Render(p, func(w io.Writer) {
				fmt.Fprintf(w, "%s is now %s\n", p.Name, p.Status)
			})
		},
	}
}

func newPersonResetCommand(opts *RootOptions) *cobra.Command {
	var (
		counter string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "reset [name]",
		Short: "Zero absence counters",
		Long: `Zero a person's absence counters, or everyone's with --all.
Lifecycle status is not changed.

Examples:
  rollcall person reset Ada
  rollcall person reset Ada --counter consecutive
  rollcall person reset --all`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return NewExitError(ExitCommandError, "give either a name or --all")
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			out := opts.formatter(cmd)
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close(opts.logger())

			n, err := s.engine.ResetCounters(commandContext(cmd), name, model.Counter(counter), opts.now())
			if err != nil {
				return out.Fail("reset failed", err)
			}
			data := map[string]interface{}{"counter": counter, "updated": n}
			if name != "" {
				data["person"] = name
			}
			return out.Render(data, func(w io.Writer) {
				fmt.Fprintf(w, "Reset %s counters for %d people\n", counter, n)
			})
		},
	}

	cmd.Flags().StringVar(&counter, "counter", string(model.CounterBoth), "counters to zero (both|total|consecutive)")
	cmd.Flags().BoolVar(&all, "all", false, "reset everyone")

	return cmd
}

func newPersonImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Register a person for each reference image in a directory",
		Long: `Register a person for every .jpg, .jpeg, .png or .jfif file in a
directory, named after the file stem. People already on the roster are
skipped.

Example:
  rollcall person import ./known_faces`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)

			images, err := engine.ReferenceImages(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read image directory", err)
			}

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close(opts.logger())

			bar := progressbar.NewOptions(len(images),
				progressbar.OptionSetWriter(out.GetErrWriter()),
				progressbar.OptionSetDescription("Importing"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetItsString("images"),
				progressbar.OptionClearOnFinish(),
			)
			result, err := s.engine.Import(commandContext(cmd), images, opts.now(), func(img engine.ReferenceImage, added bool) {
				_ = bar.Add(1)
				out.VerboseLog("%s: added=%t", img.Path, added)
			})
			_ = bar.Finish()
			if err != nil {
				return out.Fail("import failed", err)
			}

			return out.Render(result, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %d people (%d already on the roster)\n", len(result.Added), len(result.Skipped))
				for _, name := range result.Added {
					fmt.Fprintf(w, "  + %s\n", name)
				}
			})
		},
	}
}

func writePeople(w io.Writer, people []model.Person) {
	if len(people) == 0 {
		fmt.Fprintln(w, "(no people)")
		return
	}
	fmt.Fprintf(w, "%-24s %-8s %5s %11s\n", "NAME", "STATUS", "TOTAL", "CONSECUTIVE")
	for _, p := range people {
		fmt.Fprintf(w, "%-24s %-8s %5d %11d\n", p.Name, p.Status, p.TotalAbsences, p.ConsecutiveAbsences)
	}
}

func writePerson(w io.Writer, p model.Person) {
	fmt.Fprintf(w, "Name:                 %s\n", p.Name)
	fmt.Fprintf(w, "Status:               %s\n", p.Status)
	fmt.Fprintf(w, "Total absences:       %d\n", p.TotalAbsences)
	fmt.Fprintf(w, "Consecutive absences: %d\n", p.ConsecutiveAbsences)
	if p.ImagePath != "" {
		fmt.Fprintf(w, "Image:                %s\n", p.ImagePath)
	}
	fmt.Fprintf(w, "Last updated:         %s\n", p.LastUpdated.Format(AtLayout))
}
