package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rollcall/internal/model"
)

// NewCardCommand creates the card command group.
func NewCardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage badge links",
	}

	cmd.AddCommand(newCardLinkCommand(rootOpts))
	cmd.AddCommand(newCardResolveCommand(rootOpts))
	cmd.AddCommand(newCardUnlinkCommand(rootOpts))
	cmd.AddCommand(newCardListCommand(rootOpts))

	return cmd
}

func newCardLinkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link <card-id> <name>",
		Short: "Link a badge to a person",
		Long: `Link a badge to a person. Relinking a badge to its current owner is a
no-op; a badge linked to someone else must be unlinked first.

Example:
  rollcall card link AA:BB:CC:DD "Ada Lovelace"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close(opts.logger())

			link, err := s.engine.LinkCard(commandContext(cmd), args[0], args[1], opts.now())
			if err != nil {
				return out.Fail("link failed", err)
			}
			return out.Render(link, func(w io.Writer) {
				fmt.Fprintf(w, "%s -> %s\n", link.CardID, link.PersonName)
			})
		},
	}
}

// ResolveResult is the JSON payload of card resolve.
type ResolveResult struct {
	CardID     string `json:"card_id"`
	PersonName string `json:"person_name"`
}

func newCardResolveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "resolve <card-id>",
		Short:         "Print the person a badge is linked to",
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

			name, err := s.engine.ResolveCard(commandContext(cmd), args[0])
			if err != nil {
				return out.Fail("resolve failed", err)
			}
			data := ResolveResult{CardID: model.NormalizeCardID(args[0]), PersonName: name}
			return out.Render(data, func(w io.Writer) {
				fmt.Fprintln(w, name)
			})
		},
	}
}

func newCardUnlinkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "unlink <card-id>",
		Short:         "Deactivate a badge link",
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

			link, err := s.engine.UnlinkCard(commandContext(cmd), args[0])
			if err != nil {
				return out.Fail("unlink failed", err)
			}
			return out.Render(link, func(w io.Writer) {
				fmt.Fprintf(w, "%s unlinked from %s\n", link.CardID, link.PersonName)
			})
		},
	}
}

func newCardListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List badge links",
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

			links, err := s.engine.ListCards(commandContext(cmd))
			if err != nil {
				return out.Fail("list failed", err)
			}
			return out.Render(links, func(w io.Writer) {
				if len(links) == 0 {
					fmt.Fprintln(w, "(no cards)")
					return
				}
				fmt.Fprintf(w, "%-20s %-24s %s\n", "CARD", "PERSON", "ACTIVE")
				for _, l := range links {
					fmt.Fprintf(w, "%-20s %-24s %t\n", l.CardID, l.PersonName, l.Active)
				}
			})
		},
	}
}
