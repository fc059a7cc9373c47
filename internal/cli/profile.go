package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func profileName(username string) string {
	if username == "" {
		return "(global)"
	}
	return username
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or switch the active profile",
		Long: `Each profile keeps its own trade collection. The profile chosen with
"use" is remembered and opened by later commands; "clear" returns to the
shared global collection.`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			fmt.Fprintln(cmd.OutOrStdout(), profileName(s.svc.Profile()))
			return nil
		}),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "use <username>",
			Short: "Switch to a profile and remember it",
			Args:  cobra.ExactArgs(1),
			RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
				if err := s.svc.SwitchProfile(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s (%d trades)\n", s.svc.Profile(), len(s.svc.Trades()))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the remembered profile",
			Args:  cobra.NoArgs,
			RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
				if err := s.svc.SwitchProfile(cmd.Context(), ""); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Switched to (global)")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List profiles that have trades stored",
			Args:  cobra.NoArgs,
			RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
				names, err := s.svc.Profiles().List(cmd.Context())
				if err != nil {
					return err
				}
				current := s.svc.Profile()
				for _, name := range names {
					marker := " "
					if name == current {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
				}
				return nil
			}),
		},
	)
	return cmd
}
