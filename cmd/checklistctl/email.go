package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const defaultPlaceholderEmail = "anonymous@example.com"

func newAssignEmailCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "assign-email <email>",
		Short: "Set the owner email on every checklist that has none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			changed, err := svc.AssignEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %d checklist(s)\n", args[0], changed)
			return nil
		},
	}
}

func newReplaceEmailCmd(c *cli) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "replace-email <new-email>",
		Short: "Move checklists from one owner email to another",
		Long: `replace-email rewrites userEmail on every checklist owned by --from.
The default --from is the placeholder address older clients stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			changed, err := svc.ReplaceEmail(cmd.Context(), from, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d checklist(s) from %s to %s\n", changed, from, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", defaultPlaceholderEmail, "email to replace")
	return cmd
}
