package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"checklistapi/models"
)

func newListCmd(c *cli) *cobra.Command {
	var (
		name   string
		email  string
		cloned bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checklists with optional exact-match filters",
		Long: `List prints the stored checklists ordered by id.

Filters are exact and case-sensitive; several filters are ANDed together.
--cloned=false also matches checklists that never recorded isCloned.

Example:
  checklistctl list
  checklistctl list --name Trip
  checklistctl list --email anonymous@example.com --json
  checklistctl list --cloned=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.ListFilter{}
			if cmd.Flags().Changed("name") {
				filter["name"] = name
			}
			if cmd.Flags().Changed("email") {
				filter["userEmail"] = email
			}
			// Originals usually store isCloned as null, so --cloned=false
			// cannot be an exact match and is applied after listing.
			originalsOnly := false
			if cmd.Flags().Changed("cloned") {
				if cloned {
					filter["isCloned"] = true
				} else {
					originalsOnly = true
				}
			}

			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			list, err := svc.ListChecklists(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if originalsOnly {
				list = originals(list)
			}

			if c.jsonOutput {
				output, err := json.MarshalIndent(list, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal checklists: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(list))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "only checklists with this exact name")
	cmd.Flags().StringVar(&email, "email", "", "only checklists owned by this email")
	cmd.Flags().BoolVar(&cloned, "cloned", false, "only cloned checklists; --cloned=false lists originals (isCloned unset or false)")

	return cmd
}

func originals(list []models.Checklist) []models.Checklist {
	out := []models.Checklist{}
	for _, c := range list {
		if c.IsCloned == nil || !*c.IsCloned {
			out = append(out, c)
		}
	}
	return out
}

func renderTable(list []models.Checklist) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "CATEGORIES", "EMAIL", "CLONED FROM", "UPDATED")

	for _, c := range list {
		email, clonedFrom := "", ""
		if c.UserEmail != nil {
			email = *c.UserEmail
		}
		if c.ClonedFrom != nil {
			clonedFrom = *c.ClonedFrom
		}
		t.Row(
			c.ID,
			c.Name,
			strconv.Itoa(len(c.Categories)),
			email,
			clonedFrom,
			c.UpdatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return t.String()
}
