package main

import (
	"github.com/spf13/cobra"
)

func newInsertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <table> <json>",
		Short: "Insert one row or an array of rows",
		Long: `Insert writes a JSON object, or every object of a JSON array, and prints
the new ids in input order.

Example:
  tablekit insert customers '{"name":"ann"}'
  tablekit insert customers '[{"name":"bob"},{"name":"cy"}]'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseRows(args[1])
			if err != nil {
				return err
			}
			e, err := a.engine(args[0])
			if err != nil {
				return err
			}
			res, err := e.Insert(cmd.Context(), data)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), map[string]any{"ids": res.IDs, "aborted": res.Aborted}); err != nil {
				return err
			}
			return writeAudit(cmd.ErrOrStderr(), e)
		},
	}
}
