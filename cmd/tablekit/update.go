package main

import (
	"github.com/spf13/cobra"
)

func newUpdateCmd(a *app) *cobra.Command {
	var with []string
	cmd := &cobra.Command{
		Use:   "update <table> <json> [id...]",
		Short: "Update rows, cascading to included relations",
		Long: `Update writes the columns of a JSON object to the row named by its primary
key field or by the given ids. Nested objects under an included relation's
name are written to the related rows. Prints the affected row counts per
table; relations without a nested payload are reported as false.

Example:
  tablekit update customers '{"id":7,"name":"anna","profile":{"bio":"x"}}' --with profile`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseRows(args[1])
			if err != nil {
				return err
			}
			e, err := a.engine(args[0])
			if err != nil {
				return err
			}
			res, err := e.With(with...).Update(cmd.Context(), data, parseKeys(args[2:]))
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), totals(res)); err != nil {
				return err
			}
			return writeAudit(cmd.ErrOrStderr(), e)
		},
	}
	cmd.Flags().StringSliceVar(&with, "with", nil, "relations to cascade to (comma separated)")
	return cmd
}
