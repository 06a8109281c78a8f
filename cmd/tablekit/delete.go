package main

import (
	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	var with []string
	cmd := &cobra.Command{
		Use:   "delete <table> <id...>",
		Short: "Delete rows by primary key, cascading to included relations",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(args[0])
			if err != nil {
				return err
			}
			res, err := e.With(with...).Delete(cmd.Context(), parseKeys(args[1:]))
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
