package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	var (
		with    []string
		flatten bool
		full    bool
		audit   bool
	)
	cmd := &cobra.Command{
		Use:   "get <table> [id...]",
		Short: "Fetch rows by primary key",
		Long: `Get fetches one row (one id), several rows (several ids) or every row
(no id) of a table. --with includes declared relations; dotted names such
as orders.items reach relations of related tables.

Example:
  tablekit get customers 7 --with orders.items
  tablekit get customers 7 --with profile --flatten --full`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(args[0])
			if err != nil {
				return err
			}
			if audit {
				e.SetAudit(true)
			}

			s := e.With(with...)
			if flatten || full {
				s.Flatten(full)
			}
			res, err := s.Get(cmd.Context(), parseKeys(args[1:]))
			if err != nil {
				return err
			}
			if res.Aborted {
				return fmt.Errorf("get %s: aborted by hook", args[0])
			}
			if res.Single && res.Data == nil {
				return fmt.Errorf("%s %s: not found", args[0], args[1])
			}
			if err := writeJSON(cmd.OutOrStdout(), res.Data); err != nil {
				return err
			}
			return writeAudit(cmd.ErrOrStderr(), e)
		},
	}
	cmd.Flags().StringSliceVar(&with, "with", nil, "relations to include (comma separated)")
	cmd.Flags().BoolVar(&flatten, "flatten", false, "collapse single-row results")
	cmd.Flags().BoolVar(&full, "full", false, "merge single related rows into their parent (implies --flatten)")
	cmd.Flags().BoolVar(&audit, "audit", false, "print the executed statements to stderr")
	return cmd
}
