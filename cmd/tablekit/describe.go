package main

import (
	"github.com/spf13/cobra"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Print a table's columns and declared relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(args[0])
			if err != nil {
				return err
			}
			cols, err := e.Columns(cmd.Context())
			if err != nil {
				return err
			}
			type relation struct {
				Name  string `json:"name"`
				Table string `json:"table"`
				Model string `json:"model"`
			}
			rels := []relation{}
			for _, r := range e.Relations() {
				rels = append(rels, relation{Name: r.Name, Table: r.Table, Model: r.Model})
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"table":       e.Table(),
				"primary_key": e.PrimaryKey(),
				"columns":     cols,
				"relations":   rels,
			})
		},
	}
}
