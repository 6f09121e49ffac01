package cli

import (
	"fmt"

	"github.com/coderi421/rowkit/orm"
	"github.com/spf13/cobra"
)

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the current database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := orm.ListTables(cmd.Context(), a.db)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func newExistsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <table>",
		Short: "Report whether a table exists in the current database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := orm.TableExists(cmd.Context(), a.db, args[0])
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s exists\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "table %s does not exist\n", args[0])
			}
			return nil
		},
	}
}
