package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartikbazzad/bunbase/bunquery"
)

func newValidateCmd() *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a query document and print its compiled form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := qf.load()
			if err != nil {
				return err
			}
			expr, err := bunquery.Compile(doc, qf.options()...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok (case sensitive: %t)\n%s\n", expr.Options().CaseSensitive, expr)
			return err
		},
	}

	qf.register(cmd)
	return cmd
}
