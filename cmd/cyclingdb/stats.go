package main

import (
	"fmt"

	"github.com/okian/cyclingdb/internal/domain/query"
	"github.com/spf13/cobra"
)

func newStatsCmd(st *cliState) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the roster summary and the available filter values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := out.renderer()
			if err != nil {
				return err
			}
			svc := st.newService()
			ctx := cmd.Context()
			_, overall, err := svc.Summary(ctx, query.Criteria{})
			if err != nil {
				return fmt.Errorf("summary: %w", err)
			}
			opts, err := svc.Options(ctx)
			if err != nil {
				return fmt.Errorf("filter options: %w", err)
			}
			return r.Stats(cmd.OutOrStdout(), out.format, overall, opts) //nolint:wrapcheck // terminal write
		},
	}
	out.register(cmd)
	return cmd
}
