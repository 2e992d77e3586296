package main

import (
	"fmt"

	"github.com/okian/cyclingdb/internal/probe"
	"github.com/spf13/cobra"
)

func newProbeCmd(_ *cliState) *cobra.Command {
	cfg := probe.Config{}
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run random searches against a running API and check the answers",
		Long: `Probe fetches the full roster from a running server, generates random
filter combinations and checks every answer against a local evaluation:
no false positives, correct totals, sort order, case-insensitive names and
export counts. It exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := probe.Run(cmd.Context(), &cfg)
			if err != nil {
				return err //nolint:wrapcheck // probe errors are descriptive
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d queries, %d checks, %d violations in %s\n",
				st.RunID, st.Queries, st.Checks, len(st.Violations), st.Duration)
			return err //nolint:wrapcheck // terminal write
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&cfg.BaseURL, "url", probe.DefaultBaseURL, "base URL of the API")
	fl.IntVar(&cfg.Queries, "queries", probe.DefaultQueries, "number of random searches")
	fl.IntVar(&cfg.Workers, "workers", probe.DefaultWorkers, "concurrent workers")
	fl.DurationVar(&cfg.Timeout, "timeout", probe.DefaultTimeout, "per-request timeout")
	fl.Uint64Var(&cfg.Seed, "seed", 0, "seed for reproducible runs (0 picks one)")
	fl.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every query")
	return cmd
}
