package main

import (
	"fmt"
	"strings"

	"github.com/okian/cyclingdb/internal/cli"
	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/spf13/cobra"
)

// outputFlags select how results are printed.
type outputFlags struct {
	format string
	mono   bool
	stats  []string
	width  int
}

func (o *outputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&o.format, "format", "f", cli.FormatTable, "output format: "+strings.Join(cli.Formats, ", "))
	fl.BoolVar(&o.mono, "no-color", false, "render tables without colors")
	fl.StringSliceVar(&o.stats, "stats", nil, "rating columns to show, e.g. MO,HL,TT")
	fl.IntVar(&o.width, "max-width", 0, "truncate text cells wider than this")
}

func (o *outputFlags) renderer() (*cli.Renderer, error) {
	if !cli.ValidFormat(o.format) {
		return nil, fmt.Errorf("unknown format %q (want one of %s)", o.format, strings.Join(cli.Formats, ", "))
	}
	codes := make([]rider.StatCode, 0, len(o.stats))
	for _, s := range o.stats {
		c, err := rider.ParseStatCode(s)
		if err != nil {
			return nil, err //nolint:wrapcheck // already names the code
		}
		codes = append(codes, c)
	}
	opts := []cli.Option{cli.WithStats(codes), cli.WithMaxCellWidth(o.width)}
	if o.mono {
		opts = append(opts, cli.WithTheme(cli.MonoTheme()))
	}
	return cli.NewRenderer(opts...), nil
}

func newSearchCmd(st *cliState) *cobra.Command {
	var (
		filters filterFlags
		out     outputFlags
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search riders with the same filters as the HTTP API",
		Example: `  cyclingdb search --team "UAE Team Emirates" --sort -Eval
  cyclingdb search --specialization climber --min MO=78 --limit 20
  cyclingdb search --expr "TT >= 80 && age < 26" --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := out.renderer()
			if err != nil {
				return err
			}
			req, err := filters.request(cmd)
			if err != nil {
				return err
			}
			res, err := st.newService().Search(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return r.Result(cmd.OutOrStdout(), out.format, res) //nolint:wrapcheck // terminal write
		},
	}
	filters.register(cmd, true)
	out.register(cmd)
	return cmd
}
