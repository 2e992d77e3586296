package main

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/cyclingdb/pkg/logger"
	"github.com/spf13/cobra"
)

func newExportCmd(st *cliState) *cobra.Command {
	var (
		filters filterFlags
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered riders as CSV",
		Long: `Export writes every rider matching the filters as UTF-8 CSV with the
original column order. Paging does not apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			req, err := filters.request(cmd)
			if err != nil {
				return err
			}
			svc := st.newService()
			// Load before creating the output file so a failed load leaves no empty file behind.
			if _, err := svc.Table(cmd.Context()); err != nil {
				return fmt.Errorf("load riders: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, ferr := os.Create(outPath)
				if ferr != nil {
					return fmt.Errorf("create %s: %w", outPath, ferr)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = fmt.Errorf("close %s: %w", outPath, cerr)
					}
				}()
				w = f
			}

			n, err := svc.Export(cmd.Context(), req, w)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			logger.Get().Info(cmd.Context(), "export written",
				logger.Int("riders", n),
				logger.String("out", destination(outPath)))
			return nil
		},
	}
	filters.register(cmd, false)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file; stdout when empty or -")
	return cmd
}

func destination(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}
