package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/okian/cyclingdb/internal/adapters/csvio"
	"github.com/okian/cyclingdb/internal/adapters/source"
	service "github.com/okian/cyclingdb/internal/app"
	"github.com/okian/cyclingdb/internal/config"
	"github.com/okian/cyclingdb/pkg/logger"
	"github.com/spf13/cobra"
)

// cliState is shared by every subcommand after the root pre-run.
type cliState struct {
	configPath string
	logLevel   string
	logFormat  string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:   "cyclingdb",
		Short: "cyclingdb - professional cyclist search",
		Long: `cyclingdb loads the professional cyclist roster from a local cache or
the public CSV export and lets you search, summarize and export it, from the
command line or over HTTP.

Configuration is read from defaults, then an optional YAML file (--config or
CYCLINGDB_CONFIG), then CYCLINGDB_* environment variables. A .env file in the
working directory is loaded first.

Examples:
  # Serve the HTTP API
  cyclingdb serve

  # Strong climbers under 28, best first
  cyclingdb search --min MO=78 --age-max 27 --sort -MO

  # Export one team
  cyclingdb export --team "Visma | Lease a Bike" --out visma.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&st.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&st.logFormat, "log-format", "", "log format: text or json (overrides config)")

	root.AddCommand(
		newServeCmd(st),
		newSearchCmd(st),
		newExportCmd(st),
		newStatsCmd(st),
		newProbeCmd(st),
	)
	return root
}

// init loads .env, configuration and logging.
func (st *cliState) init(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(cmd.Context(), st.configPath)
	if err != nil {
		return err //nolint:wrapcheck // config errors carry their own context
	}
	if st.logFormat != "" {
		cfg.LogFormat = st.logFormat
	}
	if st.logLevel != "" {
		cfg.LogLevel = st.logLevel
	}

	// Logs go to stderr so that stdout stays clean for results.
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	st.cfg = cfg
	return nil
}

// newService wires the loader and service from configuration.
func (st *cliState) newService() *service.Service {
	cfg := st.cfg
	fetcher := source.NewHTTPFetcher(cfg.SourceURL,
		source.WithTimeout(cfg.FetchTimeout()),
		source.WithMaxBodyBytes(cfg.MaxBodyBytes),
		source.WithRetry(source.RetryConfig{
			MaxRetries: cfg.FetchRetries,
			Delay:      cfg.FetchRetryDelay(),
			Multiplier: source.DefaultRetryConfig().Multiplier,
			MaxDelay:   source.DefaultRetryConfig().MaxDelay,
		}),
	)
	loader := source.NewLoader(
		source.WithFetcher(fetcher),
		source.WithCachePath(cfg.CachePath),
		source.WithSpecializationMode(csvio.SpecializationMode(cfg.SpecializationMode)),
	)
	return service.New(
		service.WithLoader(loader),
		service.WithMaxLimit(cfg.MaxResultLimit),
		service.WithDefaultLimit(cfg.DefaultResultLimit),
	)
}
