package probe

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/cyclingdb/internal/domain/stats"
	"github.com/okian/cyclingdb/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Run executes a complete probe and returns its statistics. It fails with
// ErrViolations when any check did not hold.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := config.withDefaults()
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano()) //nolint:gosec // seed only
	}
	st := &Stats{RunID: uuid.NewString(), Seed: cfg.Seed, StartTime: time.Now()}
	log := logger.Named("probe").With(logger.String("run_id", st.RunID))

	log.Info(ctx, "starting rider API probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("queries", cfg.Queries),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Any("seed", cfg.Seed),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	defer func() {
		st.Requests = int(client.requests.Load())
		st.Failed = int(client.failed.Load())
	}()

	// Step 1: Check service health
	if _, _, err := client.get(ctx, "/healthz", nil); err != nil {
		return st, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Fetch filter options and the full table
	var opts stats.FilterOptions
	if err := client.getJSON(ctx, "/filters", nil, &opts); err != nil {
		return st, fmt.Errorf("filter options: %w", err)
	}
	baseline, err := client.searchAll(ctx, nil)
	if err != nil {
		return st, fmt.Errorf("baseline search: %w", err)
	}
	st.Riders = len(baseline.Riders)
	log.Info(ctx, "baseline loaded",
		logger.Int("riders", st.Riders),
		logger.Int("teams", len(opts.Teams)),
	)

	// Step 3: Generate queries
	gen := newGenerator(cfg.Seed, opts, baseline.Riders)
	queries := make([]url.Values, cfg.Queries)
	for i := range queries {
		queries[i] = gen.next()
	}

	// Step 4: Verify concurrently
	v := newVerifier(client, baseline.Riders)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, q := range queries {
		g.Go(func() error {
			res, err := v.verify(gctx, q)
			mu.Lock()
			defer mu.Unlock()
			st.Queries++
			st.Checks += res.checks
			st.Violations = append(st.Violations, res.violations...)
			if err != nil {
				return err
			}
			if cfg.Verbose {
				log.Debug(gctx, "query verified",
					logger.String("query", q.Encode()),
					logger.Int("checks", res.checks),
					logger.Int("violations", len(res.violations)),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return st, fmt.Errorf("probe aborted: %w", err)
	}

	st.EndTime = time.Now()
	st.Duration = st.EndTime.Sub(st.StartTime)
	st.Requests = int(client.requests.Load())
	st.Failed = int(client.failed.Load())

	for _, viol := range st.Violations {
		log.Warn(ctx, "violation",
			logger.String("check", viol.Check),
			logger.String("query", viol.Query),
			logger.String("detail", viol.Detail),
		)
	}
	displayFinalStats(ctx, log, st)

	if len(st.Violations) > 0 {
		return st, fmt.Errorf("%w: %d of %d checks failed", ErrViolations, len(st.Violations), st.Checks)
	}
	return st, nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, st *Stats) {
	var qps float64
	if st.Duration > 0 {
		qps = float64(st.Queries) / st.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("riders", st.Riders),
		logger.Int("queries", st.Queries),
		logger.Int("checks", st.Checks),
		logger.Int("violations", len(st.Violations)),
		logger.Int("requests", st.Requests),
		logger.Int("failedRequests", st.Failed),
		logger.Duration("duration", st.Duration),
		logger.Float64("queriesPerSecond", qps),
	)
}
