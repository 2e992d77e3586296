// Package service owns the rider table lifecycle and implements
// the operations used by the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/cyclingdb/internal/adapters/csvio"
	"github.com/okian/cyclingdb/internal/adapters/source"
	"github.com/okian/cyclingdb/internal/config"
	"github.com/okian/cyclingdb/internal/domain/query"
	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/okian/cyclingdb/internal/domain/stats"
	"github.com/okian/cyclingdb/internal/domain/table"
	"github.com/okian/cyclingdb/pkg/logger"
	"github.com/okian/cyclingdb/pkg/metrics"
)

// Paging defaults.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Loader produces the rider table.
type Loader interface {
	Load(ctx context.Context) (*table.Table, source.Report, error)
}

// snapshot is the immutable state published after a successful load.
type snapshot struct {
	engine  *query.Engine
	report  source.Report
	overall stats.Summary
	options stats.FilterOptions
}

// Service serves searches over a lazily loaded rider table.
type Service struct {
	// loading serializes cold-start loads; readers use current without locking.
	loading chan struct{}
	current atomic.Pointer[snapshot]
	lastErr atomic.Pointer[string]

	loader       Loader
	defaultLimit int
	maxLimit     int
	sessionID    string
	startedAt    time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLoader sets the table loader.
func WithLoader(l Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithMaxLimit caps the page size.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithDefaultLimit sets the page size used when a request has none.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without WithLoader it loads from the default
// remote source with no cache.
func New(opts ...Option) *Service {
	s := &Service{
		loading:      make(chan struct{}, 1),
		defaultLimit: DefaultLimit,
		maxLimit:     MaxLimit,
		sessionID:    uuid.NewString(),
		startedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.loader == nil {
		s.loader = source.NewLoader(source.WithFetcher(source.NewHTTPFetcher(config.DefaultSourceURL)))
	}
	return s
}

// SessionID identifies this service instance in logs and status output.
func (s *Service) SessionID() string { return s.sessionID }

// Table returns the loaded table, loading it on first use. Concurrent callers
// during a cold start wait for the same load. A failed load is not remembered,
// so the next call tries again.
func (s *Service) Table(ctx context.Context) (*table.Table, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.engine.Table(), nil
}

// Report returns the load report, or false if nothing is loaded yet.
func (s *Service) Report() (source.Report, bool) {
	snap := s.current.Load()
	if snap == nil {
		return source.Report{}, false
	}
	return snap.report, true
}

// Loaded reports whether a table is available without triggering a load.
func (s *Service) Loaded() bool { return s.current.Load() != nil }

// Preload loads the table eagerly. A failure is logged and left for the
// next request to retry.
func (s *Service) Preload(ctx context.Context) {
	if _, err := s.snapshot(ctx); err != nil {
		s.logger.Warn(ctx, "preload failed, will retry on demand",
			logger.String("session", s.sessionID),
			logger.Error(err),
		)
	}
}

func (s *Service) snapshot(ctx context.Context) (*snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	// Waiting for another caller's load honours ctx.
	select {
	case s.loading <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for rider table: %w", source.ErrNetwork, ctx.Err())
	}
	defer func() { <-s.loading }()

	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	tbl, rep, err := s.loader.Load(ctx)
	if err != nil {
		msg := err.Error()
		s.lastErr.Store(&msg)
		s.logger.Error(ctx, "rider table load failed",
			logger.String("session", s.sessionID),
			logger.Error(err),
		)
		return nil, err
	}

	snap := &snapshot{
		engine:  query.New(tbl),
		report:  rep,
		overall: stats.Summarize(tbl.Riders()),
		options: stats.Options(tbl),
	}
	s.current.Store(snap)
	s.lastErr.Store(nil)
	s.logger.Info(ctx, "rider table ready",
		logger.String("session", s.sessionID),
		logger.String("source", string(rep.Source)),
		logger.Int("rows", tbl.Len()),
	)
	return snap, nil
}

// Request is a search over the table.
type Request struct {
	Criteria query.Criteria
	Sort     *query.SortSpec
	Offset   int
	Limit    int
}

// Result is one page of a search.
type Result struct {
	Riders  []rider.Rider `json:"riders"`
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	Summary stats.Summary `json:"summary"`
	Overall stats.Summary `json:"overall"`
}

// Search filters, sorts and pages the table.
func (s *Service) Search(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	limit, err := s.limit(req)
	if err != nil {
		return Result{}, err
	}

	snap, rows, err := s.filter(ctx, req)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Riders:  query.Page(rows, req.Offset, limit),
		Total:   len(rows),
		Offset:  req.Offset,
		Limit:   limit,
		Summary: stats.Summarize(rows),
		Overall: snap.overall,
	}
	took := time.Since(start)
	metrics.RecordSearch(float64(took)/float64(time.Millisecond), res.Total)
	s.logger.Debug(ctx, "search",
		logger.Any("criteria", req.Criteria),
		logger.Int("total", res.Total),
		logger.Duration("took", took),
	)
	return res, nil
}

// Summary computes the summary of the filtered rows and of the full table.
func (s *Service) Summary(ctx context.Context, c query.Criteria) (filtered, overall stats.Summary, err error) {
	snap, rows, err := s.filter(ctx, Request{Criteria: c})
	if err != nil {
		return stats.Summary{}, stats.Summary{}, err
	}
	return stats.Summarize(rows), snap.overall, nil
}

// Options returns the filter options for the full table.
func (s *Service) Options(ctx context.Context) (stats.FilterOptions, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return stats.FilterOptions{}, err
	}
	return snap.options, nil
}

// Export writes every row matching req as CSV, ignoring paging, and returns
// the number of rows written.
func (s *Service) Export(ctx context.Context, req Request, w io.Writer) (int, error) {
	_, rows, err := s.filter(ctx, req)
	if err != nil {
		return 0, err
	}
	if err := csvio.Export(w, rows); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	metrics.RecordExport("csv")
	return len(rows), nil
}

func (s *Service) filter(ctx context.Context, req Request) (*snapshot, []rider.Rider, error) {
	if err := req.Criteria.Validate(); err != nil {
		return nil, nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	rows, err := snap.engine.Search(ctx, req.Criteria, req.Sort)
	if err != nil {
		return nil, nil, err
	}
	return snap, rows, nil
}

func (s *Service) limit(req Request) (int, error) {
	if req.Offset < 0 {
		return 0, fmt.Errorf("%w: offset must not be negative", ErrInvalidRequest)
	}
	switch {
	case req.Limit < 0:
		return 0, fmt.Errorf("%w: limit must not be negative", ErrInvalidRequest)
	case req.Limit == 0:
		return s.defaultLimit, nil
	case req.Limit > s.maxLimit:
		return s.maxLimit, nil
	default:
		return req.Limit, nil
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	st := map[string]interface{}{
		"session_id": s.sessionID,
		"started_at": s.startedAt.UTC().Format(time.RFC3339),
		"loaded":     s.Loaded(),
		"max_limit":  s.maxLimit,
	}
	if msg := s.lastErr.Load(); msg != nil {
		st["last_error"] = *msg
	}
	rep, ok := s.Report()
	if !ok {
		return st
	}
	st["rows"] = rep.Rows
	st["dropped"] = rep.Dropped
	st["source"] = string(rep.Source)
	st["encoding"] = string(rep.Encoding)
	st["bytes"] = rep.Bytes
	st["loaded_at"] = rep.LoadedAt.UTC().Format(time.RFC3339)
	if len(rep.Ignored) > 0 {
		st["ignored_columns"] = rep.Ignored
	}
	return st
}
