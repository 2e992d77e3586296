// Package source loads the rider dataset from a local cache or the remote export.
package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"time"

	"github.com/okian/cyclingdb/internal/adapters/csvio"
	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/okian/cyclingdb/internal/domain/table"
	"github.com/okian/cyclingdb/pkg/logger"
	"github.com/okian/cyclingdb/pkg/metrics"
)

// Origin names where a table was loaded from.
type Origin string

// Origins.
const (
	FromCache  Origin = "cache"
	FromRemote Origin = "remote"
)

// ErrNoSource is returned when neither a cache nor a fetcher is configured.
var ErrNoSource = errors.New("no cache or remote source configured")

// Report describes a successful load.
type Report struct {
	Source   Origin                  `json:"source"`
	Encoding Encoding                `json:"encoding"`
	Rows     int                     `json:"rows"`
	Dropped  int                     `json:"dropped"`
	Ignored  []string                `json:"ignored_columns,omitempty"`
	Issues   []rider.ValidationError `json:"issues,omitempty"`
	Bytes    int64                   `json:"bytes"`
	Duration time.Duration           `json:"duration_ns"`
	LoadedAt time.Time               `json:"loaded_at"`
}

// Loader turns cached or fetched bytes into a table.
type Loader struct {
	fetcher Fetcher
	cache   *Cache
	mode    csvio.SpecializationMode
	logger  logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithFetcher sets the remote source.
func WithFetcher(f Fetcher) Option {
	return func(l *Loader) {
		l.fetcher = f
	}
}

// WithCachePath enables the local cache at path.
func WithCachePath(path string) Option {
	return func(l *Loader) {
		if path != "" {
			l.cache = NewCache(path)
		}
	}
}

// WithSpecializationMode selects how specializations are resolved.
func WithSpecializationMode(mode csvio.SpecializationMode) Option {
	return func(l *Loader) {
		if mode != "" {
			l.mode = mode
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLoader returns a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{mode: csvio.ModeAuto}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load prefers a well-formed cache and otherwise fetches, parses and caches the
// remote bytes. No partial table is ever returned.
func (l *Loader) Load(ctx context.Context) (*table.Table, Report, error) {
	start := time.Now()
	log := l.log()

	if l.cache != nil {
		data, err := l.cache.Read()
		switch {
		case err == nil:
			tbl, rep, perr := l.build(data)
			if perr == nil {
				return tbl, l.complete(ctx, rep, FromCache, start), nil
			}
			log.Warn(ctx, "cache is not usable, fetching",
				logger.String("path", l.cache.Path()),
				logger.Error(perr),
			)
		case !errors.Is(err, os.ErrNotExist):
			log.Warn(ctx, "cache read failed, fetching",
				logger.String("path", l.cache.Path()),
				logger.Error(err),
			)
		}
	}

	if l.fetcher == nil {
		metrics.RecordLoad(string(FromRemote), "error", msSince(time.Now(), start))
		return nil, Report{}, networkError("fetch", 0, false, ErrNoSource)
	}

	data, err := l.fetcher.Fetch(ctx)
	if err != nil {
		metrics.RecordLoad(string(FromRemote), "error", msSince(time.Now(), start))
		return nil, Report{}, err
	}
	tbl, rep, err := l.build(data)
	if err != nil {
		metrics.RecordLoad(string(FromRemote), "error", msSince(time.Now(), start))
		return nil, Report{}, err
	}

	if l.cache != nil {
		if err := l.cache.Write(data); err != nil {
			metrics.RecordCacheWrite("error")
			log.Warn(ctx, "cache write failed",
				logger.String("path", l.cache.Path()),
				logger.Error(err),
			)
		} else {
			metrics.RecordCacheWrite("ok")
		}
	}

	return tbl, l.complete(ctx, rep, FromRemote, start), nil
}

func (l *Loader) build(data []byte) (*table.Table, Report, error) {
	text, enc, err := Decode(data)
	if err != nil {
		return nil, Report{}, err
	}
	res, err := csvio.Parse(bytes.NewReader(text), csvio.WithSpecializationMode(l.mode))
	if err != nil {
		return nil, Report{}, &Error{Op: "parse", Kind: KindParse, Err: err}
	}
	rep := Report{
		Encoding: enc,
		Rows:     len(res.Riders),
		Dropped:  res.Dropped,
		Ignored:  res.Ignored,
		Issues:   res.Issues,
		Bytes:    int64(len(data)),
	}
	return table.New(res.Riders), rep, nil
}

// complete stamps the report and records the load.
func (l *Loader) complete(ctx context.Context, rep Report, origin Origin, start time.Time) Report {
	now := time.Now()
	rep.Source = origin
	rep.Duration = now.Sub(start)
	rep.LoadedAt = now

	metrics.RecordLoad(string(origin), "ok", msSince(now, start))
	metrics.UpdateTableSize(rep.Rows, rep.Dropped, rep.Bytes, float64(now.Unix()))

	log := l.log()
	fields := []logger.Field{
		logger.String("source", string(origin)),
		logger.String("encoding", string(rep.Encoding)),
		logger.Int("rows", rep.Rows),
		logger.Int("dropped", rep.Dropped),
		logger.Int64("bytes", rep.Bytes),
		logger.Duration("took", rep.Duration),
	}
	if len(rep.Ignored) > 0 {
		fields = append(fields, logger.Any("ignored_columns", rep.Ignored))
	}
	log.Info(ctx, "rider table loaded", fields...)
	for _, is := range rep.Issues {
		log.Debug(ctx, "row issue",
			logger.Int("line", is.Line),
			logger.String("field", is.Field),
			logger.String("value", is.Value),
			logger.String("message", is.Message),
		)
	}
	return rep
}

func msSince(now, start time.Time) float64 {
	return float64(now.Sub(start)) / float64(time.Millisecond)
}

func (l *Loader) log() logger.Logger {
	if l.logger == nil {
		return logger.Named("loader")
	}
	return l.logger
}
