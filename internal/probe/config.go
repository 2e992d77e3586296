// Package probe exercises a running rider API with random searches and
// checks the answers for consistency.
package probe

import (
	"errors"
	"time"
)

// Defaults.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultQueries = 200
	DefaultWorkers = 8
	DefaultTimeout = 30 * time.Second
)

// ErrViolations is returned by Run when at least one check failed.
var ErrViolations = errors.New("probe found violations")

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Queries int           // Number of random searches to run
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Seed    uint64        // Seed for query generation; 0 picks one
	Verbose bool          // Log every query
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Queries <= 0 {
		out.Queries = DefaultQueries
	}
	if out.Workers <= 0 {
		out.Workers = DefaultWorkers
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return out
}

// Violation is one failed check.
type Violation struct {
	Query  string `json:"query"`
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// Stats holds probe statistics.
type Stats struct {
	RunID      string
	Seed       uint64
	Riders     int
	Queries    int
	Checks     int
	Requests   int
	Failed     int
	Violations []Violation
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Check names.
const (
	CheckFalsePositive = "no_false_positives"
	CheckFalseNegative = "no_false_negatives"
	CheckCaseFold      = "case_insensitive_name"
	CheckSortOrder     = "sort_order"
	CheckExportTotal   = "export_total"
	CheckSummary       = "summary_count"
)
