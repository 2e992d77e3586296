// Package stats computes summaries and filter options over rider rows.
package stats

import (
	"math"
	"sort"
	"strconv"

	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/okian/cyclingdb/internal/domain/table"
)

// Summary describes a set of riders.
type Summary struct {
	Count         int      `json:"count"`
	Teams         int      `json:"teams"`
	Nationalities int      `json:"nationalities"`
	AverageAge    *float64 `json:"average_age"`
}

// AverageAgeString renders the average age with one decimal, or "N/A".
func (s Summary) AverageAgeString() string {
	if s.AverageAge == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*s.AverageAge, 'f', 1, 64)
}

// Summarize computes a Summary. Riders without an age do not count toward the average.
func Summarize(rows []rider.Rider) Summary {
	teams := make(map[string]struct{})
	nats := make(map[string]struct{})
	var ageSum, ageN int
	for _, r := range rows {
		if r.Team != "" {
			teams[r.Team] = struct{}{}
		}
		if r.Nationality != "" {
			nats[r.Nationality] = struct{}{}
		}
		if r.Age.Valid {
			ageSum += r.Age.Value
			ageN++
		}
	}
	s := Summary{Count: len(rows), Teams: len(teams), Nationalities: len(nats)}
	if ageN > 0 {
		avg := math.Round(float64(ageSum)/float64(ageN)*10) / 10 //nolint:mnd // one decimal
		s.AverageAge = &avg
	}
	return s
}

// Distinct returns the sorted non-empty values of a column.
func Distinct(rows []rider.Rider, col rider.Column) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if v := r.Value(col); v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	if _, numeric := col.StatCode(); numeric || col == rider.ColAge {
		sort.Slice(out, func(i, j int) bool {
			a, _ := strconv.Atoi(out[i])
			b, _ := strconv.Atoi(out[j])
			return a < b
		})
		return out
	}
	sort.Strings(out)
	return out
}

// FilterOptions lists the values a client can filter on.
type FilterOptions struct {
	Teams           []string                        `json:"teams"`
	Nationalities   []string                        `json:"nationalities"`
	Specializations []rider.Specialization          `json:"specializations"`
	Age             table.Bounds                    `json:"age"`
	Ratings         map[rider.StatCode]table.Bounds `json:"ratings"`
}

// Options returns the filter options for a whole table.
func Options(t *table.Table) FilterOptions {
	opts := FilterOptions{
		Teams:           t.Teams(),
		Nationalities:   t.Nationalities(),
		Specializations: t.Specializations(),
		Age:             t.AgeBounds(),
		Ratings:         make(map[rider.StatCode]table.Bounds),
	}
	for _, code := range rider.StatCodes {
		if b := t.RatingBounds(code); b.Valid {
			opts.Ratings[code] = b
		}
	}
	return opts
}
