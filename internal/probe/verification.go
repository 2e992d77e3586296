package probe

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/okian/cyclingdb/internal/adapters/csvio"
	"github.com/okian/cyclingdb/internal/adapters/http/api"
	"github.com/okian/cyclingdb/internal/domain/query"
	"github.com/okian/cyclingdb/internal/domain/rider"
)

// verifier checks search answers against the full table fetched at start.
type verifier struct {
	client   *HTTPClient
	baseline []rider.Rider
	index    map[string]int
}

func newVerifier(client *HTTPClient, baseline []rider.Rider) *verifier {
	index := make(map[string]int, len(baseline))
	for i, r := range baseline {
		if _, ok := index[riderKey(r)]; !ok {
			index[riderKey(r)] = i
		}
	}
	return &verifier{client: client, baseline: baseline, index: index}
}

// riderKey identifies a rider across responses.
func riderKey(r rider.Rider) string {
	return r.Name + "\x1f" + r.Team + "\x1f" + r.Nationality + "\x1f" + r.Age.String()
}

func keys(rows []rider.Rider) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = riderKey(r)
	}
	return out
}

// result is the outcome of verifying one query.
type result struct {
	checks     int
	violations []Violation
}

func (r *result) check(q url.Values, name string, ok bool, format string, args ...any) {
	r.checks++
	if !ok {
		r.violations = append(r.violations, Violation{Query: q.Encode(), Check: name, Detail: fmt.Sprintf(format, args...)})
	}
}

// verify runs q and checks the answer. Transport errors are returned, not
// reported as violations.
func (v *verifier) verify(ctx context.Context, q url.Values) (result, error) {
	var res result

	req, err := api.ParseRequest(q)
	if err != nil {
		return res, fmt.Errorf("generated query %q is invalid: %w", q.Encode(), err)
	}
	m, err := query.Compile(req.Criteria)
	if err != nil {
		return res, fmt.Errorf("generated query %q does not compile: %w", q.Encode(), err)
	}

	page, err := v.client.searchAll(ctx, q)
	if err != nil {
		return res, err
	}

	for _, r := range page.Riders {
		res.check(q, CheckFalsePositive, m.Match(r), "rider %q does not match", r.Name)
	}

	expected := 0
	for _, r := range v.baseline {
		if m.Match(r) {
			expected++
		}
	}
	res.check(q, CheckFalseNegative, page.Total == expected, "total %d, expected %d", page.Total, expected)
	res.check(q, CheckSummary, page.Summary.Count == page.Total && len(page.Riders) == page.Total,
		"summary count %d, total %d, rows %d", page.Summary.Count, page.Total, len(page.Riders))

	if err := v.checkOrder(q, req.Sort, page.Riders, &res); err != nil {
		return res, err
	}

	if name := q.Get(api.ParamName); name != "" {
		upper := cloneValues(q)
		upper.Set(api.ParamName, strings.ToUpper(name))
		other, err := v.client.searchAll(ctx, upper)
		if err != nil {
			return res, err
		}
		res.check(q, CheckCaseFold, slices.Equal(keys(other.Riders), keys(page.Riders)),
			"%q matched %d riders, %q matched %d", name, len(page.Riders), strings.ToUpper(name), len(other.Riders))
	}

	exported, err := v.exportCount(ctx, q)
	if err != nil {
		return res, err
	}
	res.check(q, CheckExportTotal, exported == page.Total, "export has %d rows, total %d", exported, page.Total)

	return res, nil
}

// checkOrder re-sorts the rows from load order and compares, which covers both
// direction and stability.
func (v *verifier) checkOrder(q url.Values, spec *query.SortSpec, rows []rider.Rider, res *result) error {
	want := slices.Clone(rows)
	slices.SortStableFunc(want, func(a, b rider.Rider) int {
		return v.index[riderKey(a)] - v.index[riderKey(b)]
	})
	if err := query.Sort(want, spec); err != nil {
		return fmt.Errorf("sort %v: %w", spec, err)
	}
	got := keys(rows)
	exp := keys(want)
	at := -1
	for i := range got {
		if got[i] != exp[i] {
			at = i
			break
		}
	}
	res.check(q, CheckSortOrder, at < 0, "first out of order row at %d", at)
	return nil
}

func (v *verifier) exportCount(ctx context.Context, q url.Values) (int, error) {
	body, _, err := v.client.get(ctx, "/riders/export", q)
	if err != nil {
		return 0, err
	}
	parsed, err := csvio.Parse(bytes.NewReader(body), csvio.WithAllowEmpty())
	if err != nil {
		return 0, fmt.Errorf("parse export: %w", err)
	}
	return len(parsed.Riders) + parsed.Dropped, nil
}
