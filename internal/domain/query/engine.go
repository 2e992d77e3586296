// Package query selects and orders riders from a table.
package query

import (
	"context"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/text/cases"

	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/okian/cyclingdb/internal/domain/table"
)

// ctxCheckInterval is how many candidate rows are scanned between context checks.
const ctxCheckInterval = 256

// Matcher is a compiled Criteria. It is not safe for concurrent use.
type Matcher struct {
	c       Criteria
	fold    cases.Caser
	name    string
	teams   map[string]struct{}
	nats    map[string]struct{}
	ratings []ratingRange
	program *vm.Program
}

type ratingRange struct {
	code rider.StatCode
	rng  Range
}

// Compile validates c and prepares it for matching.
func Compile(c Criteria) (*Matcher, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{c: c, fold: cases.Fold()}
	if n := strings.TrimSpace(c.Name); n != "" {
		m.name = m.fold.String(n)
	}
	m.teams = set(c.Teams)
	m.nats = set(c.Nationalities)
	for _, code := range rider.StatCodes {
		if r, ok := c.Ratings[code]; ok && !r.IsZero() {
			m.ratings = append(m.ratings, ratingRange{code: code, rng: r})
		}
	}
	if src := strings.TrimSpace(c.Expression); src != "" {
		program, err := compileExpression(src)
		if err != nil {
			return nil, err
		}
		m.program = program
	}
	return m, nil
}

func set(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

// Match reports whether r satisfies every active criterion.
func (m *Matcher) Match(r rider.Rider) bool {
	if m.teams != nil {
		if _, ok := m.teams[r.Team]; !ok {
			return false
		}
	}
	if m.nats != nil {
		if _, ok := m.nats[r.Nationality]; !ok {
			return false
		}
	}
	if m.c.Specialization != rider.Unknown && r.Specialization != m.c.Specialization {
		return false
	}
	return m.matchRow(r)
}

// matchRow evaluates the predicates that are not answered by table indexes.
func (m *Matcher) matchRow(r rider.Rider) bool {
	if m.name != "" && !strings.Contains(m.fold.String(r.Name), m.name) {
		return false
	}
	if !m.c.Age.IsZero() && (!r.Age.Valid || !m.c.Age.Contains(r.Age.Value)) {
		return false
	}
	for _, rr := range m.ratings {
		v, ok := r.Rating(rr.code)
		if !ok || !rr.rng.Contains(v) {
			return false
		}
	}
	if m.program != nil && !evalExpression(m.program, r) {
		return false
	}
	return true
}

// candidates narrows the table to rows satisfying the categorical criteria.
func (m *Matcher) candidates(t *table.Table) *roaring.Bitmap {
	bm := t.AllIndex()
	if len(m.c.Teams) > 0 {
		bm.And(t.TeamIndex(m.c.Teams...))
	}
	if len(m.c.Nationalities) > 0 {
		bm.And(t.NationalityIndex(m.c.Nationalities...))
	}
	if m.c.Specialization != rider.Unknown {
		bm.And(t.SpecializationIndex(m.c.Specialization))
	}
	return bm
}

// Engine runs searches against one table.
type Engine struct {
	t *table.Table
}

// New returns an engine over t.
func New(t *table.Table) *Engine {
	return &Engine{t: t}
}

// Table returns the table the engine searches.
func (e *Engine) Table() *table.Table { return e.t }

// Search returns the riders matching c in load order, or ordered by s when given.
// The table is never modified and an empty result is not an error.
func (e *Engine) Search(ctx context.Context, c Criteria, s *SortSpec) ([]rider.Rider, error) {
	m, err := Compile(c)
	if err != nil {
		return nil, err
	}
	if s != nil {
		if _, err := canonicalSortField(s.Field); err != nil {
			return nil, err
		}
	}

	cand := m.candidates(e.t)
	out := make([]rider.Rider, 0, cand.GetCardinality())
	it := cand.Iterator()
	for n := 0; it.HasNext(); n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		r := e.t.At(int(it.Next()))
		if m.matchRow(r) {
			out = append(out, r)
		}
	}

	if err := Sort(out, s); err != nil {
		return nil, err
	}
	return out, nil
}

// Matches reports whether r satisfies c.
func (e *Engine) Matches(r rider.Rider, c Criteria) (bool, error) {
	m, err := Compile(c)
	if err != nil {
		return false, err
	}
	return m.Match(r), nil
}

// Search is a convenience wrapper for a one-off search over t.
func Search(t *table.Table, c Criteria, s *SortSpec) ([]rider.Rider, error) {
	return New(t).Search(context.Background(), c, s)
}

