package probe

import (
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/cyclingdb/internal/domain/query"
	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/okian/cyclingdb/internal/domain/stats"
)

const nameFragmentRunes = 3

var sortFields = func() []string {
	out := []string{query.SortName, query.SortTeam, query.SortNationality, query.SortAge, query.SortSpecialization}
	for _, c := range rider.StatCodes {
		out = append(out, string(c))
	}
	return out
}()

// generator builds random but valid search parameters from the filter options.
type generator struct {
	rnd   *rand.Rand
	opts  stats.FilterOptions
	names []string
}

func newGenerator(seed uint64, opts stats.FilterOptions, riders []rider.Rider) *generator {
	names := make([]string, 0, len(riders))
	for _, r := range riders {
		names = append(names, r.Name)
	}
	return &generator{
		rnd:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec // not security sensitive
		opts:  opts,
		names: names,
	}
}

func (g *generator) chance(n int) bool { return g.rnd.IntN(n) == 0 }

func (g *generator) pick(values []string) string { return values[g.rnd.IntN(len(values))] }

// between returns a random value in [lo, hi].
func (g *generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rnd.IntN(hi-lo+1)
}

// next returns one search. Every criterion is optional.
func (g *generator) next() url.Values {
	v := url.Values{}
	if len(g.opts.Teams) > 0 && g.chance(3) {
		v.Add("team", g.pick(g.opts.Teams))
		if g.chance(2) {
			v.Add("team", g.pick(g.opts.Teams))
		}
	}
	if len(g.opts.Nationalities) > 0 && g.chance(3) {
		v.Add("nationality", g.pick(g.opts.Nationalities))
	}
	if age := g.opts.Age; age.Valid && g.chance(3) {
		lo := g.between(age.Min, age.Max)
		v.Set("age_min", strconv.Itoa(lo))
		if g.chance(2) {
			v.Set("age_max", strconv.Itoa(g.between(lo, age.Max)))
		}
	}
	if g.chance(2) {
		code := rider.StatCodes[g.rnd.IntN(len(rider.StatCodes))]
		if b := g.opts.Ratings[code]; b.Valid {
			v.Set(strings.ToLower(string(code))+"_min", strconv.Itoa(g.between(b.Min, b.Max)))
		}
	}
	if len(g.opts.Specializations) > 0 && g.chance(5) {
		v.Set("specialization", string(g.opts.Specializations[g.rnd.IntN(len(g.opts.Specializations))]))
	}
	if len(g.names) > 0 && g.chance(3) {
		v.Set("name", g.fragment(g.pick(g.names)))
	}
	if g.chance(2) {
		field := g.pick(sortFields)
		if g.chance(2) {
			field = "-" + field
		}
		v.Set("sort", field)
	}
	return v
}

// fragment returns a short lower-cased piece of name.
func (g *generator) fragment(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) <= nameFragmentRunes {
		return strings.ToLower(string(runes))
	}
	start := g.rnd.IntN(len(runes) - nameFragmentRunes + 1)
	return strings.ToLower(string(runes[start : start+nameFragmentRunes]))
}
