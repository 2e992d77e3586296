// Package table holds the immutable, indexed in-memory rider table.
package table

import (
	"iter"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/okian/cyclingdb/internal/domain/rider"
)

// Bounds is a closed [Min, Max] interval over present values.
type Bounds struct {
	Min   int  `json:"min"`
	Max   int  `json:"max"`
	Valid bool `json:"valid"`
}

func (b *Bounds) add(v int) {
	if !b.Valid {
		*b = Bounds{Min: v, Max: v, Valid: true}
		return
	}
	b.Min = min(b.Min, v)
	b.Max = max(b.Max, v)
}

// Table is an ordered, read-only sequence of riders with categorical indexes.
// Every rider it holds passed rider.Validate.
type Table struct {
	riders []rider.Rider

	teams           map[string]*roaring.Bitmap
	nationalities   map[string]*roaring.Bitmap
	specializations map[rider.Specialization]*roaring.Bitmap

	ageBounds    Bounds
	ratingBounds map[rider.StatCode]Bounds
}

// New builds a table from riders in load order. The riders are copied.
func New(riders []rider.Rider) *Table {
	t := &Table{
		riders:          make([]rider.Rider, len(riders)),
		teams:           make(map[string]*roaring.Bitmap),
		nationalities:   make(map[string]*roaring.Bitmap),
		specializations: make(map[rider.Specialization]*roaring.Bitmap),
		ratingBounds:    make(map[rider.StatCode]Bounds, len(rider.StatCodes)),
	}
	for i, r := range riders {
		r = r.Clone()
		t.riders[i] = r
		pos := uint32(i) //nolint:gosec // table size is far below 2^32
		addTo(t.teams, r.Team, pos)
		addTo(t.nationalities, r.Nationality, pos)
		addTo(t.specializations, r.Specialization, pos)
		if r.Age.Valid {
			t.ageBounds.add(r.Age.Value)
		}
		for code, v := range r.Ratings {
			b := t.ratingBounds[code]
			b.add(v)
			t.ratingBounds[code] = b
		}
	}
	for _, m := range []map[string]*roaring.Bitmap{t.teams, t.nationalities} {
		for _, bm := range m {
			bm.RunOptimize()
		}
	}
	return t
}

func addTo[K comparable](m map[K]*roaring.Bitmap, key K, pos uint32) {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	bm.Add(pos)
}

// Len returns the number of riders.
func (t *Table) Len() int { return len(t.riders) }

// At returns a copy of the rider at load position i.
func (t *Table) At(i int) rider.Rider { return t.riders[i].Clone() }

// Riders returns a copy of all riders in load order.
func (t *Table) Riders() []rider.Rider {
	out := make([]rider.Rider, len(t.riders))
	for i, r := range t.riders {
		out[i] = r.Clone()
	}
	return out
}

// All iterates riders with their load position.
func (t *Table) All() iter.Seq2[int, rider.Rider] {
	return func(yield func(int, rider.Rider) bool) {
		for i, r := range t.riders {
			if !yield(i, r.Clone()) {
				return
			}
		}
	}
}

// Teams returns distinct non-empty team names, sorted.
func (t *Table) Teams() []string { return keys(t.teams) }

// Nationalities returns distinct non-empty nationalities, sorted.
func (t *Table) Nationalities() []string { return keys(t.nationalities) }

// Specializations returns the known specializations present, in canonical order.
func (t *Table) Specializations() []rider.Specialization {
	out := make([]rider.Specialization, 0, len(t.specializations))
	for _, s := range rider.Specializations {
		if _, ok := t.specializations[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func keys(m map[string]*roaring.Bitmap) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// TeamIndex returns the positions of riders whose team is any of values.
func (t *Table) TeamIndex(values ...string) *roaring.Bitmap { return union(t.teams, values) }

// NationalityIndex returns the positions of riders whose nationality is any of values.
func (t *Table) NationalityIndex(values ...string) *roaring.Bitmap {
	return union(t.nationalities, values)
}

// SpecializationIndex returns the positions of riders with any of the given specializations.
func (t *Table) SpecializationIndex(values ...rider.Specialization) *roaring.Bitmap {
	return union(t.specializations, values)
}

func union[K comparable](m map[K]*roaring.Bitmap, values []K) *roaring.Bitmap {
	out := roaring.New()
	for _, v := range values {
		if bm, ok := m[v]; ok {
			out.Or(bm)
		}
	}
	return out
}

// AllIndex returns a bitmap with every row position set.
func (t *Table) AllIndex() *roaring.Bitmap {
	out := roaring.New()
	out.AddRange(0, uint64(len(t.riders)))
	return out
}

// AgeBounds returns min and max over riders with a known age.
func (t *Table) AgeBounds() Bounds { return t.ageBounds }

// RatingBounds returns min and max over riders with the given rating.
func (t *Table) RatingBounds(code rider.StatCode) Bounds { return t.ratingBounds[code] }
