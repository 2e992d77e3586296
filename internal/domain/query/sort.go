package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okian/cyclingdb/internal/domain/rider"
)

// Sortable non-rating fields.
const (
	SortName           = "name"
	SortTeam           = "team"
	SortNationality    = "nationality"
	SortAge            = "age"
	SortSpecialization = "specialization"
)

// SortSpec orders a result by a single field.
type SortSpec struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// String renders the sort in ParseSort syntax.
func (s SortSpec) String() string {
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

// ParseSort parses "field" or "-field". An empty string yields nil.
func ParseSort(s string) (*SortSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil //nolint:nilnil // no sort requested
	}
	spec := &SortSpec{}
	if strings.HasPrefix(s, "-") {
		spec.Desc = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	field, err := canonicalSortField(s)
	if err != nil {
		return nil, err
	}
	spec.Field = field
	return spec, nil
}

func canonicalSortField(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case SortName, SortTeam, SortNationality, SortAge, SortSpecialization:
		return f, nil
	}
	code, err := rider.ParseStatCode(s)
	if err != nil {
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidSort, s)
	}
	return string(code), nil
}

// Sort orders rows in place by spec. The sort is stable and rows missing the
// sort value come last in either direction.
func Sort(rows []rider.Rider, spec *SortSpec) error {
	if spec == nil {
		return nil
	}
	field, err := canonicalSortField(spec.Field)
	if err != nil {
		return err
	}

	dir := 1
	if spec.Desc {
		dir = -1
	}

	switch field {
	case SortName, SortTeam, SortNationality, SortSpecialization:
		col := collate.New(language.Und)
		get := stringField(field)
		slices.SortStableFunc(rows, func(a, b rider.Rider) int {
			av, bv := get(a), get(b)
			if c, done := missingLast(av == "", bv == ""); done {
				return c
			}
			return dir * col.CompareString(av, bv)
		})
	default:
		get := intField(field)
		slices.SortStableFunc(rows, func(a, b rider.Rider) int {
			av, aok := get(a)
			bv, bok := get(b)
			if c, done := missingLast(!aok, !bok); done {
				return c
			}
			return dir * cmp.Compare(av, bv)
		})
	}
	return nil
}

func missingLast(aMissing, bMissing bool) (int, bool) {
	switch {
	case aMissing && bMissing:
		return 0, true
	case aMissing:
		return 1, true
	case bMissing:
		return -1, true
	}
	return 0, false
}

func stringField(field string) func(rider.Rider) string {
	switch field {
	case SortTeam:
		return func(r rider.Rider) string { return r.Team }
	case SortNationality:
		return func(r rider.Rider) string { return r.Nationality }
	case SortSpecialization:
		return func(r rider.Rider) string { return string(r.Specialization) }
	}
	return func(r rider.Rider) string { return r.Name }
}

func intField(field string) func(rider.Rider) (int, bool) {
	if field == SortAge {
		return func(r rider.Rider) (int, bool) { return r.Age.Value, r.Age.Valid }
	}
	code := rider.StatCode(field)
	return func(r rider.Rider) (int, bool) { return r.Rating(code) }
}

// Page returns rows[offset:offset+limit], clamped. A non-positive limit means no limit.
func Page(rows []rider.Rider, offset, limit int) []rider.Rider {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []rider.Rider{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
