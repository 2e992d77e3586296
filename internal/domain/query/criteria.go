package query

import (
	"fmt"
	"strings"

	"github.com/okian/cyclingdb/internal/domain/rider"
)

// Range is an inclusive interval; a nil bound is open.
type Range struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Between returns the closed range [lo, hi].
func Between(lo, hi int) Range { return Range{Min: &lo, Max: &hi} }

// AtLeast returns [lo, +inf).
func AtLeast(lo int) Range { return Range{Min: &lo} }

// AtMost returns (-inf, hi].
func AtMost(hi int) Range { return Range{Max: &hi} }

// IsZero reports whether both bounds are open.
func (r Range) IsZero() bool { return r.Min == nil && r.Max == nil }

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r Range) validate(field string) error {
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("%w: %s min %d is greater than max %d", ErrInvalidCriteria, field, *r.Min, *r.Max)
	}
	return nil
}

// Criteria is a set of optional predicates combined with logical AND.
// A zero field never constrains the result.
type Criteria struct {
	Name           string                   `json:"name,omitempty"`
	Teams          []string                 `json:"teams,omitempty"`
	Nationalities  []string                 `json:"nationalities,omitempty"`
	Age            Range                    `json:"age,omitzero"`
	Ratings        map[rider.StatCode]Range `json:"ratings,omitempty"`
	Specialization rider.Specialization     `json:"specialization,omitempty"`
	Expression     string                   `json:"expression,omitempty"`
}

// IsEmpty reports whether no criterion is active.
func (c Criteria) IsEmpty() bool {
	if strings.TrimSpace(c.Name) != "" || len(c.Teams) > 0 || len(c.Nationalities) > 0 {
		return false
	}
	if !c.Age.IsZero() || c.Specialization != rider.Unknown || strings.TrimSpace(c.Expression) != "" {
		return false
	}
	for _, r := range c.Ratings {
		if !r.IsZero() {
			return false
		}
	}
	return true
}

// Validate rejects inverted ranges and unknown rating codes.
func (c Criteria) Validate() error {
	if err := c.Age.validate("age"); err != nil {
		return err
	}
	for code, r := range c.Ratings {
		if code.Index() < 0 {
			return fmt.Errorf("%w: unknown rating %q", ErrInvalidCriteria, code)
		}
		if err := r.validate(string(code)); err != nil {
			return err
		}
	}
	return nil
}
