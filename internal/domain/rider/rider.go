// Package rider defines the rider record, its stat codes and the canonical column schema.
package rider

import (
	"maps"
	"math"
	"strconv"
	"strings"
)

// Value bounds for ages and ratings.
const (
	MinAge    = 0
	MaxAge    = 100
	MinRating = 0
	MaxRating = 100
)

// Rider is one dataset row.
type Rider struct {
	Name           string           `json:"name"`
	Team           string           `json:"team"`
	Nationality    string           `json:"nationality,omitempty"`
	Age            NullInt          `json:"age"`
	Specialization Specialization   `json:"specialization,omitempty"`
	Ratings        map[StatCode]int `json:"ratings"`
}

// Clone returns a copy of r that shares no state with it.
func (r Rider) Clone() Rider {
	r.Ratings = maps.Clone(r.Ratings)
	return r
}

// Rating returns the rating for code and whether it is present.
func (r Rider) Rating(code StatCode) (int, bool) {
	v, ok := r.Ratings[code]
	return v, ok
}

// Value returns the string value of a column, empty when missing.
func (r Rider) Value(c Column) string {
	switch c {
	case ColName:
		return r.Name
	case ColTeam:
		return r.Team
	case ColNationality:
		return r.Nationality
	case ColAge:
		return r.Age.String()
	case ColSpecialization:
		return string(r.Specialization)
	}
	if code, ok := c.StatCode(); ok {
		if v, ok := r.Ratings[code]; ok {
			return strconv.Itoa(v)
		}
	}
	return ""
}

// Validate checks the row invariants.
func Validate(r Rider) error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: string(ColName), Value: r.Name, Message: "name is required"}
	}
	if r.Age.Valid && (r.Age.Value < MinAge || r.Age.Value > MaxAge) {
		return &ValidationError{Field: string(ColAge), Value: r.Age.String(), Message: "age out of range"}
	}
	for _, code := range StatCodes {
		if v, ok := r.Ratings[code]; ok && (v < MinRating || v > MaxRating) {
			return &ValidationError{Field: string(code), Value: strconv.Itoa(v), Message: "rating out of range"}
		}
	}
	return nil
}

// CleanCell trims whitespace and unwraps the spreadsheet text guard `="72"`.
// Any other quotes or equals signs are part of the value.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// ParseBounded coerces a raw cell into an integer within [lo, hi].
// A zero fraction is accepted; anything else yields a missing value.
func ParseBounded(raw string, lo, hi int) NullInt {
	s := strings.TrimSpace(strings.TrimPrefix(CleanCell(raw), "="))
	if s == "" {
		return NullInt{}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return NullInt{}
		}
		v = int(f)
	}
	if v < lo || v > hi {
		return NullInt{}
	}
	return Int(v)
}
