// Package csvio reads and writes the semicolon separated rider export.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/cyclingdb/internal/domain/rider"
)

// Result is the outcome of a successful Parse.
type Result struct {
	Riders  []rider.Rider
	Columns []rider.Column
	Ignored []string
	Dropped int
	Issues  []rider.ValidationError
}

// Parse reads a header row followed by rider rows. Rows without a name are
// dropped and recorded as issues; unparseable numbers become missing values.
func Parse(r io.Reader, opts ...Option) (*Result, error) {
	o := options{mode: ModeAuto, maxIssues: defaultMaxIssues}
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.Comma = defaultDelimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}

	res := &Result{}
	index := make(map[rider.Column]int)
	for i, h := range header {
		col, ok := rider.CanonicalColumn(h)
		if !ok {
			if strings.TrimSpace(h) != "" {
				res.Ignored = append(res.Ignored, strings.TrimSpace(h))
			}
			continue
		}
		if _, dup := index[col]; dup {
			continue
		}
		index[col] = i
		res.Columns = append(res.Columns, col)
	}
	if err := checkRequired(index, o.mode); err != nil {
		return nil, err
	}

	_, hasSpec := index[rider.ColSpecialization]
	useColumn := hasSpec && o.mode != ModeDerived

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		line, _ := cr.FieldPos(0)
		cell := func(c rider.Column) string {
			i, ok := index[c]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		rd, issues := buildRider(cell, useColumn)
		for _, is := range issues {
			is.Line = line
			res.addIssue(is, o.maxIssues)
		}
		if rd == nil {
			res.Dropped++
			continue
		}
		res.Riders = append(res.Riders, *rd)
	}

	if len(res.Riders) == 0 && (!o.allowEmpty || res.Dropped > 0) {
		return nil, ErrNoRows
	}
	return res, nil
}

func checkRequired(index map[rider.Column]int, mode SpecializationMode) error {
	required := rider.RequiredColumns
	if mode == ModeColumn {
		required = append(required[:len(required):len(required)], rider.ColSpecialization)
	}
	var missing []string
	for _, c := range required {
		if _, ok := index[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func (r *Result) addIssue(is rider.ValidationError, limit int) {
	if len(r.Issues) < limit {
		r.Issues = append(r.Issues, is)
	}
}

func buildRider(cell func(rider.Column) string, useSpecColumn bool) (*rider.Rider, []rider.ValidationError) {
	var issues []rider.ValidationError

	rd := rider.Rider{
		Name:        rider.CleanCell(cell(rider.ColName)),
		Team:        rider.CleanCell(cell(rider.ColTeam)),
		Nationality: rider.CleanCell(cell(rider.ColNationality)),
		Ratings:     make(map[rider.StatCode]int),
	}

	raw := cell(rider.ColAge)
	rd.Age = rider.ParseBounded(raw, rider.MinAge, rider.MaxAge)
	if !rd.Age.Valid && rider.CleanCell(raw) != "" {
		issues = append(issues, rider.ValidationError{Field: string(rider.ColAge), Value: raw, Message: "age set to missing"})
	}

	for _, code := range rider.StatCodes {
		raw := cell(rider.Column(code))
		v := rider.ParseBounded(raw, rider.MinRating, rider.MaxRating)
		if v.Valid {
			rd.Ratings[code] = v.Value
		} else if rider.CleanCell(raw) != "" {
			issues = append(issues, rider.ValidationError{Field: string(code), Value: raw, Message: "rating set to missing"})
		}
	}

	spec := rider.Unknown
	if useSpecColumn {
		spec, _ = rider.ParseSpecialization(rider.CleanCell(cell(rider.ColSpecialization)))
	}
	if spec == rider.Unknown {
		spec = rider.DeriveSpecialization(rd.Ratings)
	}
	rd.Specialization = spec

	if err := rider.Validate(rd); err != nil {
		var verr *rider.ValidationError
		if errors.As(err, &verr) {
			issues = append(issues, *verr)
		}
		return nil, issues
	}
	return &rd, issues
}
