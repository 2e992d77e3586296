package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	service "github.com/okian/cyclingdb/internal/app"
	"github.com/okian/cyclingdb/internal/domain/query"
	"github.com/okian/cyclingdb/internal/domain/rider"
)

// Query parameter names.
const (
	ParamName           = "name"
	ParamTeam           = "team"
	ParamNationality    = "nationality"
	ParamSpecialization = "specialization"
	ParamExpr           = "expr"
	ParamSort           = "sort"
	ParamOffset         = "offset"
	ParamLimit          = "limit"

	suffixMin = "_min"
	suffixMax = "_max"
)

// ParseRequest builds a search request from query parameters. Range bounds are
// given as age_min/age_max and <code>_min/<code>_max for any stat code, e.g.
// mo_min=70. Empty values are ignored; range parameters naming an unknown
// field are rejected.
func ParseRequest(v url.Values) (service.Request, error) {
	var req service.Request
	c := &req.Criteria

	c.Name = strings.TrimSpace(v.Get(ParamName))
	c.Teams = nonEmpty(v[ParamTeam])
	c.Nationalities = nonEmpty(v[ParamNationality])
	c.Expression = strings.TrimSpace(v.Get(ParamExpr))

	if raw := strings.TrimSpace(v.Get(ParamSpecialization)); raw != "" {
		spec, ok := rider.ParseSpecialization(raw)
		if !ok {
			return req, fmt.Errorf("%w: unknown specialization %q", ErrBadRequest, raw)
		}
		c.Specialization = spec
	}

	for key, vals := range v {
		k := strings.ToLower(key)
		var isMin bool
		switch {
		case strings.HasSuffix(k, suffixMin):
			isMin = true
		case strings.HasSuffix(k, suffixMax):
		default:
			continue
		}
		if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			continue
		}
		n, err := intParam(key, vals)
		if err != nil {
			return req, err
		}
		field := k[:len(k)-len(suffixMin)]
		if field == "age" {
			setBound(&c.Age, isMin, n)
			continue
		}
		code, err := rider.ParseStatCode(field)
		if err != nil {
			return req, fmt.Errorf("%w: %s: %w", ErrBadRequest, key, err)
		}
		if c.Ratings == nil {
			c.Ratings = make(map[rider.StatCode]query.Range)
		}
		rng := c.Ratings[code]
		setBound(&rng, isMin, n)
		c.Ratings[code] = rng
	}

	spec, err := query.ParseSort(v.Get(ParamSort))
	if err != nil {
		return req, err
	}
	req.Sort = spec

	if req.Offset, err = optionalInt(v, ParamOffset); err != nil {
		return req, err
	}
	if req.Limit, err = optionalInt(v, ParamLimit); err != nil {
		return req, err
	}
	return req, c.Validate()
}

func setBound(r *query.Range, isMin bool, n int) {
	if isMin {
		r.Min = &n
		return
	}
	r.Max = &n
}

func intParam(key string, vals []string) (int, error) {
	if len(vals) == 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrBadRequest, key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(vals[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, key)
	}
	return n, nil
}

func optionalInt(v url.Values, key string) (int, error) {
	if strings.TrimSpace(v.Get(key)) == "" {
		return 0, nil
	}
	return intParam(key, v[key])
}

func nonEmpty(values []string) []string {
	var out []string
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
