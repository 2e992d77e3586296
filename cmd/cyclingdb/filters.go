package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/cyclingdb/internal/adapters/http/api"
	service "github.com/okian/cyclingdb/internal/app"
	"github.com/spf13/cobra"
)

// filterFlags are the search flags shared by search, export and stats. They
// are translated to the same query parameters the HTTP API accepts.
type filterFlags struct {
	name           string
	teams          []string
	nationalities  []string
	ageMin         int
	ageMax         int
	mins           map[string]int
	maxs           map[string]int
	specialization string
	expr           string
	sort           string
	offset         int
	limit          int
}

func (f *filterFlags) register(cmd *cobra.Command, paging bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.name, "name", "", "case-insensitive substring of the rider name")
	fl.StringArrayVar(&f.teams, "team", nil, "exact team name (repeatable)")
	fl.StringArrayVar(&f.nationalities, "nationality", nil, "exact nationality (repeatable)")
	fl.IntVar(&f.ageMin, "age-min", 0, "minimum age, inclusive")
	fl.IntVar(&f.ageMax, "age-max", 0, "maximum age, inclusive")
	fl.StringToIntVar(&f.mins, "min", nil, "minimum ratings, e.g. MO=75,TT=70")
	fl.StringToIntVar(&f.maxs, "max", nil, "maximum ratings, e.g. SP=60")
	fl.StringVar(&f.specialization, "specialization", "", "specialization, e.g. Mountain or climber")
	fl.StringVar(&f.expr, "expr", "", `boolean expression, e.g. "MO >= 75 && age < 28"`)
	fl.StringVar(&f.sort, "sort", "", `sort field, "-" prefix for descending, e.g. -MO`)
	if paging {
		fl.IntVar(&f.offset, "offset", 0, "number of riders to skip")
		fl.IntVar(&f.limit, "limit", 0, "page size (0 uses the configured default)")
	}
}

// values renders the flags as API query parameters.
func (f *filterFlags) values(cmd *cobra.Command) url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if strings.TrimSpace(val) != "" {
			v.Set(key, val)
		}
	}
	set(api.ParamName, f.name)
	for _, t := range f.teams {
		v.Add(api.ParamTeam, t)
	}
	for _, n := range f.nationalities {
		v.Add(api.ParamNationality, n)
	}
	if cmd.Flags().Changed("age-min") {
		v.Set("age_min", strconv.Itoa(f.ageMin))
	}
	if cmd.Flags().Changed("age-max") {
		v.Set("age_max", strconv.Itoa(f.ageMax))
	}
	for code, n := range f.mins {
		v.Set(strings.ToLower(code)+"_min", strconv.Itoa(n))
	}
	for code, n := range f.maxs {
		v.Set(strings.ToLower(code)+"_max", strconv.Itoa(n))
	}
	set(api.ParamSpecialization, f.specialization)
	set(api.ParamExpr, f.expr)
	set(api.ParamSort, f.sort)
	if f.offset != 0 {
		v.Set(api.ParamOffset, strconv.Itoa(f.offset))
	}
	if f.limit != 0 {
		v.Set(api.ParamLimit, strconv.Itoa(f.limit))
	}
	return v
}

// request parses the flags into a service request.
func (f *filterFlags) request(cmd *cobra.Command) (service.Request, error) {
	req, err := api.ParseRequest(f.values(cmd))
	if err != nil {
		return req, fmt.Errorf("invalid filters: %w", err)
	}
	return req, nil
}
