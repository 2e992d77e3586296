package rider

import (
	"strings"
)

// Specialization is a rider's strongest discipline.
type Specialization string

// Known specializations. The empty value means unknown.
const (
	Unknown      Specialization = ""
	Flat         Specialization = "Flat"
	Mountain     Specialization = "Mountain"
	Hill         Specialization = "Hill"
	Cobblestones Specialization = "Cobblestones"
	TimeTrial    Specialization = "TimeTrial"
	Sprint       Specialization = "Sprint"
)

// Specializations lists the known values in the order of their stat codes.
var Specializations = []Specialization{Flat, Mountain, Hill, Cobblestones, TimeTrial, Sprint}

// specializationStats is the fixed subset of codes used for derivation, in canonical order.
var specializationStats = []struct {
	code StatCode
	spec Specialization
}{
	{FL, Flat},
	{MO, Mountain},
	{HL, Hill},
	{CS, Cobblestones},
	{TT, TimeTrial},
	{SP, Sprint},
}

var specializationAliases = map[string]Specialization{
	"flat":         Flat,
	"rouleur":      Flat,
	"fl":           Flat,
	"mountain":     Mountain,
	"climber":      Mountain,
	"mo":           Mountain,
	"hill":         Hill,
	"hills":        Hill,
	"puncheur":     Hill,
	"hl":           Hill,
	"cobblestones": Cobblestones,
	"cobbles":      Cobblestones,
	"classics":     Cobblestones,
	"cs":           Cobblestones,
	"timetrial":    TimeTrial,
	"tt":           TimeTrial,
	"chrono":       TimeTrial,
	"sprint":       Sprint,
	"sprinter":     Sprint,
	"sp":           Sprint,
}

// ParseSpecialization resolves a label or alias, ignoring case, spaces, hyphens and underscores.
func ParseSpecialization(s string) (Specialization, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	if key == "" {
		return Unknown, false
	}
	spec, ok := specializationAliases[key]
	return spec, ok
}

// DeriveSpecialization picks the code with the highest rating among FL, MO, HL, CS, TT and SP.
// Ties go to the earliest code; no ratings yields Unknown.
func DeriveSpecialization(ratings map[StatCode]int) Specialization {
	best, bestValue := Unknown, -1
	for _, s := range specializationStats {
		v, ok := ratings[s.code]
		if ok && v > bestValue {
			best, bestValue = s.spec, v
		}
	}
	return best
}

// StatCode returns the rating code backing the specialization.
func (s Specialization) StatCode() (StatCode, bool) {
	for _, e := range specializationStats {
		if e.spec == s {
			return e.code, true
		}
	}
	return "", false
}
