package rider

import (
	"strings"
)

// Column is a canonical dataset column.
type Column string

// Non-rating columns. Rating columns use their StatCode value.
const (
	ColName           Column = "Name"
	ColTeam           Column = "Team"
	ColNationality    Column = "Nationality"
	ColAge            Column = "Age"
	ColSpecialization Column = "Specialization"
)

// Columns is the canonical column set in export order.
var Columns = func() []Column {
	cols := []Column{ColName, ColTeam, ColNationality, ColAge, ColSpecialization}
	for _, c := range StatCodes {
		cols = append(cols, Column(c))
	}
	return cols
}()

// RequiredColumns must be present in every source header.
var RequiredColumns = []Column{ColName, ColTeam, ColAge}

var columnAliases = map[string]Column{
	"rider":          ColName,
	"ridername":      ColName,
	"teamname":       ColTeam,
	"country":        ColNationality,
	"nation":         ColNationality,
	"nat":            ColNationality,
	"speciality":     ColSpecialization,
	"specialty":      ColSpecialization,
	"type":           ColSpecialization,
	"overall":        Column(Eval),
	"evaluation":     Column(Eval),
	"flat":           Column(FL),
	"mountain":       Column(MO),
	"hill":           Column(HL),
	"baroudeur":      Column(BA),
	"downhill":       Column(DH),
	"cobblestones":   Column(CS),
	"cobbles":        Column(CS),
	"timetrial":      Column(TT),
	"prologue":       Column(PR),
	"sprint":         Column(SP),
	"acceleration":   Column(AC),
	"stamina":        Column(ST),
	"resistance":     Column(RS),
	"recovery":       Column(RC),
	"specialization": ColSpecialization,
}

var headerStripper = strings.NewReplacer(" ", "", "_", "", "-", "", "\t", "")

// NormalizeHeader reduces a raw header cell to its lookup key.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	h = strings.Trim(h, `"'`)
	return headerStripper.Replace(strings.ToLower(h))
}

// CanonicalColumn maps a raw header cell to its canonical column.
func CanonicalColumn(header string) (Column, bool) {
	key := NormalizeHeader(header)
	if key == "" {
		return "", false
	}
	for _, c := range Columns {
		if strings.ToLower(string(c)) == key {
			return c, true
		}
	}
	c, ok := columnAliases[key]
	return c, ok
}

// StatCode reports whether the column holds a rating.
func (c Column) StatCode() (StatCode, bool) {
	code := StatCode(c)
	if code.Index() < 0 {
		return "", false
	}
	return code, true
}
