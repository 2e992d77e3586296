package rider

import (
	"fmt"
	"strings"
)

// StatCode identifies one rating dimension.
type StatCode string

// Stat codes as they appear in the game export.
const (
	Eval StatCode = "Eval"
	FL   StatCode = "FL"
	MO   StatCode = "MO"
	HL   StatCode = "HL"
	BA   StatCode = "BA"
	DH   StatCode = "DH"
	CS   StatCode = "CS"
	TT   StatCode = "TT"
	PR   StatCode = "PR"
	SP   StatCode = "SP"
	AC   StatCode = "AC"
	ST   StatCode = "ST"
	RS   StatCode = "RS"
	RC   StatCode = "RC"
)

// StatCodes lists every code in canonical order.
var StatCodes = []StatCode{Eval, FL, MO, HL, BA, DH, CS, TT, PR, SP, AC, ST, RS, RC}

var statLabels = map[StatCode]string{
	Eval: "Evaluation",
	FL:   "Flat",
	MO:   "Mountain",
	HL:   "Hill",
	BA:   "Baroudeur",
	DH:   "Downhill",
	CS:   "Cobblestones",
	TT:   "Time Trial",
	PR:   "Prologue",
	SP:   "Sprint",
	AC:   "Acceleration",
	ST:   "Stamina",
	RS:   "Resistance",
	RC:   "Recovery",
}

// Label returns the human readable name of the code.
func (c StatCode) Label() string {
	if l, ok := statLabels[c]; ok {
		return l
	}
	return string(c)
}

// Index returns the position of the code in canonical order, or -1.
func (c StatCode) Index() int {
	for i, s := range StatCodes {
		if s == c {
			return i
		}
	}
	return -1
}

// ParseStatCode resolves a code case-insensitively. "Overall" is accepted for Eval.
func ParseStatCode(s string) (StatCode, error) {
	v := strings.TrimSpace(s)
	if strings.EqualFold(v, "overall") {
		return Eval, nil
	}
	for _, c := range StatCodes {
		if strings.EqualFold(v, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStat, s)
}
