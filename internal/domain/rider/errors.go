package rider

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrValidation  = errors.New("validation failed")
	ErrUnknownStat = errors.New("unknown stat code")
)

// ValidationError describes a row that violates the schema. It is never fatal for a load.
type ValidationError struct {
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s (%q)", e.Line, e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s (%q)", e.Field, e.Message, e.Value)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
