package query

import (
	"errors"
)

// Sentinel error kinds for malformed user input. Well-formed criteria never fail.
var (
	ErrInvalidCriteria = errors.New("invalid criteria")
	ErrInvalidSort     = errors.New("invalid sort")
)
