package csvio

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrEmpty          = errors.New("csv input is empty")
	ErrMissingColumns = errors.New("csv header is missing required columns")
	ErrMalformed      = errors.New("malformed csv")
	ErrNoRows         = errors.New("csv has no valid rows")
)
