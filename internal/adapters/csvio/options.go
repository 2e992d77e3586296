package csvio

// SpecializationMode selects where a rider's specialization comes from.
type SpecializationMode string

// Specialization modes.
const (
	// ModeAuto uses the Specialization column when present and derives it otherwise.
	ModeAuto SpecializationMode = "auto"
	// ModeColumn requires the Specialization column.
	ModeColumn SpecializationMode = "column"
	// ModeDerived ignores any Specialization column.
	ModeDerived SpecializationMode = "derived"
)

const (
	defaultDelimiter = ';'
	defaultMaxIssues = 50
)

type options struct {
	mode       SpecializationMode
	maxIssues  int
	allowEmpty bool
}

// Option configures Parse.
type Option func(*options)

// WithSpecializationMode sets the specialization mode. Unknown values are ignored.
func WithSpecializationMode(mode SpecializationMode) Option {
	return func(o *options) {
		switch mode {
		case ModeAuto, ModeColumn, ModeDerived:
			o.mode = mode
		}
	}
}

// WithAllowEmpty accepts a header without rider rows, as written by Export
// for an empty result.
func WithAllowEmpty() Option {
	return func(o *options) {
		o.allowEmpty = true
	}
}

// WithMaxIssues caps the number of row issues kept in a Result.
func WithMaxIssues(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxIssues = n
		}
	}
}
