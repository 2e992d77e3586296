package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/cyclingdb/internal/adapters/source"
	service "github.com/okian/cyclingdb/internal/app"
	"github.com/okian/cyclingdb/internal/domain/query"
)

// ErrBadRequest marks malformed query parameters.
var ErrBadRequest = errors.New("bad request")

// Error codes returned in error bodies.
const (
	codeBadRequest        = "bad_request"
	codeSourceUnavailable = "source_unavailable"
	codeSourceInvalid     = "source_invalid"
	codeTimeout           = "timeout"
	codeInternal          = "internal_error"
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// classify maps an error to its HTTP status, code and retryability.
func classify(err error) (int, string, bool) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, query.ErrInvalidCriteria),
		errors.Is(err, query.ErrInvalidSort):
		return http.StatusBadRequest, codeBadRequest, false
	case errors.Is(err, source.ErrNetwork):
		return http.StatusServiceUnavailable, codeSourceUnavailable, true
	case errors.Is(err, source.ErrEncoding), errors.Is(err, source.ErrParse):
		return http.StatusBadGateway, codeSourceInvalid, false
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout, true
	default:
		return http.StatusInternalServerError, codeInternal, false
	}
}
