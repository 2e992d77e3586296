package service

import "errors"

// ErrInvalidRequest is returned for malformed paging parameters.
var ErrInvalidRequest = errors.New("invalid request")
