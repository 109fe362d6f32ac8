package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/vertice-ops/dfc-assistant-go/internal/domain"
)

// wrapOutboundErr translates transport failures into the domain error
// taxonomy the HTTP layer maps to status codes: an open breaker and a
// blown deadline are different incidents and must not both read as a
// generic upstream failure.
func wrapOutboundErr(service string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: service}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: service}
	default:
		return &domain.ErrExternalService{Service: service, Err: err}
	}
}

// permanentStatus reports whether a response status makes the request
// unretryable: re-sending the same bad API key or over-long prompt can
// only burn the retry budget. 408 and 429 stay retryable.
func permanentStatus(status int) bool {
	return status >= 400 && status < 500 &&
		status != http.StatusRequestTimeout &&
		status != http.StatusTooManyRequests
}
