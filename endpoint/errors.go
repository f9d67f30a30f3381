package endpoint

import (
	"context"
	"errors"
	"net/http"

	"github.com/ajbozarth/enterprise-gateway/kernel"
)

// Sentinel errors for request handling.
var (
	// ErrMethodNotSupported indicates the HTTP method has no configured
	// source snippet. No kernel is touched in this case.
	ErrMethodNotSupported = errors.New("method not supported")

	// ErrCorrelationTimeout indicates the kernel never reported idle for
	// the submission within the configured bound. The kernel is released
	// before this error is reported.
	ErrCorrelationTimeout = errors.New("execution did not complete in time")
)

// StatusFor maps a bridge error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMethodNotSupported):
		return http.StatusMethodNotAllowed
	case errors.Is(err, kernel.ErrPoolExhausted), errors.Is(err, kernel.ErrPoolClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrCorrelationTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
