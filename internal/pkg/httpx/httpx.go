package httpx

import (
	"context"
	"errors"
	"net"
)

// IsRetryableHTTPStatus reports statuses worth retrying for an upstream call.
// 500 is excluded: the upstream may already have applied the request.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 408, 429, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsRetryableError reports transport failures that never reached the upstream
// handler. Context cancellation is not retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
