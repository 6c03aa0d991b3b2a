package bserve

import (
	"context"
	"net/http"
	"time"

	"github.com/advdv/bfilter"
)

// Timeout Configuration
//
// Every request gets a context deadline of BF_REQUEST_TIMEOUT. Filters that wait for the request body park on
// this context, so a client that stops sending halfway is rejected with a 408 once the deadline passes instead of
// holding the handler forever.
//
// The http.Server timeouts are derived from the same value and act as an outer bound: they catch slow header
// reads and idle connections that never reach a handler.

// DefaultDeadlineBuffer is the time the server-level timeouts add on top of the request timeout, so that a request
// that hits its deadline can still write the error response.
const DefaultDeadlineBuffer = 500 * time.Millisecond

// TimeoutConfig holds timeout configuration for the HTTP server.
type TimeoutConfig struct {
	// RequestTimeout is the deadline of a single request.
	RequestTimeout time.Duration

	// DeadlineBuffer is added to the request timeout for the write timeout. Defaults to DefaultDeadlineBuffer.
	DeadlineBuffer time.Duration
}

// ServerTimeouts returns the http.Server timeout values for the request timeout.
func (tc TimeoutConfig) ServerTimeouts() (readHeaderTimeout, readTimeout, writeTimeout, idleTimeout time.Duration) {
	buffer := tc.DeadlineBuffer
	if buffer <= 0 {
		buffer = DefaultDeadlineBuffer
	}

	timeout := tc.RequestTimeout
	if timeout <= 0 {
		return 0, 0, 0, 0 // no bounds
	}

	readHeaderTimeout = min(timeout, 5*time.Second)
	readTimeout = timeout
	writeTimeout = timeout + buffer
	idleTimeout = 2 * timeout

	return
}

// WithRequestTimeout returns middleware that sets a context deadline of d on every request. A d <= 0 passes the
// context through unchanged.
func WithRequestTimeout(d time.Duration) bfilter.Middleware {
	return func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			if d <= 0 {
				return next.ServeBareBHTTP(w, r)
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			return next.ServeBareBHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestRemainingTime returns the duration until the request context deadline.
// Returns 0 if no deadline is set or if the deadline has passed.
func RequestRemainingTime(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	remaining := time.Until(deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}
