package bfiltertest

import (
	"net/http"
	"testing"

	"github.com/advdv/bfilter"
)

// Route inits a route for method and path whose body is s. A nil s makes the body unavailable.
func Route(tb testing.TB, method, path string, s *Stream) *bfilter.Route {
	tb.Helper()

	var body bfilter.BodyStream
	if s != nil {
		body = s
	}

	rt := bfilter.NewRoute(method, path, http.Header{}, body, bfilter.NewTestLogger(tb))
	tb.Cleanup(func() { _ = rt.Close() })

	return rt
}

// PollN polls d up to n times with a fresh waker and returns the last result. It stops early once d is no longer
// pending.
func PollN[T any](d bfilter.Deferred[T], n int) bfilter.Poll[T] {
	w := bfilter.NewWaker()

	p := d.Poll(w)
	for i := 1; i < n && p.Status() == bfilter.Pending; i++ {
		p = d.Poll(w)
	}

	return p
}
