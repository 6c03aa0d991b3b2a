package bfilter

import (
	"net/http"
	"strings"
)

// Route is the per-request state filters run against. It is created when a request arrives, mutated in place as
// filters consume path segments or take the body, and closed when the pipeline completes. A Route is owned by a
// single pipeline and must not be shared between goroutines.
type Route struct {
	method string
	header http.Header
	path   string
	length int64
	body   BodyStream
	logs   Logger
}

// NewRoute inits a route. The path is in its escaped form: path filters split it on "/" and unescape each segment
// once. The body may be nil when the request has none, in which case it is unavailable from the start.
func NewRoute(method, path string, header http.Header, body BodyStream, logs Logger) *Route {
	if header == nil {
		header = http.Header{}
	}
	if logs == nil {
		logs = NopLogger{}
	}

	return &Route{
		method: method,
		header: header,
		path:   path,
		length: -1,
		body:   body,
		logs:   logs,
	}
}

// RouteFromRequest inits a route from a standard library request. The route path is the escaped request path, so an
// encoded "/" stays inside its segment. The request body is bridged into a [ReaderStream] and owned by the route from
// here on.
func RouteFromRequest(r *http.Request, logs Logger) *Route {
	var body BodyStream
	if r.Body != nil && r.Body != http.NoBody {
		body = NewReaderStream(r.Body, DefaultChunkSize)
	}

	rt := NewRoute(r.Method, r.URL.EscapedPath(), r.Header, body, logs)
	rt.length = r.ContentLength

	return rt
}

// Method returns the request method.
func (rt *Route) Method() string { return rt.method }

// Header returns the request headers.
func (rt *Route) Header() http.Header { return rt.header }

// Path returns the escaped part of the path that has not been matched yet.
func (rt *Route) Path() string { return rt.path }

// ContentLength returns the declared body length, or -1 when unknown.
func (rt *Route) ContentLength() int64 { return rt.length }

// Logs returns the diagnostic observer for this request.
func (rt *Route) Logs() Logger { return rt.logs }

// TakeBody moves the body stream out of the route. The first call returns the stream, every later call returns
// false. Checking and clearing the slot is a single step so a filter that is applied twice by mistake observes an
// unavailable body instead of sharing the stream.
func (rt *Route) TakeBody() (BodyStream, bool) {
	body := rt.body
	rt.body = nil

	return body, body != nil
}

// Close releases the body if no filter took it.
func (rt *Route) Close() error {
	if body, ok := rt.TakeBody(); ok {
		return body.Close()
	}

	return nil
}

// nextSegment returns the next path segment without consuming it.
func (rt *Route) nextSegment() (seg string, ok bool) {
	p := strings.TrimPrefix(rt.path, "/")
	if p == "" {
		return "", false
	}

	if idx := strings.IndexByte(p, '/'); idx >= 0 {
		return p[:idx], true
	}

	return p, true
}

// consumeSegment drops the next path segment.
func (rt *Route) consumeSegment() {
	p := strings.TrimPrefix(rt.path, "/")
	if idx := strings.IndexByte(p, '/'); idx >= 0 {
		rt.path = p[idx:]
		return
	}

	rt.path = ""
}
