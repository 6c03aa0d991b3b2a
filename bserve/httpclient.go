package bserve

import (
	"net/http"

	"github.com/carlmjohnson/requests"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// outboundTransport stamps calls made while serving a request with that request's id, and names the calling
// service in the User-Agent header when the caller did not set one.
type outboundTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t outboundTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := RequestID(req.Context())
	if id == "" && req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	if id != "" && req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, id)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	return t.next.RoundTrip(req)
}

// NewHTTPTransport returns the transport for outbound calls. Each call is a child span of the serving request, and
// carries its trace context and request id.
func NewHTTPTransport(env Environment, tp trace.TracerProvider, prop propagation.TextMapPropagator) http.RoundTripper {
	return outboundTransport{
		next: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(prop),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "outbound " + r.Method + " " + r.URL.Host
			}),
		),
		userAgent: "bfilter/" + env.serviceName(),
	}
}

// NewHTTPClient returns a client on the outbound transport, for libraries that want an *http.Client.
func NewHTTPClient(t http.RoundTripper) *http.Client {
	return &http.Client{Transport: t}
}

func newRequestBuilder(t http.RoundTripper) *requests.Builder {
	return requests.New().Transport(t)
}
