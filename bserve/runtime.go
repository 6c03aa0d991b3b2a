package bserve

import (
	"context"
	"net/http"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"
)

// Runtime provides access to app-scoped dependencies.
// Inject this into handler constructors via fx instead of pulling from context.
//
// Example:
//
//	type Handlers struct {
//	    rt *bserve.Runtime[Env]
//	}
//
//	func NewHandlers(rt *bserve.Runtime[Env]) *Handlers {
//	    return &Handlers{rt: rt}
//	}
//
//	func (h *Handlers) Notify(ctx context.Context, w bfilter.ResponseWriter, emp Employee) error {
//	    return h.rt.NewRequest(ctx).BaseURL(h.rt.Env().WebhookURL).BodyJSON(emp).Fetch(ctx)
//	}
type Runtime[E Environment] struct {
	env       E
	logger    *zap.Logger
	metrics   *Metrics
	transport http.RoundTripper
}

// RuntimeParams holds optional dependencies for Runtime.
type RuntimeParams struct {
	Logger    *zap.Logger
	Metrics   *Metrics
	Transport http.RoundTripper
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, params RuntimeParams) *Runtime[E] {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Transport == nil {
		params.Transport = outboundTransport{next: http.DefaultTransport, userAgent: "bfilter/" + env.serviceName()}
	}

	return &Runtime[E]{
		env:       env,
		logger:    params.Logger,
		metrics:   params.Metrics,
		transport: params.Transport,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Logger returns the app-scoped logger. Within a request prefer [Log], which adds request and trace fields.
func (r *Runtime[E]) Logger() *zap.Logger {
	return r.logger
}

// Metrics returns the collectors of the server, for registering additional application metrics.
func (r *Runtime[E]) Metrics() *Metrics {
	return r.metrics
}

// NewRequest returns a request builder for outbound calls on the transport of [NewHTTPTransport]. Fetching it with
// the request's ctx makes the call a child span of the request and carries the request id along.
func (r *Runtime[E]) NewRequest(context.Context) *requests.Builder {
	return newRequestBuilder(r.transport)
}
