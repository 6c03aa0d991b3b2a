package bserve

import (
	"context"
	"net/http"

	"github.com/advdv/bfilter"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

// NewTracerProvider creates and configures the OpenTelemetry TracerProvider.
// Supported exporters via BF_OTEL_EXPORTER: "stdout" (default) and "none".
// Shutdown is handled automatically via fx.Lifecycle.
func NewTracerProvider(lc fx.Lifecycle, env Environment) (trace.TracerProvider, error) {
	switch env.otelExporter() {
	case "none":
		return noop.NewTracerProvider(), nil
	case "stdout", "":
	default:
		return nil, errors.Newf("unsupported BF_OTEL_EXPORTER: %q (supported: stdout, none)", env.otelExporter())
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, errors.Wrap(err, "init stdout exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(env.serviceName()),
		)),
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

// NewPropagator creates the W3C TraceContext + Baggage composite propagator.
func NewPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// withTracing wraps the handler with otelhttp for automatic span creation.
// Requests to excludePaths are not traced.
// The TracerProvider and Propagator are explicitly injected to avoid global state.
func withTracing(
	tp trace.TracerProvider, prop propagation.TextMapPropagator, serviceName string, excludePaths ...string,
) func(http.Handler) http.Handler {
	excludeSet := make(map[string]struct{}, len(excludePaths))
	for _, p := range excludePaths {
		excludeSet[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(prop),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
			otelhttp.WithFilter(func(r *http.Request) bool {
				_, excluded := excludeSet[r.URL.Path]
				return !excluded
			}),
		)
	}
}

// withRejectionEvents records a request that failed with a status code as an event on the request span. Rejections with a server
// error code also mark the span as failed.
func withRejectionEvents() bfilter.Middleware {
	return func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			err := next.ServeBareBHTTP(w, r)
			code := bfilter.CodeOf(err)
			if err == nil || code == bfilter.CodeUnknown {
				return err
			}

			span := trace.SpanFromContext(r.Context())
			span.AddEvent("request rejected", trace.WithAttributes(
				attribute.String("bfilter.rejection.kind", bfilter.KindOf(err).String()),
				attribute.Int("bfilter.rejection.code", int(code)),
			))

			if code >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, err.Error())
			}

			return err
		})
	}
}
