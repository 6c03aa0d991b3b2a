package bserve

import (
	"context"
	"net/http"

	"github.com/advdv/bfilter"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id. An incoming value is reused, otherwise a new one is generated.
const RequestIDHeader = "X-Request-Id"

// ctxKey is the key type for context values.
type ctxKey int

const (
	ctxKeyRequestDep ctxKey = iota
	ctxKeyRequestID
)

// requestDep holds request-scoped dependencies available via context.
// App-scoped dependencies (env, metrics) are accessed via Runtime instead.
type requestDep struct {
	logger *zap.Logger
}

// withRequestDep injects dependencies into the request context.
func withRequestDep(d *requestDep) bfilter.Middleware {
	return func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			ctx := context.WithValue(r.Context(), ctxKeyRequestDep, d)
			return next.ServeBareBHTTP(w, r.WithContext(ctx))
		})
	}
}

// withRequestID assigns every request an id and echoes it in a successful response.
func withRequestID() bfilter.Middleware {
	return func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)

			return next.ServeBareBHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
		})
	}
}

func requestDepFromContext(ctx context.Context) *requestDep {
	d, ok := ctx.Value(ctxKeyRequestDep).(*requestDep)
	if !ok {
		panic("bserve: requestDep not found in context; is the middleware configured?")
	}
	return d
}

// RequestID returns the id of the request, or an empty string outside of a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// Log returns a request and trace correlated zap logger from the context.
func Log(ctx context.Context) *zap.Logger {
	d := requestDepFromContext(ctx)

	fields := traceFields(ctx)
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	return d.logger.With(fields...)
}

// Span returns the current trace span from the context.
func Span(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
