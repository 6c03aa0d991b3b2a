package bfilter

import (
	"context"
	"fmt"
	"net/http"
	"reflect"

	"github.com/cockroachdb/errors"
)

// Context constraint for "leaf" nodes.
type Context interface{ context.Context }

// ResponseWriter implements the http.ResponseWriter but the underlying bytes are buffered. This allows
// middleware to reset the writer and formulate a completely new response.
type ResponseWriter interface {
	http.ResponseWriter
	Reset()
	Free()
	FlushBuffer() error
}

// Handler mirrors http.Handler but it supports typed context values and a buffered response allow returning error.
type Handler[C Context] interface {
	ServeBHTTP(ctx C, w ResponseWriter, r *http.Request) error
}

// HandlerFunc allow casting a function to imple [Handler].
type HandlerFunc[C Context] func(C, ResponseWriter, *http.Request) error

// ServeBHTTP implements the [Handler] interface.
func (f HandlerFunc[C]) ServeBHTTP(ctx C, w ResponseWriter, r *http.Request) error {
	return f(ctx, w, r)
}

// BareHandler describes how middleware servers HTTP requests. In this library the signature for
// handling middleware [BareHandler] is different from the signature of "leaf" handlers: [Handler].
type BareHandler interface {
	ServeBareBHTTP(w ResponseWriter, r *http.Request) error
}

// BareHandlerFunc allow casting a function to an implementation of [Handler].
type BareHandlerFunc func(ResponseWriter, *http.Request) error

// ServeBareBHTTP implements the [Handler] interface.
func (f BareHandlerFunc) ServeBareBHTTP(w ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// ContextInitFunc describe functions that turn requests into a typed context for our "leaf" handlers.
type ContextInitFunc[C Context] func(*http.Request) (C, error)

// StdContextInit is the [ContextInitFunc] for handlers that use the plain request context.
func StdContextInit(r *http.Request) (context.Context, error) { return r.Context(), nil }

// ToBare converts a typed context handler 'h' into a bare buffered handler.
func ToBare[C Context](h Handler[C], contextInit ContextInitFunc[C]) BareHandler {
	return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		ctx, err := contextInit(r)
		if err != nil {
			return fmt.Errorf("init typed context from standard request context: %w", err)
		}

		return h.ServeBHTTP(ctx, w, r)
	})
}

// ToStd converts a bare handler into a standard library http.Handler. The implementation
// creates a buffered response writer and flushes it implicitly after serving the request.
// The logger is made available to filters through the request context.
func ToStd(h BareHandler, bufLimit int, logs Logger) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		bresp := NewResponseWriter(resp, bufLimit)
		defer bresp.Free()

		req = req.WithContext(WithLogger(req.Context(), logs))
		if err := h.ServeBareBHTTP(bresp, req); err != nil {
			bresp.Reset() // reset the buffer

			if bErr, ok := asError(err); ok && bErr.Code() != CodeUnknown {
				http.Error(bresp, bErr.Error(), int(bErr.Code()))
			} else {
				logs.LogUnhandledServeError(err)

				// if all fails we don't want the client to end up with a white screen so
				// we render a 500 error with the standard text.
				http.Error(bresp,
					http.StatusText(http.StatusInternalServerError),
					http.StatusInternalServerError)
			}
		}

		if err := bresp.FlushBuffer(); err != nil {
			logs.LogImplicitFlushError(err)
		}
	})
}

type ctxKey int

const ctxKeyLogger ctxKey = iota

// WithLogger returns a context that carries logs for the filters of a request.
func WithLogger(ctx context.Context, logs Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logs)
}

// LoggerFrom returns the logger carried by ctx, or a [NopLogger].
func LoggerFrom(ctx context.Context) Logger {
	if logs, ok := ctx.Value(ctxKeyLogger).(Logger); ok {
		return logs
	}

	return NopLogger{}
}

// FilterHandler serves a request by running a filter against it and, when the filter extracts a complete
// tuple, calling a reply function with it. A rejected request never reaches the reply function.
type FilterHandler struct {
	filter Filter
	reply  func(ctx context.Context, w ResponseWriter, t Tuple) error
}

// Extract builds a route from r, applies the filter and drives its outcome to completion on ctx. The route is
// closed afterwards, releasing a body that no filter took.
func (h FilterHandler) Extract(ctx context.Context, r *http.Request) (Tuple, error) {
	logs := LoggerFrom(ctx)
	rt := RouteFromRequest(r, logs)
	defer rt.Close()

	tup, err := h.filter.Apply(rt).Await(ctx)
	if err == nil {
		return tup, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		err = NewError(CodeRequestTimeout, err)
	}

	logs.LogRejection(err)

	return nil, err
}

// ServeBHTTP implements [Handler].
func (h FilterHandler) ServeBHTTP(ctx context.Context, w ResponseWriter, r *http.Request) error {
	tup, err := h.Extract(ctx, r)
	if err != nil {
		return err
	}

	return h.reply(ctx, w, tup)
}

// Filter returns the filter the handler runs.
func (h FilterHandler) Filter() Filter { return h.filter }

// Handle0 serves requests with a filter that extracts nothing.
func Handle0(f Filter, fn func(ctx context.Context, w ResponseWriter) error) FilterHandler {
	mustSignature(f)

	return FilterHandler{filter: f, reply: func(ctx context.Context, w ResponseWriter, _ Tuple) error {
		return fn(ctx, w)
	}}
}

// Handle1 serves requests with a filter that extracts (A).
func Handle1[A any](f Filter, fn func(ctx context.Context, w ResponseWriter, a A) error) FilterHandler {
	mustSignature(f, reflect.TypeFor[A]())

	return FilterHandler{filter: f, reply: func(ctx context.Context, w ResponseWriter, t Tuple) error {
		return fn(ctx, w, Get[A](t, 0))
	}}
}

// Handle2 serves requests with a filter that extracts (A, B).
func Handle2[A, B any](f Filter, fn func(ctx context.Context, w ResponseWriter, a A, b B) error) FilterHandler {
	mustSignature(f, reflect.TypeFor[A](), reflect.TypeFor[B]())

	return FilterHandler{filter: f, reply: func(ctx context.Context, w ResponseWriter, t Tuple) error {
		return fn(ctx, w, Get[A](t, 0), Get[B](t, 1))
	}}
}

// Handle3 serves requests with a filter that extracts (A, B, C).
func Handle3[A, B, C any](
	f Filter, fn func(ctx context.Context, w ResponseWriter, a A, b B, c C) error,
) FilterHandler {
	mustSignature(f, reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]())

	return FilterHandler{filter: f, reply: func(ctx context.Context, w ResponseWriter, t Tuple) error {
		return fn(ctx, w, Get[A](t, 0), Get[B](t, 1), Get[C](t, 2))
	}}
}

var _ Handler[context.Context] = FilterHandler{}
