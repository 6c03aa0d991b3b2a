// Package bserve provides a batteries-included server for handlers built with bfilter.
//
// # Overview
//
// bserve handles the boilerplate of running filter-based handlers as a service: environment parsing, structured
// logging, OpenTelemetry tracing, prometheus metrics, request limits and graceful shutdown. A complete application
// can be created in a single call:
//
//	bserve.NewApp[Env](func(m *bserve.Mux, h *Handlers) {
//	    m.Mount("POST /employees", h.Promote())
//	},
//	    bserve.WithFx(fx.Provide(NewHandlers)),
//	).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    bserve.BaseEnvironment
//	    WebhookURL string `env:"WEBHOOK_URL"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable                  | Required | Default  | Description                                         |
//	|---------------------------|----------|----------|-----------------------------------------------------|
//	| BF_PORT                   | Yes      | -        | Port the HTTP server listens on                     |
//	| BF_SERVICE_NAME           | Yes      | -        | Service name for logging, tracing and metrics       |
//	| BF_READINESS_CHECK_PATH   | No       | /healthz | Health check endpoint path                          |
//	| BF_LOG_LEVEL              | No       | info     | Log level (debug, info, warn, error)                |
//	| BF_OTEL_EXPORTER          | No       | stdout   | Trace exporter: "stdout" or "none"                  |
//	| BF_MAX_BODY_BYTES         | No       | 1048576  | Largest request body that is read                   |
//	| BF_RESPONSE_BUFFER_LIMIT  | No       | -1       | Bytes buffered before a response is flushed, -1 off |
//	| BF_REQUEST_TIMEOUT        | No       | 30s      | Deadline of a single request                        |
//	| BF_RATE_LIMIT             | No       | 0        | Requests per second per client, 0 disables limiting |
//	| BF_RATE_BURST             | No       | 10       | Burst size of the rate limit                        |
//	| BF_H2C                    | No       | false    | Serve HTTP/2 over cleartext                         |
//	| BF_METRICS_PATH           | No       | /metrics | Path of the prometheus endpoint                     |
//	| BF_LOG_REJECTION_MIN_CODE | No       | 500      | Lowest rejection code that is logged as a warning   |
//
// When BF_ENV_FILE is set the named dotenv file is loaded first. Variables that are already set take precedence.
//
// # Runtime
//
// [Runtime] provides access to app-scoped dependencies and should be injected into handler constructors via fx:
//
//   - [Runtime.Env] returns the typed environment configuration
//   - [Runtime.Metrics] returns the prometheus collectors
//   - [Runtime.NewRequest] returns a traced outbound request builder
//
// # Context
//
// Handlers receive a standard context.Context. Use the package-level functions to access request-scoped values:
//
//   - [Log] - request and trace correlated zap logger
//   - [Span] - current OpenTelemetry span for custom instrumentation
//   - [RequestID] - the id echoed in the X-Request-Id header
//
// # Rejections
//
// Rejections of the filter pipeline are logged by kind, counted in the bfilter_rejections_total metric and
// recorded as an event on the request span. A request whose body exceeds BF_MAX_BODY_BYTES is rejected with 413, a
// body that does not arrive before BF_REQUEST_TIMEOUT with 408.
package bserve
