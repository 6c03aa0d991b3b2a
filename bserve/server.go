package bserve

import (
	"context"
	"fmt"
	"net/http"

	"github.com/advdv/bfilter"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	HealthHandler func(http.ResponseWriter, *http.Request)
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Mux        *Mux
	Logger     *zap.Logger
	Metrics    *Metrics
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewServer creates an HTTP server with all middleware and routing configured.
func NewServer(params ServerParams, cfg ServerConfig) *http.Server {
	d := &requestDep{
		logger: params.Logger,
	}

	params.Mux.Use(withRequestDep(d))
	params.Mux.Use(withRequestID())
	params.Mux.Use(withRejectionEvents())
	params.Mux.Use(withMetrics(params.Metrics))
	params.Mux.Use(WithRateLimit(params.Env.rateLimit(), params.Env.rateBurst()))
	params.Mux.Use(WithRequestTimeout(params.Env.requestTimeout()))
	params.Mux.Use(WithMaxBodyBytes(params.Env.maxBodyBytes()))

	// The handler can be customized via ServerConfig.HealthHandler; defaults to 200 OK. Tracing is disabled for
	// this path to avoid noisy traces from readiness checks.
	healthPath := params.Env.readinessCheckPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	params.Mux.HandleFunc(healthPath, func(_ context.Context, w bfilter.ResponseWriter, r *http.Request) error {
		healthHandler(w, r)
		return nil
	})

	excludePaths := []string{healthPath}
	if metricsPath := params.Env.metricsPath(); metricsPath != "" {
		params.Mux.HandleStd("GET "+metricsPath, params.Metrics.Handler())
		excludePaths = append(excludePaths, metricsPath)
	}

	// Add tracing with explicit provider injection (no globals).
	handler := withTracing(params.TracerProv, params.Propagator, params.Env.serviceName(), excludePaths...)(params.Mux)
	if params.Env.h2c() {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	// These serve as outer bounds; the per-request deadline takes precedence.
	tc := TimeoutConfig{RequestTimeout: params.Env.requestTimeout()}
	readHeaderTimeout, readTimeout, writeTimeout, idleTimeout := tc.ServerTimeouts()

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// startServerHook registers lifecycle hooks for the HTTP server.
func startServerHook(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
