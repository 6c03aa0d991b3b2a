package bserve

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// runtimeProviderParams holds dependencies for Runtime.
type runtimeProviderParams[E Environment] struct {
	fx.In

	Env       E
	Logger    *zap.Logger
	Metrics   *Metrics
	Transport http.RoundTripper
}

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthHandler sets a custom health check handler.
// If not set, a default handler returning 200 OK is used.
func WithHealthHandler(h func(http.ResponseWriter, *http.Request)) Option {
	return func(c *AppConfig) {
		c.HealthHandler = h
	}
}

// FxOptions returns the options that make up the DI graph of [NewApp]. The routing function is invoked after the
// server is constructed, so all middleware is in place before routes are registered.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 14+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewMetrics),
		fx.Provide(NewMux),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewHTTPTransport),
		fx.Provide(NewHTTPClient),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewServer),
		fx.Provide(func(p runtimeProviderParams[E]) *Runtime[E] {
			return NewRuntime(p.Env, RuntimeParams{Logger: p.Logger, Metrics: p.Metrics, Transport: p.Transport})
		}),
		fx.Invoke(startServerHook),
		fx.Invoke(routing),
	}...)

	return append(baseOpts, cfg.FxOptions...)
}

// NewApp creates a batteries-included app with dependency injection.
//
// The routing function can request any types that are provided via fx options.
// At minimum, it should accept *Mux for routing.
//
// Example:
//
//	bserve.NewApp[Env](func(m *bserve.Mux, h *Handlers) {
//	    m.Mount("POST /employees", h.Promote())
//	},
//	    bserve.WithFx(fx.Provide(NewHandlers)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{
		app: fx.New(FxOptions[E](routing, opts...)...),
	}
}

// Err returns an error when the dependency graph could not be built.
func (a *App) Err() error {
	return a.app.Err()
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application with the given context.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
