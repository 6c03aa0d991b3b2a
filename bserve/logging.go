package bserve

import (
	"github.com/advdv/bfilter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// Uses JSON encoding with ISO8601 timestamps. BF_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// zapLogger reports the diagnostics of the filter pipeline to zap and counts rejections.
type zapLogger struct {
	*zap.Logger
	metrics *Metrics
	minCode bfilter.Code
}

func (l zapLogger) LogUnhandledServeError(err error) {
	l.Logger.Error("unhandled server error", zap.Error(err))
}

func (l zapLogger) LogImplicitFlushError(err error) {
	l.Logger.Error("error while flushing implicitly", zap.Error(err))
}

func (l zapLogger) LogStreamFailure(err error) {
	l.Logger.Warn("request body stream failed", zap.Error(err))
}

func (l zapLogger) LogDecodeFailure(err error) {
	l.Logger.Debug("request body did not decode", zap.Error(err))
}

func (l zapLogger) LogRejection(err error) {
	kind, code := bfilter.KindOf(err), bfilter.CodeOf(err)
	l.metrics.observeRejection(kind)

	lvl := zapcore.DebugLevel
	if code >= l.minCode {
		lvl = zapcore.WarnLevel
	}

	l.Logger.Log(lvl, "request rejected",
		zap.Stringer("kind", kind),
		zap.Int("code", int(code)),
		zap.Error(err))
}

func newZapFilterLogger(l *zap.Logger, m *Metrics, env Environment) bfilter.Logger {
	return zapLogger{
		Logger:  l.Named("bfilter").Named("bserve"),
		metrics: m,
		minCode: bfilter.Code(env.logRejectionMinCode()),
	}
}
