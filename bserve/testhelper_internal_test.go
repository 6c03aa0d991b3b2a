package bserve

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type testEnv struct {
	level   zapcore.Level
	otelExp string
	minCode int
}

func (e testEnv) port() int                     { return 8080 }
func (e testEnv) serviceName() string           { return "test" }
func (e testEnv) readinessCheckPath() string    { return "/health" }
func (e testEnv) logLevel() zapcore.Level       { return e.level }
func (e testEnv) maxBodyBytes() int64           { return 1 << 20 }
func (e testEnv) responseBufferLimit() int      { return -1 }
func (e testEnv) requestTimeout() time.Duration { return 30 * time.Second }
func (e testEnv) rateLimit() float64            { return 0 }
func (e testEnv) rateBurst() int                { return 10 }
func (e testEnv) h2c() bool                     { return false }
func (e testEnv) metricsPath() string           { return "/metrics" }
func (e testEnv) otelExporter() string {
	if e.otelExp == "" {
		return "stdout"
	}
	return e.otelExp
}
func (e testEnv) logRejectionMinCode() int {
	if e.minCode == 0 {
		return 500
	}
	return e.minCode
}
