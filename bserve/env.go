package bserve

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	port() int
	serviceName() string
	readinessCheckPath() string
	logLevel() zapcore.Level
	otelExporter() string
	maxBodyBytes() int64
	responseBufferLimit() int
	requestTimeout() time.Duration
	rateLimit() float64
	rateBurst() int
	h2c() bool
	metricsPath() string
	logRejectionMinCode() int
}

// BaseEnvironment contains the environment variables every server reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	Port               int           `env:"BF_PORT,required"`
	ServiceName        string        `env:"BF_SERVICE_NAME,required"`
	ReadinessCheckPath string        `env:"BF_READINESS_CHECK_PATH" envDefault:"/healthz"`
	LogLevel           zapcore.Level `env:"BF_LOG_LEVEL" envDefault:"info"`
	OtelExporter       string        `env:"BF_OTEL_EXPORTER" envDefault:"stdout"`
	// MaxBodyBytes bounds every request body. Reading past it rejects the request as too large.
	MaxBodyBytes        int64         `env:"BF_MAX_BODY_BYTES" envDefault:"1048576"`
	ResponseBufferLimit int           `env:"BF_RESPONSE_BUFFER_LIMIT" envDefault:"-1"`
	RequestTimeout      time.Duration `env:"BF_REQUEST_TIMEOUT" envDefault:"30s"`
	// RateLimit is the number of requests per second allowed per client address, zero disables limiting.
	RateLimit float64 `env:"BF_RATE_LIMIT" envDefault:"0"`
	RateBurst int     `env:"BF_RATE_BURST" envDefault:"10"`
	H2C       bool    `env:"BF_H2C" envDefault:"false"`
	// MetricsPath serves the prometheus metrics.
	MetricsPath string `env:"BF_METRICS_PATH" envDefault:"/metrics"`
	// LogRejectionMinCode is the lowest status code of a rejection that is logged as a warning. Others are
	// logged at debug level.
	LogRejectionMinCode int `env:"BF_LOG_REJECTION_MIN_CODE" envDefault:"500"`
}

func (e BaseEnvironment) port() int { return e.Port }
func (e BaseEnvironment) serviceName() string { return e.ServiceName }
func (e BaseEnvironment) readinessCheckPath() string { return e.ReadinessCheckPath }
func (e BaseEnvironment) logLevel() zapcore.Level { return e.LogLevel }
func (e BaseEnvironment) otelExporter() string { return e.OtelExporter }
func (e BaseEnvironment) maxBodyBytes() int64 { return e.MaxBodyBytes }
func (e BaseEnvironment) responseBufferLimit() int { return e.ResponseBufferLimit }
func (e BaseEnvironment) requestTimeout() time.Duration { return e.RequestTimeout }
func (e BaseEnvironment) rateLimit() float64 { return e.RateLimit }
func (e BaseEnvironment) rateBurst() int { return e.RateBurst }
func (e BaseEnvironment) h2c() bool { return e.H2C }
func (e BaseEnvironment) metricsPath() string { return e.MetricsPath }
func (e BaseEnvironment) logRejectionMinCode() int { return e.LogRejectionMinCode }

var _ Environment = BaseEnvironment{}

// EnvFileVariable names the variable that points to an optional dotenv file. Values from the file never
// override variables that are already set.
const EnvFileVariable = "BF_ENV_FILE"

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if file := os.Getenv(EnvFileVariable); file != "" {
			if err := godotenv.Load(file); err != nil {
				return e, errors.Wrapf(err, "failed to load env file %q", file)
			}
		}

		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
