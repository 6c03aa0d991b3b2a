package bservetest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [bserve.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets the [bserve.BaseEnvironment] env vars to sensible test defaults.
// Port is required because each test must use a unique port to avoid collisions.
//
// Defaults:
//   - BF_SERVICE_NAME: "test"
//   - BF_READINESS_CHECK_PATH: "/health"
//   - BF_OTEL_EXPORTER: "none"
//   - BF_REQUEST_TIMEOUT: "5s"
//
// Use the returned [Env] to override individual values:
//
//	bservetest.SetBaseEnv(t, 18085).MaxBodyBytes(16).RateLimit(1, 1)
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("BF_PORT", strconv.Itoa(port))
	t.Setenv("BF_SERVICE_NAME", "test")
	t.Setenv("BF_READINESS_CHECK_PATH", "/health")
	t.Setenv("BF_OTEL_EXPORTER", "none")
	t.Setenv("BF_REQUEST_TIMEOUT", "5s")
	return &Env{t: t}
}

// ServiceName overrides BF_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BF_SERVICE_NAME", name)
	return e
}

// ReadinessCheckPath overrides BF_READINESS_CHECK_PATH.
func (e *Env) ReadinessCheckPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BF_READINESS_CHECK_PATH", path)
	return e
}

// RequestTimeout overrides BF_REQUEST_TIMEOUT.
func (e *Env) RequestTimeout(d string) *Env {
	e.t.Helper()
	e.t.Setenv("BF_REQUEST_TIMEOUT", d)
	return e
}

// MaxBodyBytes overrides BF_MAX_BODY_BYTES.
func (e *Env) MaxBodyBytes(n int64) *Env {
	e.t.Helper()
	e.t.Setenv("BF_MAX_BODY_BYTES", strconv.FormatInt(n, 10))
	return e
}

// RateLimit overrides BF_RATE_LIMIT and BF_RATE_BURST.
func (e *Env) RateLimit(rps float64, burst int) *Env {
	e.t.Helper()
	e.t.Setenv("BF_RATE_LIMIT", strconv.FormatFloat(rps, 'f', -1, 64))
	e.t.Setenv("BF_RATE_BURST", strconv.Itoa(burst))
	return e
}

// MetricsPath overrides BF_METRICS_PATH.
func (e *Env) MetricsPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BF_METRICS_PATH", path)
	return e
}

// H2C overrides BF_H2C.
func (e *Env) H2C(enabled bool) *Env {
	e.t.Helper()
	e.t.Setenv("BF_H2C", strconv.FormatBool(enabled))
	return e
}
