package bserve

import (
	"net/http"

	"github.com/advdv/bfilter"
	"go.uber.org/zap"
)

// Mux is an alias for bfilter.ServeMux.
type Mux = bfilter.ServeMux

// NewMux creates a new Mux that reports filter diagnostics to zap and counts rejections. BF_RESPONSE_BUFFER_LIMIT
// bounds the buffered response.
func NewMux(env Environment, logger *zap.Logger, metrics *Metrics) *Mux {
	return bfilter.NewServeMuxWith(
		env.responseBufferLimit(),
		newZapFilterLogger(logger, metrics, env),
		http.NewServeMux(),
	)
}
