package example

import (
	"net/http"
	"time"

	"github.com/advdv/bfilter"
	"github.com/advdv/bfilter/bserve"
	"go.uber.org/zap"
)

// AccessLog provides an example for middleware in an outside package: it logs every request with the outcome of
// its filters.
func AccessLog() bfilter.Middleware {
	return func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			start := time.Now()
			err := next.ServeBareBHTTP(w, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				fields = append(fields,
					zap.Stringer("kind", bfilter.KindOf(err)),
					zap.Int("code", int(bfilter.CodeOf(err))))
			}

			bserve.Log(r.Context()).Info("request served", fields...)

			return err
		})
	}
}
