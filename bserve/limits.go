package bserve

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/advdv/bfilter"
	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// WithMaxBodyBytes returns middleware that bounds the request body to n bytes. Reading past the bound fails the
// body stream, which the body filters report as [bfilter.KindBodyTooLarge].
func WithMaxBodyBytes(n int64) bfilter.Middleware {
	return func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			if n > 0 && r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}

			return next.ServeBareBHTTP(w, r)
		})
	}
}

// minLimiterIdle bounds how often the limiter pool is swept.
const minLimiterIdle = time.Minute

// limiterPool hands out one token bucket per client. A bucket that has not been used for long enough to refill
// completely is indistinguishable from a new one, so it is dropped on the next sweep.
type limiterPool struct {
	mu        sync.Mutex
	m         map[string]*clientLimiter
	rps       float64
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if burst <= 0 {
		burst = 1
	}

	return &limiterPool{m: make(map[string]*clientLimiter), rps: rps, burst: burst, now: time.Now}
}

// idle is the time a bucket needs to refill from empty.
func (p *limiterPool) idle() time.Duration {
	return max(time.Duration(float64(p.burst)/p.rps*float64(time.Second)), minLimiterIdle)
}

func (p *limiterPool) Allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) >= p.idle() {
		p.sweep(now)
	}

	cl, ok := p.m[key]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(rate.Limit(p.rps), p.burst)}
		p.m[key] = cl
	}
	cl.seen = now

	return cl.lim.AllowN(now, 1)
}

func (p *limiterPool) sweep(now time.Time) {
	idle := p.idle()
	for key, cl := range p.m {
		if now.Sub(cl.seen) >= idle {
			delete(p.m, key)
		}
	}
	p.lastSweep = now
}

// Len returns the number of clients tracked.
func (p *limiterPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// clientKey identifies the client of r by its remote host.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WithRateLimit returns middleware that allows rps requests per second per client, with bursts of up to burst
// requests. Requests over the limit are answered with 429. A rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) bfilter.Middleware {
	pool := newLimiterPool(rps, burst)

	return func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			if rps <= 0 {
				return next.ServeBareBHTTP(w, r)
			}

			if key := clientKey(r); !pool.Allow(key) {
				return bfilter.NewError(bfilter.CodeTooManyRequests, errors.Newf("rate limit exceeded for %s", key))
			}

			return next.ServeBareBHTTP(w, r)
		})
	}
}
