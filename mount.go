package bfilter

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// Mount mounts a handler on a sub-path pattern. The handler receives requests with the mount prefix stripped from
// the path, so path filters of a [FilterHandler] match against the remainder:
//
//	mux.Mount("POST /employees", bfilter.Handle2(bfilter.Param[uint32]().Chain(bfilter.JSON[Employee]()), promote))
func (m *ServeMux) Mount(pattern string, handler Handler[context.Context]) {
	m.MountBare(pattern, ToBare(handler, StdContextInit))
}

// MountBare mounts a BareHandler on a sub-path pattern. Middleware registered via Use() sees the original path; the
// strip happens after middleware. The prefix is removed from the escaped path, so it must not contain escapes itself.
func (m *ServeMux) MountBare(pattern string, handler BareHandler) {
	method, path := splitMethodPattern(pattern)
	path = strings.TrimSuffix(path, "/")

	stripped := stripPrefixBare(path, handler)
	stdHandler := ToStd(wrapBare(stripped, m.middlewares.buffered...), m.bufLimit, m.logs)

	m.handle(method+path, stdHandler)
	m.handle(method+path+"/", stdHandler)
}

func splitMethodPattern(pattern string) (method, path string) {
	if idx := strings.Index(pattern, " "); idx >= 0 && !strings.Contains(pattern[:idx], "/") {
		return pattern[:idx+1], strings.TrimSpace(pattern[idx+1:])
	}

	return "", pattern
}

func stripPrefixBare(prefix string, handler BareHandler) BareHandler {
	return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		rp := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
		if rp == "" {
			rp = "/"
		}

		p, err := url.PathUnescape(rp)
		if err != nil {
			return Reject(KindNotFound, errors.Wrapf(err, "unescape path remainder %q", rp))
		}

		r2 := new(http.Request)
		*r2 = *r
		r2.URL = new(url.URL)
		*r2.URL = *r.URL
		r2.URL.Path = p
		r2.URL.RawPath = rp

		return handler.ServeBareBHTTP(w, r2)
	})
}

// MountFunc mounts a handler function on a sub-path pattern.
func (m *ServeMux) MountFunc(pattern string, handler HandlerFunc[context.Context]) {
	m.Mount(pattern, handler)
}

// MountStd mounts a standard library [http.Handler] on a sub-path pattern. The handler owns its responses, including
// error responses.
func (m *ServeMux) MountStd(pattern string, handler http.Handler) {
	m.MountBare(pattern, BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}))
}
