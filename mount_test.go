package bfilter_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bfilter"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// teamRate extracts a team name and a rate from the path left after the mount prefix.
func teamRate() bfilter.FilterHandler {
	return bfilter.Handle2(bfilter.Param[string]().Chain(bfilter.Param[int]()).Chain(bfilter.End()),
		func(_ context.Context, w bfilter.ResponseWriter, team string, rate int) error {
			fmt.Fprintf(w, "%s:%d", team, rate)
			return nil
		})
}

func TestMountFilterMatchesRemainder(t *testing.T) {
	for _, tt := range []struct {
		name     string
		method   string
		target   string
		wantCode int
		wantBody string
	}{
		{name: "match", method: http.MethodGet, target: "/teams/core/3", wantCode: 200, wantBody: "core:3"},
		{name: "trailing slash", method: http.MethodGet, target: "/teams/core/3/", wantCode: 200, wantBody: "core:3"},
		{name: "escaped slash", method: http.MethodGet, target: "/teams/a%2Fb/3", wantCode: 200, wantBody: "a/b:3"},
		{name: "escaped percent", method: http.MethodGet, target: "/teams/100%25/3", wantCode: 200, wantBody: "100%:3"},
		{
			name: "bare prefix", method: http.MethodGet, target: "/teams",
			wantCode: 404, wantBody: "Not Found: missing path parameter\n",
		},
		{
			name: "missing rate", method: http.MethodGet, target: "/teams/core",
			wantCode: 404, wantBody: "Not Found: missing path parameter\n",
		},
		{
			name: "remainder left", method: http.MethodGet, target: "/teams/core/3/extra",
			wantCode: 404, wantBody: "Not Found: unmatched path remainder \"/extra\"\n",
		},
		{name: "wrong method", method: http.MethodDelete, target: "/teams/core/3", wantCode: 405},
	} {
		t.Run(tt.name, func(t *testing.T) {
			logs := bfilter.NewTestLogger(t)
			mux := bfilter.NewServeMuxWith(-1, logs, http.NewServeMux())
			mux.Mount("GET /teams", teamRate())

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				require.Equal(t, tt.wantBody, rec.Body.String())
			}
			require.Zero(t, logs.NumLogUnhandledServeError)
		})
	}
}

func TestMountInvalidParamRendersCause(t *testing.T) {
	logs := bfilter.NewTestLogger(t)
	mux := bfilter.NewServeMuxWith(-1, logs, http.NewServeMux())
	mux.Mount("GET /teams", teamRate())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams/core/x", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `Bad Request: parse path parameter "x"`)
	require.Equal(t, int64(1), logs.NumLogRejection)
}

func TestMountMiddlewareSeesFullPath(t *testing.T) {
	var seen []string

	mux := bfilter.NewServeMux()
	mux.Use(func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			seen = append(seen, r.URL.EscapedPath())
			return next.ServeBareBHTTP(w, r)
		})
	})
	mux.Mount("GET /teams", teamRate())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams/a%2Fb/7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "a/b:7", rec.Body.String())
	require.Equal(t, []string{"/teams/a%2Fb/7"}, seen)
}

func TestMountMiddlewareTranslatesRejection(t *testing.T) {
	mux := bfilter.NewServeMux()
	mux.Use(func(next bfilter.BareHandler) bfilter.BareHandler {
		return bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
			err := next.ServeBareBHTTP(w, r)
			if bfilter.KindOf(err) != bfilter.KindNotFound {
				return err
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"kind":%q}`, bfilter.KindOf(err))

			return nil
		})
	})
	mux.Mount("GET /teams", teamRate())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams/core", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"kind":"not_found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams/core/x", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code, "other kinds keep the default rendering")
}

func TestMountBareKeepsPathsConsistent(t *testing.T) {
	mux := bfilter.NewServeMux()
	mux.MountBare("/files", bfilter.BareHandlerFunc(func(w bfilter.ResponseWriter, r *http.Request) error {
		fmt.Fprintf(w, "%s|%s", r.URL.Path, r.URL.EscapedPath())
		return nil
	}))

	for target, want := range map[string]string{
		"/files":           "/|/",
		"/files/":          "/|/",
		"/files/a/b":       "/a/b|/a/b",
		"/files/a%2Fb":     "/a/b|/a%2Fb",
		"/files/50%25.txt": "/50%.txt|/50%25.txt",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		require.Equal(t, http.StatusOK, rec.Code, target)
		require.Equal(t, want, rec.Body.String(), target)
	}
}

func TestMountFuncErrors(t *testing.T) {
	logs := bfilter.NewTestLogger(t)
	mux := bfilter.NewServeMuxWith(-1, logs, http.NewServeMux())
	mux.MountFunc("POST /rates", func(_ context.Context, w bfilter.ResponseWriter, r *http.Request) error {
		fmt.Fprint(w, "partial")

		switch r.URL.Path {
		case "/too-high":
			return bfilter.Reject(bfilter.KindInvalidParam, errors.New("rate too high"))
		case "/broken":
			return errors.New("store unavailable")
		}

		return nil
	})
	mux.Mount("POST /typed", bfilter.HandlerFunc[context.Context](
		func(_ context.Context, _ bfilter.ResponseWriter, _ *http.Request) error {
			return bfilter.NewError(bfilter.CodeTooManyRequests, errors.New("slow down"))
		}))

	for _, tt := range []struct {
		target   string
		wantCode int
		wantBody string
	}{
		{target: "/rates/ok", wantCode: 200, wantBody: "partial"},
		{target: "/rates/too-high", wantCode: 400, wantBody: "Bad Request: rate too high\n"},
		{target: "/rates/broken", wantCode: 500, wantBody: "Internal Server Error\n"},
		{target: "/typed/x", wantCode: 429, wantBody: "Too Many Requests: slow down\n"},
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.target, nil))

		require.Equal(t, tt.wantCode, rec.Code, tt.target)
		require.Equal(t, tt.wantBody, rec.Body.String(), tt.target)
	}

	require.Equal(t, int64(1), logs.NumLogUnhandledServeError)
}

func TestMountStdOwnsResponse(t *testing.T) {
	mux := bfilter.NewServeMux()
	mux.MountStd("/static", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.css" {
			http.Error(w, "no such asset", http.StatusGone)
			return
		}

		fmt.Fprintf(w, "asset:%s", r.URL.Path)
	}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "asset:/css/site.css", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/missing.css", nil))
	require.Equal(t, http.StatusGone, rec.Code)
	require.Equal(t, "no such asset\n", rec.Body.String())
}
