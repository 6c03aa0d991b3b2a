// Package bservetest provides test helpers for bserve applications.
//
// It constructs the identical DI graph as [bserve.NewApp] but uses
// [fxtest.App] which fails the test immediately on DI errors.
//
// Example:
//
//	bservetest.SetBaseEnv(t, 18081)
//	app := bservetest.New[TestEnv](t, routing)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package bservetest

import (
	"net/http"
	"testing"
	"time"

	"github.com/advdv/bfilter/bserve"
	"go.uber.org/fx/fxtest"
)

// App embeds *fxtest.App for testing bserve applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [bserve.NewApp].
func New[E bserve.Environment](t testing.TB, routing any, opts ...bserve.Option) *App {
	return &App{App: fxtest.New(t, bserve.FxOptions[E](routing, opts...)...)}
}

// WaitReady polls url until the server accepts connections. The server starts listening asynchronously, so tests
// call this after RequireStart.
func WaitReady(t testing.TB, url string) {
	t.Helper()

	for range 100 {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("bservetest: server at %s did not become ready", url)
}
