package bfilter_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/advdv/bfilter"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

type closeRecorder struct {
	io.Reader
	closed chan struct{}
}

func (r *closeRecorder) Close() error {
	close(r.closed)
	return nil
}

func TestReaderStreamDeliversAllChunks(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		for _, c := range []string{"alpha ", "beta ", "gamma"} {
			_, _ = pw.Write([]byte(c))
			time.Sleep(time.Millisecond)
		}
		_ = pw.Close()
	}()

	acc := bfilter.NewAccumulator(bfilter.NewReaderStream(pr, 4), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	buf, err := bfilter.Await[[]byte](ctx, acc)
	require.NoError(t, err)
	require.Equal(t, "alpha beta gamma", string(buf))
}

func TestReaderStreamFailure(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte("part"))
		_ = pw.CloseWithError(errBrokenPipe)
	}()

	logs := bfilter.NewTestLogger(t)
	acc := bfilter.NewAccumulator(bfilter.NewReaderStream(pr, 0), logs)

	_, err := bfilter.Await[[]byte](context.Background(), acc)
	require.Equal(t, bfilter.KindStreamFailure, bfilter.KindOf(err))
	require.ErrorIs(t, err, errBrokenPipe)
	require.EqualValues(t, 1, logs.NumLogStreamFailure)
}

func TestReaderStreamCloseStopsReader(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	s := bfilter.NewReaderStream(pr, 0)
	require.Equal(t, bfilter.Pending, s.PollChunk(bfilter.NewWaker()).Status())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := pw.Write([]byte("late"))
	require.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestRouteFromRequestOwnsBody(t *testing.T) {
	body := &closeRecorder{Reader: strings.NewReader("unused"), closed: make(chan struct{})}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/employees/1", body)
	require.NoError(t, err)

	rt := bfilter.RouteFromRequest(req, nil)
	require.Equal(t, http.MethodPost, rt.Method())
	require.Equal(t, "/employees/1", rt.Path())

	require.NoError(t, rt.Close())
	select {
	case <-body.closed:
	case <-time.After(time.Second):
		t.Fatal("body was not closed")
	}
}
