// Package bfiltertest provides test helpers for filters and deferred values.
//
// [Stream] is a body stream whose chunks are pushed by the test, which allows controlling exactly when a chunk
// becomes available relative to the polls of the code under test:
//
//	s := bfiltertest.NewStream()
//	rt := bfilter.NewRoute(http.MethodPost, "/", nil, s, nil)
//	out := bfilter.Concat().Apply(rt)
//	s.Push([]byte("hello"))
//	s.End()
package bfiltertest

import (
	"io"
	"sync"

	"github.com/advdv/bfilter"
)

// Stream is a scripted [bfilter.BodyStream]. It is safe to push from another goroutine than the one polling.
type Stream struct {
	mu     sync.Mutex
	queue  [][]byte
	end    error
	waker  *bfilter.Waker
	polls  int
	closed bool
}

// NewStream inits a stream that has the given chunks queued.
func NewStream(chunks ...[]byte) *Stream {
	return &Stream{queue: append([][]byte{}, chunks...)}
}

// Chunks returns a stream that delivers the chunks and then ends.
func Chunks(chunks ...string) *Stream {
	s := NewStream()
	for _, c := range chunks {
		s.queue = append(s.queue, []byte(c))
	}
	s.end = io.EOF

	return s
}

// Push queues a chunk and wakes the poller.
func (s *Stream) Push(chunk []byte) {
	s.mu.Lock()
	s.queue = append(s.queue, chunk)
	w := s.waker
	s.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

// End ends the stream after the queued chunks.
func (s *Stream) End() { s.Fail(io.EOF) }

// Fail terminates the stream with err after the queued chunks.
func (s *Stream) Fail(err error) {
	s.mu.Lock()
	s.end = err
	w := s.waker
	s.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

// PollChunk implements [bfilter.BodyStream].
func (s *Stream) PollChunk(w *bfilter.Waker) bfilter.Poll[[]byte] {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.polls++
	s.waker = w

	if len(s.queue) > 0 {
		chunk := s.queue[0]
		s.queue = s.queue[1:]
		return bfilter.ReadyPoll(chunk)
	}

	if s.end != nil {
		return bfilter.FailedPoll[[]byte](s.end)
	}

	return bfilter.PendingPoll[[]byte]()
}

// Close implements [bfilter.BodyStream].
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.queue = nil

	return nil
}

// Polls returns how often the stream was polled.
func (s *Stream) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.polls
}

// Closed reports whether the stream was closed.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

var _ bfilter.BodyStream = &Stream{}
