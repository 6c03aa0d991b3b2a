package bfilter

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// DefaultChunkSize is the size of the chunks a [ReaderStream] reads from the transport.
const DefaultChunkSize = 32 * 1024

// BodyStream is a chunked request body that is consumed by polling. PollChunk reports Ready with the next chunk,
// Pending when no chunk is currently available, and Failed at the end. The end of a complete stream is reported as
// [io.EOF], any other error means the stream terminated abnormally.
type BodyStream interface {
	PollChunk(w *Waker) Poll[[]byte]
	Close() error
}

type readResult struct {
	chunk []byte
	err   error
}

// ReaderStream adapts a blocking reader, usually a transport request body, into a [BodyStream]. Reading happens on
// a single goroutine that is started on the first poll and stops when the reader ends or the stream is closed.
type ReaderStream struct {
	rc        io.ReadCloser
	chunkSize int
	results   chan readResult
	done      chan struct{}
	waker     atomic.Pointer[Waker]
	startOnce sync.Once
	closeOnce sync.Once
	closeErr  error
	final     error
}

// NewReaderStream inits a stream over rc. A chunkSize <= 0 selects [DefaultChunkSize].
func NewReaderStream(rc io.ReadCloser, chunkSize int) *ReaderStream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &ReaderStream{
		rc:        rc,
		chunkSize: chunkSize,
		results:   make(chan readResult, 1),
		done:      make(chan struct{}),
	}
}

// PollChunk implements [BodyStream].
func (s *ReaderStream) PollChunk(w *Waker) Poll[[]byte] {
	if s.final != nil {
		return FailedPoll[[]byte](s.final)
	}

	s.waker.Store(w)
	s.startOnce.Do(func() { go s.pump() })

	select {
	case res := <-s.results:
		if res.err != nil {
			s.final = res.err
			return FailedPoll[[]byte](res.err)
		}
		return ReadyPoll(res.chunk)
	default:
		return PendingPoll[[]byte]()
	}
}

// Close stops the reader and closes the underlying body. It is safe to call more than once.
func (s *ReaderStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.rc.Close(); err != nil {
			s.closeErr = errors.Wrap(err, "close body")
		}
	})

	return s.closeErr
}

func (s *ReaderStream) pump() {
	for {
		buf := make([]byte, s.chunkSize)
		n, err := s.rc.Read(buf)
		if n > 0 && !s.send(readResult{chunk: buf[:n]}) {
			return
		}

		if err != nil {
			s.send(readResult{err: err})
			return
		}
	}
}

func (s *ReaderStream) send(res readResult) bool {
	select {
	case s.results <- res:
	case <-s.done:
		return false
	}

	if w := s.waker.Load(); w != nil {
		w.Wake()
	}

	return true
}

var _ BodyStream = &ReaderStream{}

// limitStream fails once more than limit bytes were seen.
type limitStream struct {
	inner BodyStream
	limit int64
	seen  int64
}

// LimitStream wraps s so that it fails with a [KindBodyTooLarge] rejection once more than limit bytes arrive.
func LimitStream(s BodyStream, limit int64) BodyStream {
	return &limitStream{inner: s, limit: limit}
}

func (s *limitStream) PollChunk(w *Waker) Poll[[]byte] {
	p := s.inner.PollChunk(w)
	if p.Status() != Ready {
		return p
	}

	s.seen += int64(len(p.Value()))
	if s.seen > s.limit {
		return FailedPoll[[]byte](Reject(KindBodyTooLarge,
			errors.Newf("body exceeds limit of %d bytes", s.limit)))
	}

	return p
}

func (s *limitStream) Close() error { return s.inner.Close() }
