package bfilter

import (
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
)

// errDiscarded is the cause reported when an accumulator is polled after it was discarded.
var errDiscarded = errors.New("body accumulation discarded")

// Accumulator is a [Deferred] that consumes a [BodyStream] and joins its chunks, in arrival order, into one
// buffer. It owns the stream while accumulating and closes it once it reached a result.
type Accumulator struct {
	stream BodyStream
	buf    []byte
	done   *Poll[[]byte]
	logs   Logger
}

// NewAccumulator inits an accumulator that takes ownership of s.
func NewAccumulator(s BodyStream, logs Logger) *Accumulator {
	if logs == nil {
		logs = NopLogger{}
	}

	return &Accumulator{stream: s, logs: logs}
}

// Poll drains every chunk that is currently available. It reports Pending when the stream has nothing more for
// now, Ready with the joined buffer at the end of the stream and Failed when the stream broke off.
func (a *Accumulator) Poll(w *Waker) Poll[[]byte] {
	if a.done != nil {
		return *a.done
	}

	for {
		p := a.stream.PollChunk(w)
		switch p.Status() {
		case Pending:
			return PendingPoll[[]byte]()
		case Ready:
			a.buf = append(a.buf, p.Value()...)
		default:
			if errors.Is(p.Err(), io.EOF) {
				if a.buf == nil {
					a.buf = []byte{}
				}
				return a.finish(ReadyPoll(a.buf))
			}

			return a.finish(FailedPoll[[]byte](a.streamError(p.Err())))
		}
	}
}

// Discard releases the stream and the partial buffer of an accumulator that did not finish. Polling it afterwards
// reports a stream failure.
func (a *Accumulator) Discard() {
	if a.done != nil {
		return
	}

	a.finish(FailedPoll[[]byte](Reject(KindStreamFailure, errDiscarded)))
}

func (a *Accumulator) streamError(err error) error {
	if IsRejection(err) {
		return err
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return Reject(KindBodyTooLarge, errors.Wrap(err, "read body"))
	}

	a.logs.LogStreamFailure(err)

	return Reject(KindStreamFailure, errors.Wrap(err, "read body"))
}

func (a *Accumulator) finish(res Poll[[]byte]) Poll[[]byte] {
	if err := a.stream.Close(); err != nil {
		a.logs.LogStreamFailure(err)
	}

	if res.Status() == Failed {
		a.buf = nil
	}

	a.stream = nil
	a.done = &res

	return res
}

var (
	_ Deferred[[]byte] = &Accumulator{}
	_ Discarder        = &Accumulator{}
)
