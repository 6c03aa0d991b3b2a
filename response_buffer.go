package bfilter

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
)

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// ResponseBuffer is a [ResponseWriter] that holds the status, headers and body in memory until it is flushed. A
// rejected request can therefore reset whatever a handler wrote and render an error response instead.
type ResponseBuffer struct {
	resp    http.ResponseWriter
	buf     *bytes.Buffer
	limit   int
	header  http.Header
	status  int
	flushed bool
	err     error
}

// NewResponseWriter inits a buffered response writer. When limit is not negative, writing more than limit bytes
// flushes the buffer implicitly, after which the response can no longer be reset.
func NewResponseWriter(resp http.ResponseWriter, limit int) *ResponseBuffer {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	return &ResponseBuffer{
		resp:   resp,
		buf:    buf,
		limit:  limit,
		header: http.Header{},
	}
}

// Header returns the headers that will be written on flush. Once flushed it returns the underlying headers.
func (w *ResponseBuffer) Header() http.Header {
	if w.flushed {
		return w.resp.Header()
	}

	return w.header
}

// WriteHeader records the status code. Only the first call has an effect.
func (w *ResponseBuffer) WriteHeader(code int) {
	if w.status != 0 {
		return
	}

	w.status = code
}

// Write buffers p.
func (w *ResponseBuffer) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if w.flushed {
		n, err := w.resp.Write(p)
		if err != nil {
			return n, errors.Wrap(err, "write through")
		}
		return n, nil
	}

	n, _ := w.buf.Write(p)
	if w.limit >= 0 && w.buf.Len() > w.limit {
		if err := w.FlushBuffer(); err != nil {
			return n, err
		}
	}

	return n, nil
}

// Reset discards the buffered status, headers and body. It has no effect on what was already flushed.
func (w *ResponseBuffer) Reset() {
	w.buf.Reset()
	if w.flushed {
		return
	}

	w.status = 0
	for k := range w.header {
		delete(w.header, k)
	}
}

// FlushBuffer writes the status and headers, if not done before, and the buffered body to the underlying writer. An
// error kept by an earlier Flush is returned instead.
func (w *ResponseBuffer) FlushBuffer() error {
	if err := w.err; err != nil {
		w.err = nil
		return err
	}

	if !w.flushed {
		dst := w.resp.Header()
		for k, v := range w.header {
			dst[k] = v
		}

		status := w.status
		if status == 0 {
			status = http.StatusOK
		}

		w.resp.WriteHeader(status)
		w.flushed = true
	}

	if w.buf.Len() == 0 {
		return nil
	}

	if _, err := w.buf.WriteTo(w.resp); err != nil {
		return errors.Wrap(err, "flush buffer")
	}

	return nil
}

// FlushError flushes the buffer and then the underlying writer. [http.ResponseController] prefers it over Flush.
func (w *ResponseBuffer) FlushError() error {
	if err := w.FlushBuffer(); err != nil {
		return err
	}

	if f, ok := w.resp.(http.Flusher); ok {
		f.Flush()
	}

	return nil
}

// Flush implements [http.Flusher]. The first error is kept and returned by the next FlushBuffer.
func (w *ResponseBuffer) Flush() {
	if err := w.FlushError(); err != nil && w.err == nil {
		w.err = err
	}
}

// Unwrap returns the underlying writer for [http.ResponseController].
func (w *ResponseBuffer) Unwrap() http.ResponseWriter { return w.resp }

// Free returns the buffer to the pool. The writer must not be used afterwards.
func (w *ResponseBuffer) Free() {
	if w.buf == nil {
		return
	}

	w.buf.Reset()
	bufPool.Put(w.buf)
	w.buf = nil
}

var _ ResponseWriter = &ResponseBuffer{}
