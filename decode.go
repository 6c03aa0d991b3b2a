package bfilter

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// DecodeFunc parses an accumulated body into T. On error the returned value is ignored.
type DecodeFunc[T any] func([]byte) (T, error)

// DecodeJSON decodes a JSON document. Trailing data after the document is an error.
func DecodeJSON[T any](buf []byte) (T, error) {
	var v T
	if err := json.Unmarshal(buf, &v); err != nil {
		var zero T
		return zero, errors.Wrap(err, "unmarshal json")
	}

	return v, nil
}

// DecodeYAML decodes a YAML document.
func DecodeYAML[T any](buf []byte) (T, error) {
	var v T
	if err := yaml.Unmarshal(buf, &v); err != nil {
		var zero T
		return zero, errors.Wrap(err, "unmarshal yaml")
	}

	return v, nil
}

// Decoder is a [Deferred] that decodes the buffer of an [Accumulator] into T. It has no buffer of its own: polls
// are delegated to the accumulator until it is ready, then the buffer is decoded exactly once. A failed decode is
// permanent and the accumulator is not polled again.
type Decoder[T any] struct {
	acc    *Accumulator
	decode DecodeFunc[T]
	logs   Logger
	done   *Poll[T]
}

// NewDecoder inits a decoder over acc.
func NewDecoder[T any](acc *Accumulator, fn DecodeFunc[T], logs Logger) *Decoder[T] {
	if logs == nil {
		logs = NopLogger{}
	}

	return &Decoder[T]{acc: acc, decode: fn, logs: logs}
}

// Poll implements [Deferred].
func (d *Decoder[T]) Poll(w *Waker) Poll[T] {
	if d.done != nil {
		return *d.done
	}

	p := d.acc.Poll(w)

	var res Poll[T]
	switch p.Status() {
	case Pending:
		return PendingPoll[T]()
	case Failed:
		res = FailedPoll[T](p.Err())
	default:
		v, err := d.decode(p.Value())
		if err != nil {
			d.logs.LogDecodeFailure(err)
			res = FailedPoll[T](Reject(KindDecodeFailure, errors.Wrap(err, "decode body")))
		} else {
			res = ReadyPoll(v)
		}
	}

	d.done = &res

	return res
}

// Discard releases the accumulator if the decoder did not finish.
func (d *Decoder[T]) Discard() {
	if d.done == nil {
		d.acc.Discard()
	}
}

var (
	_ Deferred[any] = &Decoder[any]{}
	_ Discarder     = &Decoder[any]{}
)
