package bfilter

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

var errBodyTaken = errors.New("request body already taken")

// takeBody moves the body out of rt into a fresh accumulator.
func takeBody(rt *Route) (*Accumulator, error) {
	body, ok := rt.TakeBody()
	if !ok {
		return nil, Reject(KindBodyUnavailable, errBodyTaken)
	}

	return NewAccumulator(body, rt.Logs()), nil
}

// Concat returns a filter that matches any route and extracts the body, joined into one []byte. The value is
// deferred until the whole body arrived. Only one body filter can succeed per request: when the body was already
// taken the filter rejects with [KindBodyUnavailable].
func Concat() Filter {
	return NewFilter(Sig(reflect.TypeFor[[]byte]()), func(rt *Route) Outcome {
		acc, err := takeBody(rt)
		if err != nil {
			return Rejected(err)
		}

		return Deferring(MapDeferred(Deferred[[]byte](acc), func(buf []byte) Tuple {
			return Tuple{buf}
		}))
	})
}

// Decode returns a filter that accumulates the body like [Concat] and then decodes it with fn into T. A body that
// fails to decode rejects with [KindDecodeFailure].
func Decode[T any](fn DecodeFunc[T]) Filter {
	return NewFilter(Sig(reflect.TypeFor[T]()), func(rt *Route) Outcome {
		acc, err := takeBody(rt)
		if err != nil {
			return Rejected(err)
		}

		return Deferring(MapDeferred(Deferred[T](NewDecoder(acc, fn, rt.Logs())), func(v T) Tuple {
			return Tuple{v}
		}))
	})
}

// JSON returns a filter that extracts the body decoded as JSON into T.
func JSON[T any]() Filter { return Decode[T](DecodeJSON[T]) }

// YAML returns a filter that extracts the body decoded as YAML into T.
func YAML[T any]() Filter { return Decode[T](DecodeYAML[T]) }

// JSONPath returns a filter that extracts a single value from a JSON body using gjson path syntax (e.g.
// "employee.name", "items.0"). An invalid document or a missing path rejects with [KindDecodeFailure].
func JSONPath(path string) Filter {
	return Decode[gjson.Result](func(buf []byte) (gjson.Result, error) {
		if !gjson.ValidBytes(buf) {
			return gjson.Result{}, errors.New("invalid json document")
		}

		res := gjson.GetBytes(buf, path)
		if !res.Exists() {
			return gjson.Result{}, errors.Newf("path %q not found", path)
		}

		return res, nil
	})
}

// ContentLengthLimit returns a filter that bounds the body to limit bytes. A declared Content-Length above the
// limit rejects right away, otherwise the body is wrapped so that accumulating more than limit bytes rejects with
// [KindBodyTooLarge]. It must be chained before the body filter it guards.
func ContentLengthLimit(limit int64) Filter {
	return NewFilter(nil, func(rt *Route) Outcome {
		if n := rt.ContentLength(); n > limit {
			return Rejected(Reject(KindBodyTooLarge,
				errors.Newf("content length %d exceeds limit of %d bytes", n, limit)))
		}

		if rt.body != nil {
			rt.body = LimitStream(rt.body, limit)
		}

		return Extracted()
	})
}
