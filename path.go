package bfilter

import (
	"encoding"
	"net/url"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Exact returns a filter that consumes the next path segment if it equals segment.
func Exact(segment string) Filter {
	return NewFilter(nil, func(rt *Route) Outcome {
		seg, ok := rt.nextSegment()
		if !ok {
			return Rejected(Reject(KindNotFound, errors.Newf("missing path segment %q", segment)))
		}

		if unescaped, err := url.PathUnescape(seg); err != nil || unescaped != segment {
			return Rejected(Reject(KindNotFound, errors.Newf("path segment %q does not match %q", seg, segment)))
		}

		rt.consumeSegment()

		return Extracted()
	})
}

// Param returns a filter that consumes the next path segment and extracts it parsed as T. Supported are string,
// the integer, float and bool kinds, and types implementing [encoding.TextUnmarshaler] through a pointer. Any
// other T panics when the filter is built.
func Param[T any]() Filter {
	parse := mustParamParser[T]()

	return NewFilter(Sig(reflect.TypeFor[T]()), func(rt *Route) Outcome {
		seg, ok := rt.nextSegment()
		if !ok {
			return Rejected(Reject(KindNotFound, errors.New("missing path parameter")))
		}

		raw, err := url.PathUnescape(seg)
		if err != nil {
			return Rejected(Reject(KindInvalidParam, errors.Wrap(err, "unescape path parameter")))
		}

		v, err := parse(raw)
		if err != nil {
			return Rejected(Reject(KindInvalidParam, errors.Wrapf(err, "parse path parameter %q", raw)))
		}

		rt.consumeSegment()

		return Extracted(v)
	})
}

// End returns a filter that matches only when the whole path has been consumed.
func End() Filter {
	return NewFilter(nil, func(rt *Route) Outcome {
		if p := rt.Path(); p != "" && p != "/" {
			return Rejected(Reject(KindNotFound, errors.Newf("unmatched path remainder %q", p)))
		}

		return Extracted()
	})
}

// Method returns a filter that matches requests with the given method.
func Method(method string) Filter {
	return NewFilter(nil, func(rt *Route) Outcome {
		if rt.Method() != method {
			return Rejected(Reject(KindMethodNotAllowed,
				errors.Newf("method %s does not match %s", rt.Method(), method)))
		}

		return Extracted()
	})
}

// Header returns a filter that extracts the value of the named header. A missing header rejects with
// [KindMissingHeader].
func Header(name string) Filter {
	return NewFilter(Sig(reflect.TypeFor[string]()), func(rt *Route) Outcome {
		vals := rt.Header().Values(name)
		if len(vals) == 0 {
			return Rejected(Reject(KindMissingHeader, errors.Newf("missing header %q", name)))
		}

		return Extracted(vals[0])
	})
}

func mustParamParser[T any]() func(string) (T, error) {
	parse, err := paramParser[T]()
	if err != nil {
		panic("bfilter: " + err.Error())
	}

	return parse
}

// paramParser selects how a path segment is parsed into T.
func paramParser[T any]() (func(string) (T, error), error) {
	typ := reflect.TypeFor[T]()
	if reflect.PointerTo(typ).Implements(reflect.TypeFor[encoding.TextUnmarshaler]()) {
		return func(s string) (T, error) {
			var v T
			if err := any(&v).(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				var zero T
				return zero, errors.Wrap(err, "unmarshal text")
			}
			return v, nil
		}, nil
	}

	var conv func(string) (reflect.Value, error)
	switch typ.Kind() {
	case reflect.String:
		conv = func(s string) (reflect.Value, error) {
			return reflect.ValueOf(s), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		conv = func(s string) (reflect.Value, error) {
			n, err := strconv.ParseInt(s, 10, typ.Bits())
			return reflect.ValueOf(n), err
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		conv = func(s string) (reflect.Value, error) {
			n, err := strconv.ParseUint(s, 10, typ.Bits())
			return reflect.ValueOf(n), err
		}
	case reflect.Float32, reflect.Float64:
		conv = func(s string) (reflect.Value, error) {
			n, err := strconv.ParseFloat(s, typ.Bits())
			return reflect.ValueOf(n), err
		}
	case reflect.Bool:
		conv = func(s string) (reflect.Value, error) {
			b, err := strconv.ParseBool(s)
			return reflect.ValueOf(b), err
		}
	default:
		return nil, errors.Newf("unsupported path parameter type %s", typ)
	}

	return func(s string) (T, error) {
		rv, err := conv(s)
		if err != nil {
			var zero T
			return zero, err
		}

		return rv.Convert(typ).Interface().(T), nil
	}, nil
}
