package bfilter

import (
	"fmt"
	"reflect"
)

// Sig builds a filter signature from types.
func Sig(types ...reflect.Type) []reflect.Type { return types }

// Unit is a filter that matches every route and extracts nothing.
func Unit() Filter {
	return NewFilter(nil, func(*Route) Outcome { return Extracted() })
}

// Value is a filter that matches every route and extracts v.
func Value[T any](v T) Filter {
	return NewFilter(Sig(reflect.TypeFor[T]()), func(*Route) Outcome { return Extracted(v) })
}

// Get returns the i-th value of t as T.
func Get[T any](t Tuple, i int) T {
	v, _ := t[i].(T)
	return v
}

// Map1 maps a filter extracting (A) into one extracting (R).
func Map1[A, R any](f Filter, fn func(A) R) Filter {
	mustSignature(f, reflect.TypeFor[A]())

	return f.Map(Sig(reflect.TypeFor[R]()), func(t Tuple) Tuple {
		return Tuple{fn(Get[A](t, 0))}
	})
}

// Map2 maps a filter extracting (A, B) into one extracting (R).
func Map2[A, B, R any](f Filter, fn func(A, B) R) Filter {
	mustSignature(f, reflect.TypeFor[A](), reflect.TypeFor[B]())

	return f.Map(Sig(reflect.TypeFor[R]()), func(t Tuple) Tuple {
		return Tuple{fn(Get[A](t, 0), Get[B](t, 1))}
	})
}

// Map3 maps a filter extracting (A, B, C) into one extracting (R).
func Map3[A, B, C, R any](f Filter, fn func(A, B, C) R) Filter {
	mustSignature(f, reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]())

	return f.Map(Sig(reflect.TypeFor[R]()), func(t Tuple) Tuple {
		return Tuple{fn(Get[A](t, 0), Get[B](t, 1), Get[C](t, 2))}
	})
}

// mustSignature panics when the values f extracts cannot be used as want. Mismatches are programming errors that
// surface when routes are set up, not when requests are served.
func mustSignature(f Filter, want ...reflect.Type) {
	if err := checkSignature(f, want...); err != nil {
		panic("bfilter: " + err.Error())
	}
}

func checkSignature(f Filter, want ...reflect.Type) error {
	wantf := Filter{sig: want}
	if len(f.sig) != len(want) {
		return fmt.Errorf("filter extracts %s, want %s", f, wantf) //nolint:goerr113
	}

	for i, t := range f.sig {
		if !t.AssignableTo(want[i]) {
			return fmt.Errorf("filter extracts %s, want %s", f, wantf) //nolint:goerr113
		}
	}

	return nil
}
