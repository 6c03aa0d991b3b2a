package bfilter

import (
	"context"
	"reflect"
	"strings"

	"github.com/samber/lo"
)

// Tuple is the ordered list of values a filter extracts. Chaining filters concatenates their tuples in declaration
// order.
type Tuple []any

// concatTuples returns a fresh tuple holding a followed by b.
func concatTuples(a, b Tuple) Tuple {
	out := make(Tuple, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// OutcomeKind tags an [Outcome].
type OutcomeKind int

const (
	// OutcomeImmediate carries a tuple that was extracted synchronously.
	OutcomeImmediate OutcomeKind = iota
	// OutcomeDeferred carries a deferred value that yields the tuple.
	OutcomeDeferred
	// OutcomeFailed carries the rejection that ends the chain.
	OutcomeFailed
)

// Outcome is the result of applying a filter to a route.
type Outcome struct {
	kind     OutcomeKind
	tuple    Tuple
	deferred Deferred[Tuple]
	err      error
}

// Extracted is an immediate outcome holding vals.
func Extracted(vals ...any) Outcome {
	if vals == nil {
		vals = Tuple{}
	}
	return Outcome{kind: OutcomeImmediate, tuple: vals}
}

// Deferring is an outcome whose tuple is produced by d.
func Deferring(d Deferred[Tuple]) Outcome {
	return Outcome{kind: OutcomeDeferred, deferred: d}
}

// Rejected is a failed outcome.
func Rejected(err error) Outcome {
	return Outcome{kind: OutcomeFailed, err: err}
}

// Kind reports which of the three outcome shapes this is.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// Tuple returns the extracted values of an immediate outcome.
func (o Outcome) Tuple() Tuple { return o.tuple }

// Deferred returns the pending computation of a deferred outcome.
func (o Outcome) Deferred() Deferred[Tuple] { return o.deferred }

// Err returns the rejection of a failed outcome.
func (o Outcome) Err() error { return o.err }

// Await drives the outcome to a tuple. Immediate and failed outcomes return right away.
func (o Outcome) Await(ctx context.Context) (Tuple, error) {
	switch o.kind {
	case OutcomeImmediate:
		return o.tuple, nil
	case OutcomeFailed:
		return nil, o.err
	default:
		return Await(ctx, o.deferred)
	}
}

// Filter extracts a tuple from a [Route], either immediately or through a deferred value. Filters are immutable
// values: the same filter may serve any number of requests concurrently, each with its own route.
type Filter struct {
	sig   []reflect.Type
	apply func(rt *Route) Outcome
}

// NewFilter inits a filter that extracts values of the types in sig. Apply must honor the signature.
func NewFilter(sig []reflect.Type, apply func(rt *Route) Outcome) Filter {
	return Filter{sig: sig, apply: apply}
}

// Apply runs the filter against rt. It may mutate rt, for example by consuming path segments or taking the body.
func (f Filter) Apply(rt *Route) Outcome {
	if f.apply == nil {
		return Extracted()
	}

	return f.apply(rt)
}

// Signature returns the types of the values the filter extracts, in order.
func (f Filter) Signature() []reflect.Type {
	return append([]reflect.Type{}, f.sig...)
}

// String describes the filter's signature.
func (f Filter) String() string {
	return "(" + strings.Join(lo.Map(f.sig, func(t reflect.Type, _ int) string {
		return t.String()
	}), ", ") + ")"
}

// Chain returns a filter that applies f and then next against the same route and extracts both tuples, f's
// values first. When f is rejected next is never applied. When f defers, next is only applied once f's deferred
// value is ready.
func (f Filter) Chain(next Filter) Filter {
	return Filter{
		sig: append(f.Signature(), next.sig...),
		apply: func(rt *Route) Outcome {
			left := f.Apply(rt)
			switch left.kind {
			case OutcomeFailed:
				return left
			case OutcomeImmediate:
				return prefixOutcome(left.tuple, next.Apply(rt))
			default:
				return Deferring(&chained{left: left.deferred, next: next, rt: rt})
			}
		},
	}
}

// And is an alias for [Filter.Chain].
func (f Filter) And(next Filter) Filter { return f.Chain(next) }

// Map returns a filter that transforms f's tuple with fn. The result has the same immediate or deferred shape as
// f's outcome. The sig describes the transformed tuple.
func (f Filter) Map(sig []reflect.Type, fn func(Tuple) Tuple) Filter {
	return Filter{
		sig: sig,
		apply: func(rt *Route) Outcome {
			o := f.Apply(rt)
			switch o.kind {
			case OutcomeImmediate:
				return Extracted(fn(o.tuple)...)
			case OutcomeDeferred:
				return Deferring(MapDeferred(o.deferred, fn))
			default:
				return o
			}
		},
	}
}

// prefixOutcome prepends prefix to the tuple of o.
func prefixOutcome(prefix Tuple, o Outcome) Outcome {
	switch o.kind {
	case OutcomeFailed:
		return o
	case OutcomeImmediate:
		return Extracted(concatTuples(prefix, o.tuple)...)
	default:
		return Deferring(MapDeferred(o.deferred, func(t Tuple) Tuple {
			return concatTuples(prefix, t)
		}))
	}
}

// chained sequences two stages: the left deferred value is driven to completion before the next filter is applied.
type chained struct {
	left  Deferred[Tuple]
	next  Filter
	rt    *Route
	right Deferred[Tuple]
	done  *Poll[Tuple]
}

func (c *chained) Poll(w *Waker) Poll[Tuple] {
	if c.done != nil {
		return *c.done
	}

	if c.right == nil {
		p := c.left.Poll(w)
		switch p.Status() {
		case Pending:
			return PendingPoll[Tuple]()
		case Failed:
			return c.finish(p)
		}

		out := prefixOutcome(p.Value(), c.next.Apply(c.rt))
		c.left, c.rt = nil, nil

		switch out.kind {
		case OutcomeFailed:
			return c.finish(FailedPoll[Tuple](out.err))
		case OutcomeImmediate:
			return c.finish(ReadyPoll(out.tuple))
		default:
			c.right = out.deferred
		}
	}

	p := c.right.Poll(w)
	if p.Status() == Pending {
		return p
	}

	return c.finish(p)
}

func (c *chained) Discard() {
	if c.done != nil {
		return
	}

	if c.right != nil {
		Discard(c.right)
	} else {
		Discard(c.left)
	}
}

func (c *chained) finish(p Poll[Tuple]) Poll[Tuple] {
	c.left, c.right, c.rt = nil, nil, nil
	c.done = &p

	return p
}
