// Package bfilter provides composable request filters that extract typed values from HTTP requests, including
// values that are only available after the request body has been read.
//
// # Overview
//
// A [Filter] extracts an ordered tuple of values from a [Route], the per-request state that holds the method,
// headers, the part of the path that has not been matched yet and the request body. Filters are chained into
// larger filters and the combined tuple is handed to a reply function:
//
//	type Employee struct {
//	    Name string `json:"name"`
//	    Rate uint32 `json:"rate"`
//	}
//
//	promote := bfilter.Param[uint32]().Chain(bfilter.JSON[Employee]())
//
//	mux := bfilter.NewServeMux()
//	mux.Mount("POST /employees", bfilter.Handle2(promote,
//	    func(ctx context.Context, w bfilter.ResponseWriter, rate uint32, emp Employee) error {
//	        emp.Rate = rate
//	        return json.NewEncoder(w).Encode(emp)
//	    }))
//
// # Outcomes and deferred values
//
// Applying a filter yields an [Outcome]: an immediate tuple, a [Deferred] tuple, or a rejection. A [Deferred] is
// driven by polling; every poll reports Pending, Ready or Failed. Nothing in this package blocks or starts
// goroutines while polling: a deferred value that cannot make progress reports Pending and arranges for the
// [Waker] it was polled with to be woken. [Await] is the driver used by the handlers of this package; it parks on
// the waker between polls and discards the deferred value when the request context ends.
//
// # Chaining
//
// [Filter.Chain] runs the left filter first. A rejection short-circuits the chain and the right filter is never
// applied. Otherwise the right filter runs against the same route and the tuples are concatenated, left values
// first. When the left filter defers, the right filter is only applied once the left value is ready, so route
// mutations such as taking the body happen in declaration order. Chaining is associative:
// (a.Chain(b)).Chain(c) extracts the same tuple as a.Chain(b.Chain(c)).
//
// [Filter.Map], [Map1], [Map2] and [Map3] transform the tuple and keep the immediate or deferred shape of the
// outcome.
//
// # Bodies
//
// The body of a request can be taken from the route exactly once. [Concat] takes it and accumulates all chunks,
// in arrival order, into one []byte using an [Accumulator]. [JSON], [YAML] and [Decode] wrap the accumulator in a
// [Decoder] that decodes the buffer once it is complete. A second body filter in the same chain rejects with
// [KindBodyUnavailable] instead of observing an empty body.
//
// # Rejections
//
// Failures travel as [*Error] values created with [Reject]. Every [Kind] ends the chain the same way; the kind
// selects the status code of the error response and is reported, with its underlying cause, to the [Logger]
// observer. A reply function is only called with a complete tuple.
//
// # Buffered responses
//
// Handlers write to a [ResponseWriter] that holds the response in memory until the handler returns, so an error
// returned half way replaces whatever was written with a clean error response. [ToStd] converts handlers into
// standard library handlers and [ServeMux] combines this with middleware and mounting.
package bfilter
