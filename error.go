package bfilter

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Code is an error code that mirrors the http status codes. It can be used to create errors to pass around across
// middleware layers to handle errors structurally.
type Code int

const (
	CodeUnknown                     Code = 0
	CodeBadRequest                  Code = http.StatusBadRequest                  // RFC 9110, 15.5.1
	CodeUnauthorized                Code = http.StatusUnauthorized                // RFC 9110, 15.5.2
	CodeForbidden                   Code = http.StatusForbidden                   // RFC 9110, 15.5.4
	CodeNotFound                    Code = http.StatusNotFound                    // RFC 9110, 15.5.5
	CodeMethodNotAllowed            Code = http.StatusMethodNotAllowed            // RFC 9110, 15.5.6
	CodeRequestTimeout              Code = http.StatusRequestTimeout              // RFC 9110, 15.5.9
	CodeLengthRequired              Code = http.StatusLengthRequired              // RFC 9110, 15.5.12
	CodeRequestEntityTooLarge       Code = http.StatusRequestEntityTooLarge       // RFC 9110, 15.5.14
	CodeUnsupportedMediaType        Code = http.StatusUnsupportedMediaType        // RFC 9110, 15.5.16
	CodeUnprocessableEntity         Code = http.StatusUnprocessableEntity         // RFC 9110, 15.5.21
	CodeTooManyRequests             Code = http.StatusTooManyRequests             // RFC 6585, 4
	CodeRequestHeaderFieldsTooLarge Code = http.StatusRequestHeaderFieldsTooLarge // RFC 6585, 5

	CodeInternalServerError Code = http.StatusInternalServerError // RFC 9110, 15.6.1
	CodeNotImplemented      Code = http.StatusNotImplemented      // RFC 9110, 15.6.2
	CodeServiceUnavailable  Code = http.StatusServiceUnavailable  // RFC 9110, 15.6.4
	CodeGatewayTimeout      Code = http.StatusGatewayTimeout      // RFC 9110, 15.6.5
)

// Kind classifies why a filter chain was rejected. Every kind short-circuits a chain in the same way, the kind only
// selects the default status code and is available to diagnostics.
type Kind int

const (
	KindUnknown Kind = iota
	// KindBodyUnavailable is reported when the request body was already taken by another filter.
	KindBodyUnavailable
	// KindStreamFailure is reported when the body stream terminated abnormally.
	KindStreamFailure
	// KindDecodeFailure is reported when the accumulated body did not decode into the requested type.
	KindDecodeFailure
	// KindBodyTooLarge is reported when the body exceeds a configured limit.
	KindBodyTooLarge
	KindNotFound
	KindMethodNotAllowed
	KindMissingHeader
	KindInvalidParam
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindBodyUnavailable:  "body_unavailable",
	KindStreamFailure:    "stream_failure",
	KindDecodeFailure:    "decode_failure",
	KindBodyTooLarge:     "body_too_large",
	KindNotFound:         "not_found",
	KindMethodNotAllowed: "method_not_allowed",
	KindMissingHeader:    "missing_header",
	KindInvalidParam:     "invalid_param",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Code returns the status code a rejection of this kind is rendered with.
func (k Kind) Code() Code {
	switch k {
	case KindBodyUnavailable, KindStreamFailure, KindDecodeFailure, KindMissingHeader, KindInvalidParam:
		return CodeBadRequest
	case KindBodyTooLarge:
		return CodeRequestEntityTooLarge
	case KindNotFound:
		return CodeNotFound
	case KindMethodNotAllowed:
		return CodeMethodNotAllowed
	default:
		return CodeInternalServerError
	}
}

// Error describes an http error.
type Error struct {
	code Code
	kind Kind
	err  error
}

// NewError inits a new error given the error code.
func NewError(c Code, underlying error) *Error {
	return &Error{code: c, err: underlying}
}

// Reject inits a rejection of the given kind. The code is derived from the kind.
func Reject(k Kind, cause error) *Error {
	if cause == nil {
		cause = errors.New(k.String())
	}
	return &Error{code: k.Code(), kind: k, err: cause}
}

func (e *Error) Code() Code    { return e.code }
func (e *Error) Kind() Kind    { return e.kind }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Error() string {
	status := http.StatusText(int(e.Code()))
	if status == "" {
		status = "Unknown"
	}

	return fmt.Sprintf("%s: %s", status, e.err.Error())
}

// CodeOf returns the error's status code if it is or wraps an [*Error] and
// [CodeUnknown] otherwise.
func CodeOf(err error) Code {
	if bErr, ok := asError(err); ok {
		return bErr.Code()
	}
	return CodeUnknown
}

// KindOf returns the rejection kind if err is or wraps an [*Error] and [KindUnknown] otherwise.
func KindOf(err error) Kind {
	if bErr, ok := asError(err); ok {
		return bErr.Kind()
	}
	return KindUnknown
}

// IsRejection reports whether err is or wraps an [*Error] created by [Reject].
func IsRejection(err error) bool {
	return KindOf(err) != KindUnknown
}

// asError uses errors.As to unwrap any error and look for an *Error.
func asError(err error) (*Error, bool) {
	var bErr *Error
	ok := errors.As(err, &bErr)
	return bErr, ok
}
