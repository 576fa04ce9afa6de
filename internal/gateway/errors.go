package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a forwarded call failed. The string values are the
// stable "error" field of the relay's error body.
type Kind string

const (
	// KindUnauthenticated means the caller presented no credential; the
	// engine was never called.
	KindUnauthenticated Kind = "unauthenticated"
	// KindUpstreamUnauthorized means the engine rejected the credential.
	KindUpstreamUnauthorized Kind = "upstream_unauthorized"
	// KindUpstreamTimeout means the engine did not answer within the deadline.
	KindUpstreamTimeout Kind = "upstream_timeout"
	// KindUpstreamError is any other non-2xx answer from the engine.
	KindUpstreamError Kind = "upstream_error"
	// KindInternal covers transport failures and unusable payloads.
	KindInternal Kind = "internal_error"
)

// Error is the classified failure of a forwarded call
type Error struct {
	Kind    Kind
	Status  int    // downstream status, when there was one
	Details string // human-readable diagnostic
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status the relay answers with for this error
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUpstreamUnauthorized:
		if e.Status == http.StatusForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamError:
		if e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the Kind of a gateway error anywhere in err's chain.
// Any other non-nil error is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return KindInternal
}

// AsError converts err into a *Error, wrapping unknown errors as internal
func AsError(err error) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return &Error{Kind: KindInternal, Details: "internal error", Err: err}
}
