package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{&Error{Kind: KindUnauthenticated}, http.StatusUnauthorized},
		{&Error{Kind: KindUpstreamUnauthorized, Status: 401}, http.StatusUnauthorized},
		{&Error{Kind: KindUpstreamUnauthorized, Status: 403}, http.StatusForbidden},
		{&Error{Kind: KindUpstreamUnauthorized}, http.StatusUnauthorized},
		{&Error{Kind: KindUpstreamTimeout}, http.StatusGatewayTimeout},
		{&Error{Kind: KindUpstreamError, Status: 503}, http.StatusServiceUnavailable},
		{&Error{Kind: KindUpstreamError, Status: 422}, http.StatusUnprocessableEntity},
		{&Error{Kind: KindUpstreamError, Status: 302}, http.StatusBadGateway},
		{&Error{Kind: KindInternal}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("loading state: %w", &Error{Kind: KindUpstreamTimeout})
	assert.Equal(t, KindUpstreamTimeout, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &Error{Kind: KindInternal, Details: "failed to reach engine", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "internal_error")
	assert.Contains(t, err.Error(), "refused")
}

func TestAsError(t *testing.T) {
	gerr := AsError(errors.New("boom"))
	assert.Equal(t, KindInternal, gerr.Kind)

	orig := &Error{Kind: KindUpstreamError, Status: 500}
	assert.Same(t, orig, AsError(fmt.Errorf("x: %w", orig)))
}
