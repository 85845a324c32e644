package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindSeatsUnavailable, KindOf(New(KindSeatsUnavailable, "sold out")))
	assert.Equal(t, KindStore, KindOf(errors.New("driver blew up")), "non-faults read as store errors")

	// kind survives wrapping with %w
	wrapped := fmt.Errorf("request failed: %w", New(KindNotAuthorized, "not yours"))
	assert.True(t, IsKind(wrapped, KindNotAuthorized))

	// Wrap keeps the cause reachable
	cause := errors.New("connection reset")
	assert.ErrorIs(t, Wrap(KindPayment, "hold funds", cause), cause)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(KindPayment, "gateway down")))
	assert.True(t, Retryable(errors.New("some db error")))
	assert.False(t, Retryable(New(KindInvalidTransition, "already cancelled")))
	assert.False(t, Retryable(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidInput, http.StatusBadRequest},
		{KindInvalidParticipants, http.StatusBadRequest},
		{KindNotAuthorized, http.StatusForbidden},
		{KindInvalidTransition, http.StatusConflict},
		{KindSeatsUnavailable, http.StatusConflict},
		{KindDuplicateBooking, http.StatusConflict},
		{KindDeadlineExpired, http.StatusConflict},
		{KindAlreadyConfirmed, http.StatusConflict},
		{KindNotEligible, http.StatusConflict},
		{KindPayment, http.StatusBadGateway},
		{KindStore, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(New(tt.kind, "x")), "kind %s", tt.kind)
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
