package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a business or infrastructure failure of the engine.
type Kind string

const (
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindNotAuthorized       Kind = "NOT_AUTHORIZED"
	KindSeatsUnavailable    Kind = "SEATS_UNAVAILABLE"
	KindDuplicateBooking    Kind = "DUPLICATE_BOOKING"
	KindDeadlineExpired     Kind = "DEADLINE_EXPIRED"
	KindAlreadyConfirmed    Kind = "ALREADY_CONFIRMED"
	KindNotEligible         Kind = "NOT_ELIGIBLE"
	KindInvalidParticipants Kind = "INVALID_PARTICIPANTS"
	KindPayment             Kind = "PAYMENT_ERROR"
	KindStore               Kind = "STORE_ERROR"
)

// Error carries a failure kind plus a human-readable message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// New creates a fault with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a fault with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault that wraps an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the fault kind from err, or KindStore when err is not a fault.
// A nil err yields the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindStore
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the failure is an infrastructure fault the caller
// may retry, as opposed to a business-rule violation that will never succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindPayment, KindStore:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a fault to the response code the API layer should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput, KindInvalidParticipants:
		return http.StatusBadRequest
	case KindNotAuthorized:
		return http.StatusForbidden
	case KindInvalidTransition, KindDeadlineExpired, KindAlreadyConfirmed, KindNotEligible, KindDuplicateBooking:
		return http.StatusConflict
	case KindSeatsUnavailable:
		return http.StatusConflict
	case KindPayment:
		return http.StatusBadGateway
	case KindStore:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
