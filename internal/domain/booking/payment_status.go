package booking

import (
	"errors"
	"strings"
)

// PaymentStatus is the escrow sub-state of a booking's payment.
type PaymentStatus string

const (
	PaymentNone     PaymentStatus = "none"
	PaymentHeld     PaymentStatus = "held"
	PaymentReleased PaymentStatus = "released"
	PaymentRefunded PaymentStatus = "refunded"
)

var ErrInvalidPaymentStatus = errors.New("invalid payment status")

// ParsePaymentStatus normalizes and validates a payment status string.
func ParsePaymentStatus(in string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidPaymentStatus
}

// Valid reports whether status is one of the allowed payment status constants.
func (status PaymentStatus) Valid() bool {
	switch status {
	case PaymentNone, PaymentHeld, PaymentReleased, PaymentRefunded:
		return true
	default:
		return false
	}
}

// String returns the string representation of the PaymentStatus.
func (status PaymentStatus) String() string {
	return string(status)
}

// Settled reports whether the escrowed money has reached a final destination.
func (status PaymentStatus) Settled() bool {
	return status == PaymentReleased || status == PaymentRefunded
}
