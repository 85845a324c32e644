package booking

import (
	"errors"
	"strings"
)

// Status is a booking status as stored in the `bookings` table. The lowercase
// string values are wire vocabulary shared with external consumers.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var ErrInvalidStatus = errors.New("invalid booking status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed booking status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo specifies if the status can transition to the next status.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusPending:
		return next == StatusAccepted || next == StatusDeclined || next == StatusCancelled
	case StatusAccepted:
		return next == StatusCancelled || next == StatusCompleted
	case StatusDeclined, StatusCancelled, StatusCompleted:
		return false
	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal state.
func (status Status) Terminal() bool {
	return status == StatusDeclined || status == StatusCancelled || status == StatusCompleted
}

// HoldsSeat reports whether a live booking in this status reserves a seat of
// the ride's inventory. Completed bookings keep their seat counted for
// historical totals, but the parent ride is terminal by then.
func (status Status) HoldsSeat() bool {
	return status == StatusPending || status == StatusAccepted
}
