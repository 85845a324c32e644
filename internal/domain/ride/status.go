package ride

import (
	"errors"
	"strings"
	"time"
)

// Status is a ride status as stored in the `rides` table. The lowercase
// string values are wire vocabulary shared with external consumers.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// DerivedInProgress is a computed-only status for rides whose departure time
// has passed but which the driver has not yet marked completed. It is never
// persisted; the stored status stays the single source of truth.
const DerivedInProgress = "in_progress"

var ErrInvalidStatus = errors.New("invalid ride status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed ride status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusUpcoming, StatusCompleted, StatusCancelled:
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
	case StatusUpcoming:
		return next == StatusCompleted || next == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false
	default:
		return false
	}
}

// Terminal indicates if the status is in a terminal state.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusCancelled
}

// Derive returns the externally visible status for a stored status and
// departure time: an upcoming ride whose departure has passed reads as
// in_progress.
func Derive(status Status, departure, now time.Time) string {
	if status == StatusUpcoming && !now.Before(departure) {
		return DerivedInProgress
	}
	return status.String()
}
