package user

import (
	"errors"
	"strings"
)

// Status is a member verification status as stored in the `users` table.
// Identity verification itself is an external concern; the engine only cares
// that actors are verified members.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusVerified  Status = "VERIFIED"
	StatusSuspended Status = "SUSPENDED"
)

var ErrInvalidStatus = errors.New("invalid user status")

// ParseStatus normalizes (uppercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusVerified, StatusSuspended:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// Convenience helpers.
func (status Status) IsVerified() bool  { return status == StatusVerified }
func (status Status) IsSuspended() bool { return status == StatusSuspended }
