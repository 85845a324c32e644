package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User is the domain entity corresponding to the `users` table. Sign-up and
// verification flows live outside the engine; this entity exists for
// authorization checks and foreign keys.
type User struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Email     string
	FullName  string
	Status    Status
}

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrNameRequired = errors.New("full name is required")
)

// NewUser constructs a member in PENDING state.
func NewUser(email, fullName string) (*User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if fullName = strings.TrimSpace(fullName); fullName == "" {
		return nil, ErrNameRequired
	}

	now := time.Now().UTC()
	return &User{
		CreatedAt: now,
		UpdatedAt: now,
		Email:     email,
		FullName:  fullName,
		Status:    StatusPending,
	}, nil
}
