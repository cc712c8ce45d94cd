package user

import (
	"context"
	"errors"
	"time"

	"qrollcall/internal/auth"
)

var (
	// ErrUserNotFound is returned when an id or email does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrMatricTaken is returned when a matric number already belongs to
	// another student.
	ErrMatricTaken = errors.New("matric number already registered")
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked is returned while the lockout window is open.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrNotVerified is returned when logging in before email verification.
	ErrNotVerified = errors.New("email not verified")
	// ErrBadVerifyCode is returned for a wrong verification code.
	ErrBadVerifyCode = errors.New("verification code does not match")
)

// User is a persisted account. Students carry a matric number, lecturers
// never do.
type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           auth.Role  `json:"role"`
	MatricNumber   string     `json:"matric_number,omitempty"`
	Department     string     `json:"department,omitempty"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	IsVerified     bool       `json:"is_verified"`
	VerifyCode     string     `json:"-"`
	LoginAttempts  int        `json:"-"`
	LockUntil      *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Locked reports whether the account is inside its lockout window at t.
func (u *User) Locked(t time.Time) bool {
	return u.LockUntil != nil && t.Before(*u.LockUntil)
}

// Store is the persistence contract for user records.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}
