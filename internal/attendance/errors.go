package attendance

import "errors"

var (
	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = errors.New("session not found")
	// ErrForbidden is returned when the caller does not own the session.
	ErrForbidden = errors.New("not the session owner")
	// ErrDuplicateAttendance is returned when a matric number already has a
	// record in the session.
	ErrDuplicateAttendance = errors.New("attendance already marked")
	// ErrSessionClosed is returned when marking against a stopped or expired
	// session.
	ErrSessionClosed = errors.New("session is no longer active")
)
