package attendance

import (
	"context"
	"time"
)

// Store is the persistence contract for the session registry. Two backends
// exist: Postgres for production and an in-memory map for dev and tests,
// selected by STORE_BACKEND.
//
// AppendRecord must treat duplicate-detection-and-insert as a single atomic
// unit: two near-simultaneous commits for the same (session, matric) pair may
// never both succeed.
type Store interface {
	CreateSession(ctx context.Context, s *LectureSession) error
	// GetSession returns the session with its records, or ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (*LectureSession, error)
	// CloseSession marks the session inactive and rewrites its end time.
	CloseSession(ctx context.Context, id string, end time.Time) error
	// DeleteSession removes the session and all embedded records.
	DeleteSession(ctx context.Context, id string) error
	// AppendRecord adds one attendance record, failing with
	// ErrDuplicateAttendance if the matric number is already present.
	AppendRecord(ctx context.Context, sessionID string, rec AttendanceRecord) error
	// ListByLecturer returns the lecturer's sessions, most recent first,
	// records included.
	ListByLecturer(ctx context.Context, lecturerID string) ([]LectureSession, error)
}
