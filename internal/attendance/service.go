package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service is the session registry: it owns the lifecycle of lecture sessions
// and is the only path that mutates their attendance records.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a registry backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateSession opens a new attendance window ending now+duration.
func (s *Service) CreateSession(ctx context.Context, lecturerID, courseTitle, courseCode string, level, totalStudents int, duration time.Duration) (*LectureSession, error) {
	if lecturerID == "" {
		return nil, errors.New("lecturer id required")
	}
	if courseCode == "" || courseTitle == "" {
		return nil, errors.New("course code and title required")
	}
	if duration <= 0 {
		return nil, errors.New("duration must be positive")
	}
	if totalStudents < 0 {
		return nil, errors.New("total students cannot be negative")
	}

	start := s.now().UTC()
	session := &LectureSession{
		ID:            uuid.NewString(),
		LecturerID:    lecturerID,
		CourseCode:    courseCode,
		CourseTitle:   courseTitle,
		Level:         level,
		TotalStudents: totalStudents,
		SessionStart:  start,
		SessionEnd:    start.Add(duration),
		Active:        true,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// StopSession ends the session early. Only the owner may stop it; the end
// time is rewritten to now rather than left at the scheduled value.
func (s *Service) StopSession(ctx context.Context, sessionID, lecturerID string) error {
	session, err := s.ownedSession(ctx, sessionID, lecturerID)
	if err != nil {
		return err
	}
	return s.store.CloseSession(ctx, session.ID, s.now().UTC())
}

// DeleteSession removes the session and its records irrecoverably.
func (s *Service) DeleteSession(ctx context.Context, sessionID, lecturerID string) error {
	session, err := s.ownedSession(ctx, sessionID, lecturerID)
	if err != nil {
		return err
	}
	return s.store.DeleteSession(ctx, session.ID)
}

// ListByLecturer returns the lecturer's sessions most-recent-first. Sessions
// past their end are reported inactive even if the stored flag has not been
// touched yet.
func (s *Service) ListByLecturer(ctx context.Context, lecturerID string) ([]LectureSession, error) {
	sessions, err := s.store.ListByLecturer(ctx, lecturerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range sessions {
		if sessions[i].ExpiredAt(now) {
			sessions[i].Active = false
		}
	}
	return sessions, nil
}

func (s *Service) ownedSession(ctx context.Context, sessionID, lecturerID string) (*LectureSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.LecturerID != lecturerID {
		return nil, ErrForbidden
	}
	return session, nil
}
