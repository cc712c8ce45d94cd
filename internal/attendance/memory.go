package attendance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store for dev and tests. The mutex makes
// AppendRecord's duplicate-check-and-insert atomic, matching the Postgres
// backend's guarantee.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*LectureSession
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*LectureSession)}
}

// CreateSession stores a copy of the session.
func (m *MemoryStore) CreateSession(_ context.Context, s *LectureSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Records = append([]AttendanceRecord(nil), s.Records...)
	m.sessions[s.ID] = &cp
	return nil
}

// GetSession returns a copy of the session or ErrSessionNotFound.
func (m *MemoryStore) GetSession(_ context.Context, id string) (*LectureSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(s), nil
}

// CloseSession marks the session inactive.
func (m *MemoryStore) CloseSession(_ context.Context, id string, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Active = false
	s.SessionEnd = end
	return nil
}

// DeleteSession removes the session and its records.
func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// AppendRecord adds one record, rejecting duplicate matric numbers.
func (m *MemoryStore) AppendRecord(_ context.Context, sessionID string, rec AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	for _, existing := range s.Records {
		if existing.MatricNumber == rec.MatricNumber {
			return ErrDuplicateAttendance
		}
	}
	s.Records = append(s.Records, rec)
	return nil
}

// ListByLecturer returns copies of the lecturer's sessions, most recent first.
func (m *MemoryStore) ListByLecturer(_ context.Context, lecturerID string) ([]LectureSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LectureSession
	for _, s := range m.sessions {
		if s.LecturerID == lecturerID {
			out = append(out, *copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SessionStart.After(out[j].SessionStart)
	})
	return out, nil
}

func copySession(s *LectureSession) *LectureSession {
	cp := *s
	cp.Records = append([]AttendanceRecord(nil), s.Records...)
	return &cp
}
