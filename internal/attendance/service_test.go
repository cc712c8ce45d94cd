package attendance

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store), store
}

func TestCreateSession(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	session, err := svc.CreateSession(context.Background(), "lect-1", "Operating Systems", "CSC309", 300, 50, 30*time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !session.Active {
		t.Error("new session should be active")
	}
	if !session.SessionStart.Equal(start) {
		t.Errorf("session start = %v, want %v", session.SessionStart, start)
	}
	if got, want := session.SessionEnd, start.Add(30*time.Minute); !got.Equal(want) {
		t.Errorf("session end = %v, want start+duration %v", got, want)
	}
	if session.ID == "" {
		t.Error("session id not assigned")
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name                 string
		lecturer, title, code string
		total                int
		duration             time.Duration
	}{
		{"missing lecturer", "", "OS", "CSC309", 50, time.Minute},
		{"missing course code", "lect-1", "OS", "", 50, time.Minute},
		{"missing title", "lect-1", "", "CSC309", 50, time.Minute},
		{"zero duration", "lect-1", "OS", "CSC309", 50, 0},
		{"negative enrolment", "lect-1", "OS", "CSC309", -1, time.Minute},
	}
	for _, tc := range cases {
		if _, err := svc.CreateSession(ctx, tc.lecturer, tc.title, tc.code, 300, tc.total, tc.duration); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestStopSession(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "lect-1", "OS", "CSC309", 300, 50, 30*time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stopAt := session.SessionStart.Add(5 * time.Minute)
	svc.now = func() time.Time { return stopAt }
	if err := svc.StopSession(ctx, session.ID, "lect-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	stored, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Active {
		t.Error("stopped session still active")
	}
	if !stored.SessionEnd.Equal(stopAt) {
		t.Errorf("session end = %v, want stop time %v", stored.SessionEnd, stopAt)
	}
}

func TestStopSessionNotOwner(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "lect-b", "OS", "CSC309", 300, 50, 30*time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.StopSession(ctx, session.ID, "lect-a"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stop by non-owner = %v, want ErrForbidden", err)
	}
	stored, _ := store.GetSession(ctx, session.ID)
	if !stored.Active {
		t.Error("session mutated by forbidden stop")
	}
	if !stored.SessionEnd.Equal(session.SessionEnd) {
		t.Error("session end mutated by forbidden stop")
	}
}

func TestStopSessionNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.StopSession(context.Background(), "nope", "lect-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stop missing session = %v, want ErrSessionNotFound", err)
	}
}

func TestDeleteSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "lect-1", "OS", "CSC309", 300, 50, 30*time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteSession(ctx, session.ID, "other"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("delete by non-owner = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteSession(ctx, session.ID, "lect-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteSession(ctx, session.ID, "lect-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second delete = %v, want ErrSessionNotFound", err)
	}
}

func TestListByLecturerOrderAndLazyExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	for i, code := range []string{"CSC301", "CSC302", "CSC303"} {
		start := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return start }
		if _, err := svc.CreateSession(ctx, "lect-1", "Course", code, 300, 50, 30*time.Minute); err != nil {
			t.Fatalf("create %s: %v", code, err)
		}
	}
	svc.now = func() time.Time { return base.Add(95 * time.Minute) }

	sessions, err := svc.ListByLecturer(ctx, "lect-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}
	for i, want := range []string{"CSC303", "CSC302", "CSC301"} {
		if sessions[i].CourseCode != want {
			t.Errorf("sessions[%d] = %s, want %s (most-recent-first)", i, sessions[i].CourseCode, want)
		}
	}
	// First two windows have elapsed; still-active flags in the store must
	// read as inactive.
	if sessions[1].Active || sessions[2].Active {
		t.Error("expired sessions reported active")
	}
	if !sessions[0].Active {
		t.Error("in-window session reported inactive")
	}
}
