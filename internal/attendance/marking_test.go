package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"qrollcall/internal/token"
)

func markingFixture(t *testing.T) (*Service, *Marker, *token.Codec, *LectureSession) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store)
	codec := token.NewCodec("test-secret", "qrollcall")
	marker := NewMarker(codec, store)

	session, err := svc.CreateSession(context.Background(), "lect-1", "Operating Systems", "CSC309", 300, 50, 30*time.Minute)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return svc, marker, codec, session
}

func mintFor(t *testing.T, codec *token.Codec, session *LectureSession, ttl time.Duration) string {
	t.Helper()
	signed, _, err := codec.Mint(token.Payload{
		SessionID:     session.ID,
		CourseCode:    session.CourseCode,
		CourseTitle:   session.CourseTitle,
		Level:         session.Level,
		TotalStudents: session.TotalStudents,
	}, ttl)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return signed
}

var testStudent = Student{ID: "stud-1", Name: "Ada Obi", MatricNumber: "2021/12345"}

func TestMarkPreviewThenCommit(t *testing.T) {
	svc, marker, codec, session := markingFixture(t)
	ctx := context.Background()
	tok := mintFor(t, codec, session, 30*time.Minute)

	// Phase one: no confirm flag, read-only preview.
	preview, result, err := marker.Mark(ctx, tok, testStudent, false)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if result != nil {
		t.Fatal("preview must not commit")
	}
	if preview.CourseCode != "CSC309" || preview.CourseTitle != "Operating Systems" || preview.Level != 300 {
		t.Errorf("preview course details wrong: %+v", preview)
	}
	if preview.RemainingTime == "" || preview.SessionWindow == "" {
		t.Errorf("preview missing time fields: %+v", preview)
	}

	report, err := svc.Report(ctx, session.ID, "lect-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.PresentCount != 0 {
		t.Fatalf("preview appended %d records, want 0", report.PresentCount)
	}

	// Phase two: confirmed commit.
	preview, result, err = marker.Mark(ctx, tok, testStudent, true)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if preview != nil || result == nil {
		t.Fatal("commit must return a result, not a preview")
	}
	if result.Record.MatricNumber != "2021/12345" || result.Record.Status != StatusPresent {
		t.Errorf("committed record wrong: %+v", result.Record)
	}

	report, err = svc.Report(ctx, session.ID, "lect-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.PresentCount != 1 {
		t.Fatalf("got %d records, want 1", report.PresentCount)
	}
	if report.AttendanceRate != 2 { // round(1/50*100)
		t.Errorf("attendance rate = %d, want 2", report.AttendanceRate)
	}
}

func TestMarkDuplicate(t *testing.T) {
	svc, marker, codec, session := markingFixture(t)
	ctx := context.Background()
	tok := mintFor(t, codec, session, 30*time.Minute)

	if _, _, err := marker.Mark(ctx, tok, testStudent, true); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if _, _, err := marker.Mark(ctx, tok, testStudent, true); !errors.Is(err, ErrDuplicateAttendance) {
		t.Fatalf("second commit = %v, want ErrDuplicateAttendance", err)
	}

	report, _ := svc.Report(ctx, session.ID, "lect-1")
	if report.PresentCount != 1 {
		t.Errorf("duplicate commit mutated records: %d", report.PresentCount)
	}
}

func TestMarkExpiredToken(t *testing.T) {
	_, marker, codec, session := markingFixture(t)

	tok := mintFor(t, codec, session, -time.Minute)
	if _, _, err := marker.Mark(context.Background(), tok, testStudent, true); !errors.Is(err, token.ErrExpiredToken) {
		t.Errorf("mark with elapsed token = %v, want ErrExpiredToken", err)
	}
}

func TestMarkEmbeddedExpiryRecheck(t *testing.T) {
	// The signature check can pass while the marker's clock is already past
	// the embedded deadline; the re-check must still reject.
	_, marker, codec, session := markingFixture(t)
	tok := mintFor(t, codec, session, 10*time.Minute)

	marker.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	if _, _, err := marker.Mark(context.Background(), tok, testStudent, true); !errors.Is(err, token.ErrExpiredToken) {
		t.Errorf("mark past embedded expiry = %v, want ErrExpiredToken", err)
	}
}

func TestMarkStoppedSession(t *testing.T) {
	svc, marker, codec, session := markingFixture(t)
	ctx := context.Background()
	tok := mintFor(t, codec, session, 30*time.Minute)

	if err := svc.StopSession(ctx, session.ID, "lect-1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, _, err := marker.Mark(ctx, tok, testStudent, true); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("mark on stopped session = %v, want ErrSessionClosed", err)
	}
}

func TestMarkInvalidToken(t *testing.T) {
	_, marker, _, _ := markingFixture(t)
	if _, _, err := marker.Mark(context.Background(), "garbage", testStudent, true); !errors.Is(err, token.ErrInvalidToken) {
		t.Errorf("mark with garbage token = %v, want ErrInvalidToken", err)
	}
}

func TestMarkSessionDeleted(t *testing.T) {
	svc, marker, codec, session := markingFixture(t)
	ctx := context.Background()
	tok := mintFor(t, codec, session, 30*time.Minute)

	if err := svc.DeleteSession(ctx, session.ID, "lect-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := marker.Mark(ctx, tok, testStudent, true); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("mark on deleted session = %v, want ErrSessionNotFound", err)
	}
}

func TestMarkConcurrentCommits(t *testing.T) {
	_, marker, codec, session := markingFixture(t)
	tok := mintFor(t, codec, session, 30*time.Minute)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, _, err := marker.Mark(context.Background(), tok, testStudent, true)
			errs <- err
		}()
	}
	var ok, dup int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateAttendance):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Errorf("concurrent commits: %d succeeded, %d duplicate; want exactly one of each", ok, dup)
	}
}
