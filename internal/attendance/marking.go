package attendance

import (
	"context"
	"fmt"
	"time"

	"qrollcall/internal/token"
)

// Student is the identity a mark is recorded under.
type Student struct {
	ID           string
	Name         string
	MatricNumber string
}

// Preview is the read-only payload returned when a scan arrives without the
// confirm flag, so the client can render a confirmation prompt before
// committing.
type Preview struct {
	SessionID     string `json:"session_id"`
	CourseCode    string `json:"course_code"`
	CourseTitle   string `json:"course_title"`
	Level         int    `json:"level"`
	SessionWindow string `json:"session_window"`
	RemainingTime string `json:"remaining_time"`
}

// MarkResult is returned after a committed mark.
type MarkResult struct {
	SessionID string           `json:"session_id"`
	Record    AttendanceRecord `json:"record"`
}

// Marker runs the two-phase attendance marking flow: decode token, validate,
// preview, commit. Commits are at-most-once per (session, matric): a second
// confirm always fails with ErrDuplicateAttendance rather than silently
// succeeding.
type Marker struct {
	codec *token.Codec
	store Store
	now   func() time.Time
}

// NewMarker creates a marker sharing the registry's store.
func NewMarker(codec *token.Codec, store Store) *Marker {
	return &Marker{codec: codec, store: store, now: time.Now}
}

// Mark validates tokenStr and either returns a Preview (confirm=false, no
// mutation) or commits the attendance record (confirm=true). Exactly one of
// the two returns is non-nil on success.
func (m *Marker) Mark(ctx context.Context, tokenStr string, student Student, confirm bool) (*Preview, *MarkResult, error) {
	payload, err := m.codec.Verify(tokenStr)
	if err != nil {
		return nil, nil, err
	}

	session, err := m.store.GetSession(ctx, payload.SessionID)
	if err != nil {
		return nil, nil, err
	}

	now := m.now()
	// The token's own exp claim already enforced expiry during Verify; the
	// embedded deadline is re-checked against the marker's clock as well and
	// feeds the preview's remaining-time estimate.
	expiry := time.Unix(payload.ExpiryTime, 0)
	if now.After(expiry) {
		return nil, nil, token.ErrExpiredToken
	}
	if !session.Active || session.ExpiredAt(now) {
		return nil, nil, ErrSessionClosed
	}

	if !confirm {
		return &Preview{
			SessionID:     session.ID,
			CourseCode:    payload.CourseCode,
			CourseTitle:   payload.CourseTitle,
			Level:         payload.Level,
			SessionWindow: formatWindow(session.SessionStart, session.SessionEnd),
			RemainingTime: formatRemaining(expiry.Sub(now)),
		}, nil, nil
	}

	rec := AttendanceRecord{
		StudentID:    student.ID,
		Name:         student.Name,
		MatricNumber: student.MatricNumber,
		CourseCode:   payload.CourseCode,
		CourseTitle:  payload.CourseTitle,
		Level:        payload.Level,
		Status:       StatusPresent,
		Date:         now.UTC(),
	}
	if err := m.store.AppendRecord(ctx, session.ID, rec); err != nil {
		return nil, nil, err
	}
	return nil, &MarkResult{SessionID: session.ID, Record: rec}, nil
}

func formatWindow(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Local().Format("3:04 PM"), end.Local().Format("3:04 PM"))
}

func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d.Round(time.Minute) / time.Minute)
	if mins < 1 {
		return "less than a minute"
	}
	if mins == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", mins)
}
