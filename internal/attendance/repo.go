package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists the session registry in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateSession writes a new session row.
func (r *Repository) CreateSession(ctx context.Context, s *LectureSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lecture_sessions (id, lecturer_id, course_code, course_title, level, total_students, session_start, session_end, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, s.ID, s.LecturerID, s.CourseCode, s.CourseTitle, s.Level, s.TotalStudents, s.SessionStart, s.SessionEnd, s.Active)
	return err
}

// GetSession returns a session with its records.
func (r *Repository) GetSession(ctx context.Context, id string) (*LectureSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lecturer_id, course_code, course_title, level, total_students, session_start, session_end, active
		FROM lecture_sessions WHERE id = $1
	`, id)
	var s LectureSession
	if err := row.Scan(&s.ID, &s.LecturerID, &s.CourseCode, &s.CourseTitle, &s.Level, &s.TotalStudents, &s.SessionStart, &s.SessionEnd, &s.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	records, err := r.loadRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Records = records
	return &s, nil
}

// CloseSession flips active off and rewrites the end time. Stopping is an
// early-termination signal, so the scheduled end is overwritten.
func (r *Repository) CloseSession(ctx context.Context, id string, end time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE lecture_sessions SET active = FALSE, session_end = $2 WHERE id = $1
	`, id, end)
	if err != nil {
		return err
	}
	return checkFound(res)
}

// DeleteSession removes the session; records cascade.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lecture_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkFound(res)
}

// AppendRecord inserts one attendance record. The unique index on
// (session_id, matric_number) plus ON CONFLICT DO NOTHING makes the
// duplicate check and the insert a single atomic statement.
func (r *Repository) AppendRecord(ctx context.Context, sessionID string, rec AttendanceRecord) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, session_id, student_id, name, matric_number, course_code, course_title, level, status, marked_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (session_id, matric_number) DO NOTHING
	`, uuid.NewString(), sessionID, rec.StudentID, rec.Name, rec.MatricNumber, rec.CourseCode, rec.CourseTitle, rec.Level, rec.Status, rec.Date)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicateAttendance
	}
	return nil
}

// ListByLecturer returns the lecturer's sessions most-recent-first, with
// records attached.
func (r *Repository) ListByLecturer(ctx context.Context, lecturerID string) ([]LectureSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lecturer_id, course_code, course_title, level, total_students, session_start, session_end, active
		FROM lecture_sessions
		WHERE lecturer_id = $1
		ORDER BY session_start DESC
	`, lecturerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []LectureSession
	for rows.Next() {
		var s LectureSession
		if err := rows.Scan(&s.ID, &s.LecturerID, &s.CourseCode, &s.CourseTitle, &s.Level, &s.TotalStudents, &s.SessionStart, &s.SessionEnd, &s.Active); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range sessions {
		records, err := r.loadRecords(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Records = records
	}
	return sessions, nil
}

func (r *Repository) loadRecords(ctx context.Context, sessionID string) ([]AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id, name, matric_number, course_code, course_title, level, status, marked_at
		FROM attendance_records
		WHERE session_id = $1
		ORDER BY marked_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AttendanceRecord
	for rows.Next() {
		var rec AttendanceRecord
		if err := rows.Scan(&rec.StudentID, &rec.Name, &rec.MatricNumber, &rec.CourseCode, &rec.CourseTitle, &rec.Level, &rec.Status, &rec.Date); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
