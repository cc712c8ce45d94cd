package attendance

import "time"

// StatusPresent is the only status a QR scan can produce; absences are
// derived at report time, never stored.
const StatusPresent = "present"

// LectureSession is one lecturer's QR-attendance window for a course.
type LectureSession struct {
	ID            string             `json:"id"`
	LecturerID    string             `json:"lecturer_id"`
	CourseCode    string             `json:"course_code"`
	CourseTitle   string             `json:"course_title"`
	Level         int                `json:"level"`
	TotalStudents int                `json:"total_students"`
	SessionStart  time.Time          `json:"session_start"`
	SessionEnd    time.Time          `json:"session_end"`
	Active        bool               `json:"active"`
	Records       []AttendanceRecord `json:"records,omitempty"`
}

// ExpiredAt reports whether the session window has elapsed at t. Expiry is
// lazy: nothing flips Active in the background, so every read path must treat
// a past-end session as inactive.
func (s *LectureSession) ExpiredAt(t time.Time) bool {
	return t.After(s.SessionEnd)
}

// AttendanceRecord is one student's presence mark within a session. Records
// live inside their session and have no independent identity.
type AttendanceRecord struct {
	StudentID    string    `json:"student_id"`
	Name         string    `json:"name"`
	MatricNumber string    `json:"matric_number"`
	CourseCode   string    `json:"course_code"`
	CourseTitle  string    `json:"course_title"`
	Level        int       `json:"level"`
	Status       string    `json:"status"`
	Date         time.Time `json:"date"`
}

// Report is the per-session summary returned to the owning lecturer.
type Report struct {
	SessionID      string             `json:"session_id"`
	CourseCode     string             `json:"course_code"`
	CourseTitle    string             `json:"course_title"`
	Records        []AttendanceRecord `json:"records"`
	PresentCount   int                `json:"present_count"`
	TotalStudents  int                `json:"total_students"`
	AttendanceRate int                `json:"attendance_rate"`
}

// TrendPoint is one session's worth of statistics in a lecturer's trend.
type TrendPoint struct {
	CourseCode     string    `json:"course_code"`
	SessionDate    time.Time `json:"session_date"`
	PresentCount   int       `json:"present_count"`
	TotalStudents  int       `json:"total_students"`
	AttendanceRate int       `json:"attendance_rate"`
}
