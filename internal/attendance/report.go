package attendance

import (
	"context"
	"math"
	"sort"
)

// Report folds a session's records into per-student rows plus a summary.
// Owner-only, like every other read on a session.
func (s *Service) Report(ctx context.Context, sessionID, lecturerID string) (*Report, error) {
	session, err := s.ownedSession(ctx, sessionID, lecturerID)
	if err != nil {
		return nil, err
	}
	records := session.Records
	if records == nil {
		records = []AttendanceRecord{}
	}
	return &Report{
		SessionID:      session.ID,
		CourseCode:     session.CourseCode,
		CourseTitle:    session.CourseTitle,
		Records:        records,
		PresentCount:   len(records),
		TotalStudents:  session.TotalStudents,
		AttendanceRate: rate(len(records), session.TotalStudents),
	}, nil
}

// Trend returns one point per owned session, ascending by session date.
func (s *Service) Trend(ctx context.Context, lecturerID string) ([]TrendPoint, error) {
	sessions, err := s.store.ListByLecturer(ctx, lecturerID)
	if err != nil {
		return nil, err
	}
	points := make([]TrendPoint, 0, len(sessions))
	for _, session := range sessions {
		points = append(points, TrendPoint{
			CourseCode:     session.CourseCode,
			SessionDate:    session.SessionStart,
			PresentCount:   len(session.Records),
			TotalStudents:  session.TotalStudents,
			AttendanceRate: rate(len(session.Records), session.TotalStudents),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].SessionDate.Before(points[j].SessionDate)
	})
	return points, nil
}

// rate is the rounded present/total percentage, 0 when nobody is enrolled.
func rate(present, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}
