package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"qrollcall/internal/attendance"
	"qrollcall/internal/auth"
	"qrollcall/internal/metrics"
	"qrollcall/internal/qrimg"
	"qrollcall/internal/token"
)

type generateRequest struct {
	CourseTitle   string `json:"course_title" binding:"required"`
	CourseCode    string `json:"course_code" binding:"required"`
	Level         int    `json:"level" binding:"required"`
	Duration      int    `json:"duration" binding:"required,min=1"` // minutes
	TotalStudents int    `json:"total_students"`
}

// GenerateSession opens an attendance window and returns the QR image
// encoding its signed token.
func (h *Handler) GenerateSession(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.CurrentClaims(c)

	duration := time.Duration(req.Duration) * time.Minute
	session, err := h.registry.CreateSession(c.Request.Context(), claims.Subject, req.CourseTitle, req.CourseCode, req.Level, req.TotalStudents, duration)
	if err != nil {
		respondErr(c, err)
		return
	}

	signed, expiry, err := h.codec.Mint(token.Payload{
		SessionID:     session.ID,
		CourseCode:    session.CourseCode,
		CourseTitle:   session.CourseTitle,
		Level:         session.Level,
		TotalStudents: session.TotalStudents,
	}, duration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token mint failed"})
		return
	}

	qrURL, err := qrimg.DataURL(signed, 0)
	if err != nil {
		log.Printf("qr encode failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr encode failed"})
		return
	}
	metrics.SessionsGenerated.WithLabelValues(session.CourseCode).Inc()

	c.JSON(http.StatusCreated, gin.H{
		"qr_code_url": qrURL,
		"session_id":  session.ID,
		"expiry_time": expiry.Unix(),
		"course_details": gin.H{
			"course_code":    session.CourseCode,
			"course_title":   session.CourseTitle,
			"level":          session.Level,
			"total_students": session.TotalStudents,
		},
	})
}

// StopSession ends the caller's session early.
func (h *Handler) StopSession(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	if err := h.registry.StopSession(c.Request.Context(), c.Param("sessionId"), claims.Subject); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

// DeleteSession removes the caller's session and its records.
func (h *Handler) DeleteSession(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	if err := h.registry.DeleteSession(c.Request.Context(), c.Param("sessionId"), claims.Subject); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type markRequest struct {
	Token   string `json:"token" binding:"required"`
	Confirm *bool  `json:"confirm_attendance"`
}

// MarkAttendance runs the two-phase mark flow: without confirm_attendance it
// returns a preview, with it the commit result.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, _ := auth.CurrentClaims(c)

	u, err := h.users.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	if u.MatricNumber == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students can mark attendance"})
		return
	}

	confirm := req.Confirm != nil && *req.Confirm
	preview, result, err := h.marker.Mark(c.Request.Context(), req.Token, attendance.Student{
		ID:           u.ID,
		Name:         u.Name,
		MatricNumber: u.MatricNumber,
	}, confirm)
	if err != nil {
		metrics.Marks.WithLabelValues(markOutcome(err)).Inc()
		respondErr(c, err)
		return
	}

	if preview != nil {
		metrics.Marks.WithLabelValues("preview").Inc()
		c.JSON(http.StatusOK, gin.H{
			"confirmation_required": true,
			"preview":               preview,
		})
		return
	}
	metrics.Marks.WithLabelValues("committed").Inc()
	c.JSON(http.StatusOK, gin.H{
		"message": "attendance marked",
		"record":  result.Record,
	})
}

// SessionReport returns the per-student rows and summary for one session.
func (h *Handler) SessionReport(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	report, err := h.registry.Report(c.Request.Context(), c.Param("sessionId"), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report": report.Records,
		"session_data": gin.H{
			"session_id":      report.SessionID,
			"course_code":     report.CourseCode,
			"course_title":    report.CourseTitle,
			"present_count":   report.PresentCount,
			"total_students":  report.TotalStudents,
			"attendance_rate": report.AttendanceRate,
		},
	})
}

// Trend returns per-session attendance statistics, oldest first.
func (h *Handler) Trend(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	points, err := h.registry.Trend(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trend": points})
}

// ListSessions returns the lecturer's session summaries, newest first.
func (h *Handler) ListSessions(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	sessions, err := h.registry.ListByLecturer(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	if sessions == nil {
		sessions = []attendance.LectureSession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func markOutcome(err error) string {
	switch {
	case errors.Is(err, attendance.ErrDuplicateAttendance):
		return "duplicate"
	case errors.Is(err, token.ErrExpiredToken):
		return "expired"
	case errors.Is(err, token.ErrInvalidToken):
		return "invalid"
	case errors.Is(err, attendance.ErrSessionClosed):
		return "closed"
	default:
		return "error"
	}
}
