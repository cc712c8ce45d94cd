package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"qrollcall/internal/attendance"
	"qrollcall/internal/cloudinary"
	"qrollcall/internal/queue"
	"qrollcall/internal/token"
	"qrollcall/internal/user"
)

const cookieName = "qrollcall_token"

// Handler carries the wired services behind the HTTP surface.
type Handler struct {
	users    *user.Service
	registry *attendance.Service
	marker   *attendance.Marker
	codec    *token.Codec
	cloud    *cloudinary.Client // nil when Cloudinary is not configured
	mailQ    queue.Queue

	jwtIssuer string
	jwtKey    string
	loginTTL  time.Duration
}

// New creates a handler.
func New(users *user.Service, registry *attendance.Service, marker *attendance.Marker, codec *token.Codec, cloud *cloudinary.Client, mailQ queue.Queue, jwtIssuer, jwtKey string, loginTTL time.Duration) *Handler {
	return &Handler{
		users:     users,
		registry:  registry,
		marker:    marker,
		codec:     codec,
		cloud:     cloud,
		mailQ:     mailQ,
		jwtIssuer: jwtIssuer,
		jwtKey:    jwtKey,
		loginTTL:  loginTTL,
	}
}

// respondErr maps the domain error taxonomy onto HTTP statuses.
func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrExpiredToken),
		errors.Is(err, attendance.ErrDuplicateAttendance),
		errors.Is(err, attendance.ErrSessionClosed),
		errors.Is(err, user.ErrBadVerifyCode):
		status = http.StatusBadRequest
	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrNotVerified):
		status = http.StatusUnauthorized
	case errors.Is(err, attendance.ErrForbidden),
		errors.Is(err, user.ErrAccountLocked):
		status = http.StatusForbidden
	case errors.Is(err, attendance.ErrSessionNotFound),
		errors.Is(err, user.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrMatricTaken):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
