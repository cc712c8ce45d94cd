package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"qrollcall/internal/auth"
	"qrollcall/internal/mailer"
	"qrollcall/internal/metrics"
	"qrollcall/internal/queue"
	"qrollcall/internal/user"
)

type registerRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	Role         string `json:"role" binding:"required"`
	MatricNumber string `json:"matric_number"`
	Department   string `json:"department"`
}

// Register creates an account and queues the verification mail.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, code, err := h.users.Register(c.Request.Context(), user.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         auth.Role(req.Role),
		MatricNumber: req.MatricNumber,
		Department:   req.Department,
	})
	if err != nil {
		respondErr(c, err)
		return
	}

	h.enqueueMail(c, mailer.Mail{
		To:      u.Email,
		Subject: "Verify your account",
		Body:    fmt.Sprintf("Your verification code is %s", code),
	})

	c.JSON(http.StatusCreated, gin.H{"user": u})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and issues the long-lived bearer token, also set
// as a cookie for browser clients.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		metrics.Logins.WithLabelValues("failure").Inc()
		respondErr(c, err)
		return
	}

	signed, exp, err := auth.Issue(u.ID, u.Role, h.jwtIssuer, h.jwtKey, h.loginTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	metrics.Logins.WithLabelValues("success").Inc()

	c.SetCookie(cookieName, signed, int(h.loginTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":      signed,
		"expires_at": exp.Unix(),
		"user":       u,
	})
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyEmail confirms the emailed code.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// Me returns the logged-in user's record.
func (h *Handler) Me(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	u, err := h.users.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// UpdateProfile applies profile changes; an optional multipart "picture"
// file is pushed to Cloudinary first.
func (h *Handler) UpdateProfile(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)

	var pictureURL string
	if file, header, err := c.Request.FormFile("picture"); err == nil {
		defer file.Close()
		if h.cloud == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		result, err := h.cloud.Upload(bytes.NewReader(data), header.Filename)
		if err != nil {
			log.Printf("cloudinary upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
			return
		}
		pictureURL = result.SecureURL
	}

	u, err := h.users.UpdateProfile(c.Request.Context(), claims.Subject, c.PostForm("name"), c.PostForm("department"), pictureURL)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// DeleteAccount removes the logged-in user's account.
func (h *Handler) DeleteAccount(c *gin.Context) {
	claims, _ := auth.CurrentClaims(c)
	if err := h.users.Delete(c.Request.Context(), claims.Subject); err != nil {
		respondErr(c, err)
		return
	}
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// enqueueMail publishes a mail job; delivery failures only get logged, they
// never fail the request.
func (h *Handler) enqueueMail(c *gin.Context, m mailer.Mail) {
	body, err := json.Marshal(m)
	if err != nil {
		log.Printf("mail marshal failed: %v", err)
		return
	}
	if err := h.mailQ.Publish(c.Request.Context(), queue.Message{Type: "mail", Body: body}); err != nil {
		log.Printf("mail enqueue failed: %v", err)
	}
}
