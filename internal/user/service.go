package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"qrollcall/internal/auth"
)

// Service implements the credential store use-cases: registration, login
// with lockout, email verification and profile maintenance.
type Service struct {
	store       Store
	maxAttempts int
	lockWindow  time.Duration
	now         func() time.Time
}

// NewService creates a service. maxAttempts failures inside a row lock the
// account for lockWindow.
func NewService(store Store, maxAttempts int, lockWindow time.Duration) *Service {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockWindow <= 0 {
		lockWindow = 15 * time.Minute
	}
	return &Service{store: store, maxAttempts: maxAttempts, lockWindow: lockWindow, now: time.Now}
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         auth.Role
	MatricNumber string
	Department   string
}

// Register creates an account and returns the user plus the verification
// code to be mailed out. Students must carry a matric number, lecturers must
// not.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" {
		return nil, "", errors.New("name and email required")
	}
	if len(in.Password) < 8 {
		return nil, "", errors.New("password must be at least 8 characters")
	}
	if !in.Role.Valid() {
		return nil, "", errors.New("role must be student or lecturer")
	}
	if in.Role == auth.RoleStudent && in.MatricNumber == "" {
		return nil, "", errors.New("matric number required for students")
	}
	if in.Role == auth.RoleLecturer && in.MatricNumber != "" {
		return nil, "", errors.New("matric number not allowed for lecturers")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	code, err := verifyCode()
	if err != nil {
		return nil, "", err
	}

	u := &User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		MatricNumber: in.MatricNumber,
		Department:   in.Department,
		VerifyCode:   code,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, "", err
	}
	return u, code, nil
}

// Login checks credentials and maintains the attempt counter: failures
// accumulate, maxAttempts of them open the lockout window, success resets
// everything.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if u.Locked(now) {
		return nil, ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		u.LoginAttempts++
		if u.LoginAttempts >= s.maxAttempts {
			until := now.Add(s.lockWindow)
			u.LockUntil = &until
			u.LoginAttempts = 0
		}
		if err := s.store.Update(ctx, u); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if !u.IsVerified {
		return nil, ErrNotVerified
	}

	if u.LoginAttempts != 0 || u.LockUntil != nil {
		u.LoginAttempts = 0
		u.LockUntil = nil
		if err := s.store.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Verify flips the verification flag when the emailed code matches.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsVerified {
		return nil
	}
	if code == "" || u.VerifyCode != code {
		return ErrBadVerifyCode
	}
	u.IsVerified = true
	u.VerifyCode = ""
	return s.store.Update(ctx, u)
}

// GetByID returns the user record.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateProfile applies the non-empty fields to the user's profile.
func (s *Service) UpdateProfile(ctx context.Context, id, name, department, pictureURL string) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		u.Name = name
	}
	if department != "" {
		u.Department = department
	}
	if pictureURL != "" {
		u.ProfilePicture = pictureURL
	}
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the account.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// verifyCode returns a 6-digit numeric code.
func verifyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
