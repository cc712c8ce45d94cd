package user

import (
	"context"
	"database/sql"
	"errors"
)

// Repository persists user records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, name, email, password_hash, role, COALESCE(matric_number, ''), department, profile_picture, is_verified, verify_code, login_attempts, lock_until, created_at`

// Create inserts a new user, failing on taken email or matric number.
func (r *Repository) Create(ctx context.Context, u *User) error {
	var taken bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, u.Email).Scan(&taken); err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	if u.MatricNumber != "" {
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE matric_number = $1)`, u.MatricNumber).Scan(&taken); err != nil {
			return err
		}
		if taken {
			return ErrMatricTaken
		}
	}

	// NULL rather than '' keeps the unique index sparse: only students carry
	// a matric number.
	var matric any
	if u.MatricNumber != "" {
		matric = u.MatricNumber
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, matric_number, department, profile_picture, is_verified, verify_code, login_attempts, lock_until, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (email) DO NOTHING
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, matric, u.Department, u.ProfilePicture, u.IsVerified, u.VerifyCode, u.LoginAttempts, u.LockUntil, u.CreatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmailTaken
	}
	return nil
}

// GetByID returns a user by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// Update rewrites the mutable columns.
func (r *Repository) Update(ctx context.Context, u *User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = $2, department = $3, profile_picture = $4, password_hash = $5,
		    is_verified = $6, verify_code = $7, login_attempts = $8, lock_until = $9
		WHERE id = $1
	`, u.ID, u.Name, u.Department, u.ProfilePicture, u.PasswordHash, u.IsVerified, u.VerifyCode, u.LoginAttempts, u.LockUntil)
	if err != nil {
		return err
	}
	return checkFound(res)
}

// Delete removes the account.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkFound(res)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.MatricNumber, &u.Department, &u.ProfilePicture, &u.IsVerified, &u.VerifyCode, &u.LoginAttempts, &u.LockUntil, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
