package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults and ensures the
// schema is in place.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return &DB{Client: db}, err
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{Client: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT UNIQUE NOT NULL,
		password_hash   TEXT NOT NULL,
		role            TEXT NOT NULL,
		matric_number   TEXT UNIQUE,
		department      TEXT NOT NULL DEFAULT '',
		profile_picture TEXT NOT NULL DEFAULT '',
		is_verified     BOOLEAN NOT NULL DEFAULT FALSE,
		verify_code     TEXT NOT NULL DEFAULT '',
		login_attempts  INT NOT NULL DEFAULT 0,
		lock_until      TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS lecture_sessions (
		id             TEXT PRIMARY KEY,
		lecturer_id    TEXT NOT NULL,
		course_code    TEXT NOT NULL,
		course_title   TEXT NOT NULL,
		level          INT NOT NULL,
		total_students INT NOT NULL,
		session_start  TIMESTAMPTZ NOT NULL,
		session_end    TIMESTAMPTZ NOT NULL,
		active         BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id            TEXT PRIMARY KEY,
		session_id    TEXT NOT NULL REFERENCES lecture_sessions(id) ON DELETE CASCADE,
		student_id    TEXT NOT NULL,
		name          TEXT NOT NULL,
		matric_number TEXT NOT NULL,
		course_code   TEXT NOT NULL,
		course_title  TEXT NOT NULL,
		level         INT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'present',
		marked_at     TIMESTAMPTZ NOT NULL,
		UNIQUE (session_id, matric_number)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_lecturer ON lecture_sessions(lecturer_id);
	CREATE INDEX IF NOT EXISTS idx_records_session   ON attendance_records(session_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
