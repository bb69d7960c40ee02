package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/princekumarofficial/course-admin-service/internal/config"
	"github.com/princekumarofficial/course-admin-service/internal/storage"
	"github.com/princekumarofficial/course-admin-service/internal/types"
)

const uniqueViolation = "23505"

type Postgres struct {
	Db *sql.DB
}

var _ storage.Storage = (*Postgres)(nil)

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.PGSQL.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Connected to Postgres database", slog.String("host", cfg.PGSQL.Host), slog.String("dbname", cfg.PGSQL.DBName))

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

// CreateTables creates the service's own tables. courses and users belong to
// the wider platform; they are only created here so counters work on a fresh
// database.
func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			role VARCHAR(50) NOT NULL DEFAULT 'student',
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS upload_sessions (
			id TEXT PRIMARY KEY,
			remote_video_id TEXT,
			declared_size_bytes BIGINT NOT NULL CHECK (declared_size_bytes > 0),
			bytes_confirmed BIGINT NOT NULL DEFAULT 0,
			upload_endpoint TEXT NOT NULL,
			name TEXT NOT NULL,
			privacy VARCHAR(32) NOT NULL,
			state VARCHAR(32) NOT NULL CHECK (state IN ('created','in_progress','completed','cancelled','failed')),
			failure_reason TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			last_progress_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL,
			version BIGINT NOT NULL DEFAULT 1
		);
		`,
		`ALTER TABLE upload_sessions ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 1;`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_upload_sessions_remote_video_id ON upload_sessions(remote_video_id);`,
		`CREATE INDEX IF NOT EXISTS idx_upload_sessions_state_updated ON upload_sessions(state, updated_at);`,
		`
		CREATE TABLE IF NOT EXISTS lessons (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			course_id TEXT NOT NULL,
			orderindex INTEGER NOT NULL,
			video_url TEXT NOT NULL DEFAULT '',
			vimeo_id TEXT NOT NULL DEFAULT '',
			video_type VARCHAR(32) NOT NULL DEFAULT 'vimeo',
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (course_id, orderindex)
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// SaveSession inserts version 1 of a session and afterwards only updates a
// row still at the previous version. remote_video_id is only written while
// empty.
func (p *Postgres) SaveSession(ctx context.Context, s types.UploadSession) error {
	if s.Version == 1 {
		return p.insertSession(ctx, s)
	}

	query := `
	UPDATE upload_sessions SET
		remote_video_id = COALESCE(remote_video_id, NULLIF($2, '')),
		bytes_confirmed = $3,
		state = $4,
		failure_reason = $5,
		last_progress_at = $6,
		updated_at = $7,
		version = $8
	WHERE id = $1 AND version = $9
	`

	res, err := p.Db.ExecContext(ctx, query,
		s.ID, s.RemoteVideoID, s.BytesConfirmed, string(s.State), s.FailureReason,
		s.LastProgressAt, s.UpdatedAt, s.Version, s.Version-1)
	if err != nil {
		return fmt.Errorf("failed to save upload session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save upload session: %w", err)
	}
	if n == 0 {
		return storage.ErrStaleSession
	}
	return nil
}

func (p *Postgres) insertSession(ctx context.Context, s types.UploadSession) error {
	query := `
	INSERT INTO upload_sessions (id, remote_video_id, declared_size_bytes, bytes_confirmed, upload_endpoint,
		name, privacy, state, failure_reason, created_by, created_at, last_progress_at, updated_at, version)
	VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
	`

	_, err := p.Db.ExecContext(ctx, query,
		s.ID, s.RemoteVideoID, s.DeclaredSizeBytes, s.BytesConfirmed, s.UploadEndpoint,
		s.Name, string(s.Privacy), string(s.State), s.FailureReason, s.CreatedBy,
		s.CreatedAt, s.LastProgressAt, s.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == "upload_sessions_pkey" {
			return storage.ErrStaleSession
		}
		return fmt.Errorf("failed to save upload session: %w", err)
	}
	return nil
}

const sessionColumns = `id, COALESCE(remote_video_id, ''), declared_size_bytes, bytes_confirmed, upload_endpoint,
	name, privacy, state, failure_reason, created_by, created_at, last_progress_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (types.UploadSession, error) {
	var (
		s              types.UploadSession
		privacy, state string
		lastProgressAt sql.NullTime
	)

	err := row.Scan(&s.ID, &s.RemoteVideoID, &s.DeclaredSizeBytes, &s.BytesConfirmed, &s.UploadEndpoint,
		&s.Name, &privacy, &state, &s.FailureReason, &s.CreatedBy, &s.CreatedAt, &lastProgressAt, &s.UpdatedAt, &s.Version)
	if err != nil {
		return s, err
	}

	s.Privacy = types.Privacy(privacy)
	s.State = types.SessionState(state)
	if lastProgressAt.Valid {
		t := lastProgressAt.Time
		s.LastProgressAt = &t
	}
	return s, nil
}

func (p *Postgres) LoadSession(ctx context.Context, sessionID string) (types.UploadSession, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM upload_sessions WHERE id = $1`, sessionID)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, storage.ErrNotFound
	}
	return s, err
}

func (p *Postgres) FindSessionByVideoID(ctx context.Context, videoID string) (types.UploadSession, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM upload_sessions WHERE remote_video_id = $1`, videoID)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, storage.ErrNotFound
	}
	return s, err
}

func (p *Postgres) ListStaleSessions(ctx context.Context, before time.Time) ([]types.UploadSession, error) {
	rows, err := p.Db.QueryContext(ctx, `
	SELECT `+sessionColumns+`
	FROM upload_sessions
	WHERE state IN ('created', 'in_progress') AND updated_at < $1
	ORDER BY updated_at
	`, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale sessions: %w", err)
	}
	defer rows.Close()

	var sessions []types.UploadSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (p *Postgres) SaveLessonRecord(ctx context.Context, l types.LessonRecord) error {
	query := `
	INSERT INTO lessons (id, title, description, course_id, orderindex, video_url, vimeo_id, video_type, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := p.Db.ExecContext(ctx, query, l.ID, l.Title, l.Description, l.CourseID, l.OrderIndex,
		l.Video.URL, l.Video.ID, l.Video.Type, l.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint != "lessons_pkey" {
			return storage.ErrOrderIndexTaken
		}
		return fmt.Errorf("failed to insert lesson: %w", err)
	}
	return nil
}

func (p *Postgres) ListLessons(ctx context.Context, courseID string) ([]types.LessonRecord, error) {
	rows, err := p.Db.QueryContext(ctx, `
	SELECT id, title, description, course_id, orderindex, video_url, vimeo_id, video_type, created_at
	FROM lessons
	WHERE course_id = $1
	ORDER BY orderindex
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := []types.LessonRecord{}
	for rows.Next() {
		var l types.LessonRecord
		err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.CourseID, &l.OrderIndex,
			&l.Video.URL, &l.Video.ID, &l.Video.Type, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

var countQueries = map[storage.Predicate]string{
	storage.CountCourses:          `SELECT COUNT(*) FROM courses`,
	storage.CountStudents:         `SELECT COUNT(*) FROM users WHERE role = 'student'`,
	storage.CountVideos:           `SELECT COUNT(*) FROM lessons WHERE video_url <> ''`,
	storage.CountActiveUploads:    `SELECT COUNT(*) FROM upload_sessions WHERE state IN ('created', 'in_progress')`,
	storage.CountCompletedUploads: `SELECT COUNT(*) FROM upload_sessions WHERE state = 'completed'`,
}

func (p *Postgres) Count(ctx context.Context, predicate storage.Predicate) (int64, error) {
	query, ok := countQueries[predicate]
	if !ok {
		return 0, storage.ErrNotFound
	}

	var count int64
	if err := p.Db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", predicate, err)
	}
	return count, nil
}
