package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"coursebot/internal/course/models"
	"coursebot/pkg/platform/sentinel"
)

// Postgres persists course records in PostgreSQL. Uniqueness of the course
// number and the three external handles is enforced by unique indexes, which
// makes the database the final arbiter against double-provisioning.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id BIGSERIAL PRIMARY KEY,
		course_number TEXT NOT NULL,
		message_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		role_id TEXT NOT NULL,
		name TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_course_number ON courses(course_number)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_message_id ON courses(message_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_channel_id ON courses(channel_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_role_id ON courses(role_id)`,
}

// EnsureSchema creates the courses table and its unique indexes if absent.
// Safe to run on every startup.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Postgres) Insert(ctx context.Context, record *models.CourseRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	number := models.NormalizeNumber(record.Number)

	query := `
		INSERT INTO courses (course_number, message_id, channel_id, role_id, name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, query,
		number, record.MessageID, record.ChannelID, record.RoleID, record.Name,
	).Scan(&record.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert course %q: %w", number, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert course %q: %w", number, err)
	}
	record.Number = number
	return nil
}

func (s *Postgres) FindByNumber(ctx context.Context, number string) (*models.CourseRecord, error) {
	query := `
		SELECT id, course_number, message_id, channel_id, role_id, name
		FROM courses
		WHERE course_number = $1
	`
	return s.queryOne(ctx, query, models.NormalizeNumber(number))
}

func (s *Postgres) FindByExternalID(ctx context.Context, kind models.LookupKind, id string) (*models.CourseRecord, error) {
	var query string
	switch kind {
	case models.LookupMessage:
		query = `SELECT id, course_number, message_id, channel_id, role_id, name FROM courses WHERE message_id = $1`
	case models.LookupChannel:
		query = `SELECT id, course_number, message_id, channel_id, role_id, name FROM courses WHERE channel_id = $1`
	case models.LookupRole:
		query = `SELECT id, course_number, message_id, channel_id, role_id, name FROM courses WHERE role_id = $1`
	default:
		return nil, fmt.Errorf("lookup kind %q: %w", kind, sentinel.ErrInvalidState)
	}
	return s.queryOne(ctx, query, id)
}

func (s *Postgres) ListAll(ctx context.Context) ([]*models.CourseRecord, error) {
	query := `
		SELECT id, course_number, message_id, channel_id, role_id, name
		FROM courses
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []*models.CourseRecord
	for rows.Next() {
		var r models.CourseRecord
		if err := rows.Scan(&r.ID, &r.Number, &r.MessageID, &r.ChannelID, &r.RoleID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

func (s *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return fmt.Errorf("delete all courses: %w", err)
	}
	return nil
}

func (s *Postgres) queryOne(ctx context.Context, query string, arg string) (*models.CourseRecord, error) {
	var r models.CourseRecord
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&r.ID, &r.Number, &r.MessageID, &r.ChannelID, &r.RoleID, &r.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
