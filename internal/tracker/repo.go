package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists subjects and schedules. Every query is scoped by the
// owner's user id; there is no cross-user read path.
type Repository interface {
	ListSubjects(ctx context.Context, userID string) ([]Subject, error)
	CreateSubject(ctx context.Context, s Subject) (Subject, error)
	GetSubject(ctx context.Context, userID, id string) (*Subject, error)
	DeleteSubject(ctx context.Context, userID, id string) error
	UpdateSubjectCounts(ctx context.Context, userID, id string, totalClass, totalPresent int) error
	GetSchedule(ctx context.Context, userID string) (*Schedule, error)
	SaveSchedule(ctx context.Context, userID string, entries []Entry) (Schedule, error)
}

// PostgresRepository persists tracker data in Postgres. Schedule entries are
// stored as a jsonb document, read and replaced whole.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListSubjects returns all subjects owned by userID.
func (r *PostgresRepository) ListSubjects(ctx context.Context, userID string) ([]Subject, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, total_class, total_present, created_at
		FROM subjects
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.TotalClass, &s.TotalPresent, &s.CreatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// CreateSubject inserts a subject row.
func (r *PostgresRepository) CreateSubject(ctx context.Context, s Subject) (Subject, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subjects (id, user_id, name, total_class, total_present, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.UserID, s.Name, s.TotalClass, s.TotalPresent, s.CreatedAt)
	if err != nil {
		return Subject{}, err
	}
	return s, nil
}

// GetSubject returns one owned subject, or nil when absent or other-owned.
func (r *PostgresRepository) GetSubject(ctx context.Context, userID, id string) (*Subject, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, total_class, total_present, created_at
		FROM subjects
		WHERE user_id = $1 AND id = $2
	`, userID, id)
	var s Subject
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.TotalClass, &s.TotalPresent, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// DeleteSubject removes an owned subject; ErrNotFound when nothing matched.
func (r *PostgresRepository) DeleteSubject(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM subjects WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSubjectCounts overwrites the cumulative counters of an owned subject.
func (r *PostgresRepository) UpdateSubjectCounts(ctx context.Context, userID, id string, totalClass, totalPresent int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subjects SET total_class = $3, total_present = $4
		WHERE user_id = $1 AND id = $2
	`, userID, id, totalClass, totalPresent)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSchedule returns the user's schedule, or nil when none was saved yet.
func (r *PostgresRepository) GetSchedule(ctx context.Context, userID string) (*Schedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, entries, created_at, updated_at
		FROM schedules WHERE user_id = $1
	`, userID)
	var sched Schedule
	var raw []byte
	if err := row.Scan(&sched.ID, &sched.UserID, &raw, &sched.CreatedAt, &sched.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &sched.Entries); err != nil {
		return nil, err
	}
	return &sched, nil
}

// SaveSchedule creates the user's schedule or replaces its entry list in a
// single upsert: put semantics, never append.
func (r *PostgresRepository) SaveSchedule(ctx context.Context, userID string, entries []Entry) (Schedule, error) {
	if entries == nil {
		entries = []Entry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return Schedule{}, err
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO schedules (id, user_id, entries)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			entries = EXCLUDED.entries,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, uuid.NewString(), userID, raw)
	sched := Schedule{UserID: userID, Entries: entries}
	if err := row.Scan(&sched.ID, &sched.CreatedAt, &sched.UpdatedAt); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}
