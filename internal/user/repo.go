package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists users. Get methods return (nil, nil) when no row
// matches so callers can distinguish absence from store failure.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateCredential(ctx context.Context, id string, cred Credential) error
}

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user row.
func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Username, u.Email, u.Credential.Stored(), u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetByEmail returns the user matching a normalized email, or nil.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `
		SELECT id, username, email, password, created_at
		FROM users WHERE email = $1
	`, email)
}

// GetByID returns the user with the given id, or nil.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `
		SELECT id, username, email, password, created_at
		FROM users WHERE id = $1
	`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	var u User
	var stored string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &stored, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Credential = CredentialFromStored(stored)
	return &u, nil
}

// UpdateCredential overwrites the stored secret, used by the one-way
// plaintext-to-hash migration.
func (r *PostgresRepository) UpdateCredential(ctx context.Context, id string, cred Credential) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id, cred.Stored())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
