package user

import (
	"context"
	"log"

	"github.com/5HA5HWAT/Att-Tracker/internal/metrics"
)

// Service implements signup and signin against a user repository.
type Service struct {
	repo Repository
	cost int
}

// NewService creates a service. cost is the bcrypt cost used for new and
// migrated credentials.
func NewService(repo Repository, cost int) *Service {
	return &Service{repo: repo, cost: cost}
}

// Register creates a new user with a hashed credential. The raw password is
// never persisted. Fails with ErrDuplicateEmail when the address is taken.
func (s *Service) Register(ctx context.Context, username, email, rawPassword string) error {
	email = NormalizeEmail(email)
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateEmail
	}
	cred, err := HashCredential(rawPassword, s.cost)
	if err != nil {
		return err
	}
	_, err = s.repo.Create(ctx, User{
		Username:   username,
		Email:      email,
		Credential: cred,
	})
	return err
}

// Authenticate verifies credentials and returns the matched user. Absent
// email and wrong password collapse to the same ErrInvalidCredentials so the
// response never reveals which field was wrong.
//
// Legacy plaintext rows that match are re-hashed and persisted before the
// call returns: the upgrade happens lazily, exactly once, and only on a
// successful interactive signin.
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return User{}, err
	}
	if u == nil || !u.Credential.Matches(rawPassword) {
		return User{}, ErrInvalidCredentials
	}

	if !u.Credential.Hashed() {
		cred, err := HashCredential(rawPassword, s.cost)
		if err != nil {
			return User{}, err
		}
		if err := s.repo.UpdateCredential(ctx, u.ID, cred); err != nil {
			return User{}, err
		}
		u.Credential = cred
		metrics.CredentialMigrations.Inc()
		log.Printf("migrated legacy plaintext credential for user %s", u.ID)
	}

	return *u, nil
}

// Get returns a user by id, ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, ErrNotFound
	}
	return *u, nil
}
