package user

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository is a map-backed repository for dev and testing.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewInMemoryRepository creates an empty in-memory repo.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]User)}
}

// Create stores a new user.
func (r *InMemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	r.users[u.ID] = u
	return u, nil
}

// GetByEmail returns the user matching a normalized email, or nil.
func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

// GetByID returns the user with the given id, or nil.
func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

// UpdateCredential overwrites the stored secret.
func (r *InMemoryRepository) UpdateCredential(_ context.Context, id string, cred Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Credential = cred
	r.users[id] = u
	return nil
}
