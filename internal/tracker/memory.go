package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is a map-backed repository for dev and testing.
type InMemoryRepository struct {
	mu        sync.RWMutex
	subjects  map[string]Subject
	schedules map[string]Schedule // keyed by user id
}

// NewInMemoryRepository creates an empty in-memory repo.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		subjects:  make(map[string]Subject),
		schedules: make(map[string]Schedule),
	}
}

// ListSubjects returns all subjects owned by userID.
func (r *InMemoryRepository) ListSubjects(_ context.Context, userID string) ([]Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Subject
	for _, s := range r.subjects {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// CreateSubject stores a subject.
func (r *InMemoryRepository) CreateSubject(_ context.Context, s Subject) (Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.subjects[s.ID] = s
	return s, nil
}

// GetSubject returns one owned subject, or nil.
func (r *InMemoryRepository) GetSubject(_ context.Context, userID, id string) (*Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subjects[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	return &s, nil
}

// DeleteSubject removes an owned subject.
func (r *InMemoryRepository) DeleteSubject(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subjects[id]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	delete(r.subjects, id)
	return nil
}

// UpdateSubjectCounts overwrites the counters of an owned subject.
func (r *InMemoryRepository) UpdateSubjectCounts(_ context.Context, userID, id string, totalClass, totalPresent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subjects[id]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	s.TotalClass = totalClass
	s.TotalPresent = totalPresent
	r.subjects[id] = s
	return nil
}

// GetSchedule returns the user's schedule, or nil.
func (r *InMemoryRepository) GetSchedule(_ context.Context, userID string) (*Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sched, ok := r.schedules[userID]; ok {
		return &sched, nil
	}
	return nil, nil
}

// SaveSchedule creates or replaces the user's schedule.
func (r *InMemoryRepository) SaveSchedule(_ context.Context, userID string, entries []Entry) (Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entries == nil {
		entries = []Entry{}
	}
	now := time.Now().UTC()
	sched, ok := r.schedules[userID]
	if !ok {
		sched = Schedule{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
	}
	sched.Entries = entries
	sched.UpdatedAt = now
	r.schedules[userID] = sched
	return sched, nil
}
