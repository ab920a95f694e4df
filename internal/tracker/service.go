package tracker

import (
	"context"
	"fmt"
	"strings"
)

// Service coordinates subject and schedule operations. Every method takes
// the verified owner id explicitly; nothing is derived from ambient state.
type Service struct {
	repo Repository
}

// NewService creates a service backed by a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subjects lists the caller's subjects.
func (s *Service) Subjects(ctx context.Context, userID string) ([]Subject, error) {
	return s.repo.ListSubjects(ctx, userID)
}

// CreateSubject creates a subject owned by userID with zeroed counters. Any
// client-supplied owner or counter values are ignored.
func (s *Service) CreateSubject(ctx context.Context, userID, name string) (Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Subject{}, invalid("name", "Subject name is required")
	}
	return s.repo.CreateSubject(ctx, Subject{
		UserID: userID,
		Name:   name,
	})
}

// DeleteSubject removes an owned subject.
func (s *Service) DeleteSubject(ctx context.Context, userID, id string) error {
	return s.repo.DeleteSubject(ctx, userID, id)
}

// RecordAttendance bumps the cumulative counters of an owned subject: one
// more class held, one more attended when present. The present count can
// never exceed the class count.
func (s *Service) RecordAttendance(ctx context.Context, userID, id string, present bool) (Subject, error) {
	subj, err := s.repo.GetSubject(ctx, userID, id)
	if err != nil {
		return Subject{}, err
	}
	if subj == nil {
		return Subject{}, ErrNotFound
	}
	subj.TotalClass++
	if present {
		subj.TotalPresent++
	}
	if subj.TotalPresent > subj.TotalClass {
		subj.TotalPresent = subj.TotalClass
	}
	if err := s.repo.UpdateSubjectCounts(ctx, userID, id, subj.TotalClass, subj.TotalPresent); err != nil {
		return Subject{}, err
	}
	return *subj, nil
}

// Schedule returns the caller's schedule with each entry's subject hydrated,
// or nil when none was saved yet.
func (s *Service) Schedule(ctx context.Context, userID string) (*Schedule, error) {
	sched, err := s.repo.GetSchedule(ctx, userID)
	if err != nil || sched == nil {
		return sched, err
	}
	if err := s.hydrate(ctx, userID, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

// SaveSchedule validates and stores the caller's weekly schedule, replacing
// any previous entry list. Every referenced subject must exist and belong to
// the caller; a foreign or unknown subject id rejects the whole save.
func (s *Service) SaveSchedule(ctx context.Context, userID string, entries []Entry) (Schedule, error) {
	owned, err := s.repo.ListSubjects(ctx, userID)
	if err != nil {
		return Schedule{}, err
	}
	byID := make(map[string]Subject, len(owned))
	for _, subj := range owned {
		byID[subj.ID] = subj
	}

	for i := range entries {
		e := &entries[i]
		e.Subject = nil // hydrated on reads, never stored
		if e.SubjectID == "" {
			return Schedule{}, invalid("subjects", fmt.Sprintf("entry %d: subjectId is required", i))
		}
		if _, ok := byID[e.SubjectID]; !ok {
			return Schedule{}, invalid("subjects", fmt.Sprintf("entry %d: subject %s does not belong to you", i, e.SubjectID))
		}
		if e.Days == nil {
			e.Days = []string{}
		}
	}

	sched, err := s.repo.SaveSchedule(ctx, userID, entries)
	if err != nil {
		return Schedule{}, err
	}
	for i := range sched.Entries {
		if subj, ok := byID[sched.Entries[i].SubjectID]; ok {
			subj := subj
			sched.Entries[i].Subject = &subj
		}
	}
	return sched, nil
}

func (s *Service) hydrate(ctx context.Context, userID string, sched *Schedule) error {
	owned, err := s.repo.ListSubjects(ctx, userID)
	if err != nil {
		return err
	}
	byID := make(map[string]Subject, len(owned))
	for _, subj := range owned {
		byID[subj.ID] = subj
	}
	for i := range sched.Entries {
		if subj, ok := byID[sched.Entries[i].SubjectID]; ok {
			subj := subj
			sched.Entries[i].Subject = &subj
		}
	}
	return nil
}
