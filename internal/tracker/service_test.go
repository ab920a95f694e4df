package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService(NewInMemoryRepository())
}

func TestCreateSubject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	subj, err := svc.CreateSubject(ctx, "user-a", "  Math  ")
	require.NoError(t, err)
	assert.Equal(t, "Math", subj.Name)
	assert.Equal(t, "user-a", subj.UserID)
	assert.Equal(t, 0, subj.TotalClass)
	assert.Equal(t, 0, subj.TotalPresent)
}

func TestCreateSubjectEmptyName(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.CreateSubject(ctx, "user-a", "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestSubjectsScopedByOwner(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.CreateSubject(ctx, "user-a", "Math")
	require.NoError(t, err)
	subjB, err := svc.CreateSubject(ctx, "user-b", "Physics")
	require.NoError(t, err)

	subjectsA, err := svc.Subjects(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, subjectsA, 1)
	assert.Equal(t, "Math", subjectsA[0].Name)

	// A cannot touch B's subject through any write path either.
	assert.ErrorIs(t, svc.DeleteSubject(ctx, "user-a", subjB.ID), ErrNotFound)
	_, err = svc.RecordAttendance(ctx, "user-a", subjB.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSubject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	subj, err := svc.CreateSubject(ctx, "user-a", "Math")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSubject(ctx, "user-a", subj.ID))
	assert.ErrorIs(t, svc.DeleteSubject(ctx, "user-a", subj.ID), ErrNotFound)
}

func TestRecordAttendance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	subj, err := svc.CreateSubject(ctx, "user-a", "Math")
	require.NoError(t, err)

	got, err := svc.RecordAttendance(ctx, "user-a", subj.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalClass)
	assert.Equal(t, 1, got.TotalPresent)

	got, err = svc.RecordAttendance(ctx, "user-a", subj.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalClass)
	assert.Equal(t, 1, got.TotalPresent)
	assert.LessOrEqual(t, got.TotalPresent, got.TotalClass)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		want    float64
	}{
		{name: "zero classes is zero, not NaN", subject: Subject{}, want: 0},
		{name: "three of four", subject: Subject{TotalClass: 4, TotalPresent: 3}, want: 75},
		{name: "full attendance", subject: Subject{TotalClass: 5, TotalPresent: 5}, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.subject.Percentage())
		})
	}
}

func TestSaveScheduleReplaces(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	math, err := svc.CreateSubject(ctx, "user-a", "Math")
	require.NoError(t, err)
	physics, err := svc.CreateSubject(ctx, "user-a", "Physics")
	require.NoError(t, err)

	first, err := svc.SaveSchedule(ctx, "user-a", []Entry{
		{SubjectID: math.ID, Days: []string{"Monday", "Wednesday"}, StartTime: "09:00", EndTime: "10:00"},
		{SubjectID: physics.ID, Days: []string{"Tuesday"}, StartTime: "11:00", EndTime: "12:00"},
	})
	require.NoError(t, err)
	assert.Len(t, first.Entries, 2)

	second, err := svc.SaveSchedule(ctx, "user-a", []Entry{
		{SubjectID: physics.ID, Days: []string{"Friday"}, StartTime: "14:00", EndTime: "15:00"},
	})
	require.NoError(t, err)
	require.Len(t, second.Entries, 1, "save must replace, not append")
	assert.Equal(t, physics.ID, second.Entries[0].SubjectID)
	assert.Equal(t, first.ID, second.ID, "one schedule per user")

	stored, err := svc.Schedule(ctx, "user-a")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Entries, 1)
	assert.Equal(t, []string{"Friday"}, stored.Entries[0].Days)
}

func TestSaveScheduleRejectsForeignSubject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	foreign, err := svc.CreateSubject(ctx, "user-b", "Chemistry")
	require.NoError(t, err)

	_, err = svc.SaveSchedule(ctx, "user-a", []Entry{
		{SubjectID: foreign.ID, Days: []string{"Monday"}, StartTime: "09:00", EndTime: "10:00"},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "subjects", verr.Field)

	// Nothing was written.
	sched, err := svc.Schedule(ctx, "user-a")
	require.NoError(t, err)
	assert.Nil(t, sched)
}

func TestSaveScheduleRejectsMissingSubjectID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.SaveSchedule(ctx, "user-a", []Entry{
		{Days: []string{"Monday"}, StartTime: "09:00", EndTime: "10:00"},
	})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestScheduleHydratesSubjects(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	math, err := svc.CreateSubject(ctx, "user-a", "Math")
	require.NoError(t, err)

	_, err = svc.SaveSchedule(ctx, "user-a", []Entry{
		{SubjectID: math.ID, Days: []string{"Monday"}, StartTime: "09:00", EndTime: "10:00"},
	})
	require.NoError(t, err)

	sched, err := svc.Schedule(ctx, "user-a")
	require.NoError(t, err)
	require.NotNil(t, sched)
	require.Len(t, sched.Entries, 1)
	require.NotNil(t, sched.Entries[0].Subject)
	assert.Equal(t, "Math", sched.Entries[0].Subject.Name)
}

func TestScheduleNoneSaved(t *testing.T) {
	sched, err := newTestService().Schedule(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Nil(t, sched)
}
