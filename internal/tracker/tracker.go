package tracker

import (
	"errors"
	"time"
)

// ErrNotFound covers both truly absent records and records owned by someone
// else: the two cases are indistinguishable on purpose.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected input with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// Subject tracks cumulative attendance for one class. UserID is stamped at
// creation from the verified token and never changes.
type Subject struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	TotalClass   int       `json:"totalClass"`
	TotalPresent int       `json:"totalPresent"`
	CreatedAt    time.Time `json:"created_at"`
}

// Percentage returns the attended share in percent. Zero classes is 0, never
// a division by zero.
func (s Subject) Percentage() float64 {
	if s.TotalClass == 0 {
		return 0
	}
	return float64(s.TotalPresent) / float64(s.TotalClass) * 100
}

// Entry is one weekly schedule slot. Subject is hydrated on reads and never
// persisted.
type Entry struct {
	SubjectID string   `json:"subjectId"`
	Subject   *Subject `json:"subject,omitempty"`
	Days      []string `json:"days"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
}

// Schedule is a user's weekly timetable; at most one exists per user. The
// entry list serializes under "subjects" to match the wire format clients
// already speak.
type Schedule struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Entries   []Entry   `json:"subjects"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
