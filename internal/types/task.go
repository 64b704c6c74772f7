// Package types provides the shared data structures for taskdock.
package types

import (
	"fmt"
	"time"
)

// TimeFormat is the canonical timestamp layout persisted to the store.
// Millisecond precision, UTC ("Z") on write.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority represents how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is the primary entity. Description and Deadline are optional:
// an empty Description and a nil Deadline both mean "absent", and the
// store persists them as SQL NULL.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status      Status     `json:"status" yaml:"status"`
	Deadline    *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

// Validate checks if the task has valid field values.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("unknown status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if t.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		return fmt.Errorf("updated_at precedes created_at")
	}
	return nil
}

// Overdue reports whether the task's deadline has passed.
// A task with no deadline is never overdue, and neither is a done task.
func (t *Task) Overdue(now time.Time) bool {
	if t.Deadline == nil || t.Status == StatusDone {
		return false
	}
	return t.Deadline.Before(now)
}
