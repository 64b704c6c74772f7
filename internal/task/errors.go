package task

import "errors"

var (
	// ErrEmptyTitle is returned when a title is empty after trimming.
	ErrEmptyTitle = errors.New("title must not be empty")
	// ErrEmptyID is returned when an id is empty after trimming.
	ErrEmptyID = errors.New("id must not be empty")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidPriority is returned for a priority outside the known set.
	ErrInvalidPriority = errors.New("invalid priority")
)
