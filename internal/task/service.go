// Package task provides the task service: validation, trimming,
// timestamping, id generation, and the outbox dual-write after every
// successful mutation.
package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskdock/taskdock/internal/types"
)

// Repository is the persistence contract the service depends on.
type Repository interface {
	GetAll(ctx context.Context) ([]*types.Task, error)
	GetByStatus(ctx context.Context, status types.Status) ([]*types.Task, error)
	GetByID(ctx context.Context, id string) (*types.Task, error)
	Create(ctx context.Context, task *types.Task) error
	Update(ctx context.Context, task *types.Task) error
	Delete(ctx context.Context, id string) error
}

// Outbox records intended remote effects of local mutations.
type Outbox interface {
	Enqueue(ctx context.Context, params types.SyncEnqueue) error
}

// Service enforces task invariants and writes one outbox record per
// successful mutation. The task write and the enqueue are two sequential
// statements, not one transaction; a crash between them loses the outbox
// entry. Both collaborators are injected at construction.
type Service struct {
	repo   Repository
	outbox Outbox
}

// NewService creates a task service with the given repository and outbox.
func NewService(repo Repository, outbox Outbox) *Service {
	return &Service{repo: repo, outbox: outbox}
}

// CreateInput carries the caller-supplied fields for a new task.
// Zero-value Priority defaults to Medium; Status is always ToDo.
type CreateInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    types.Priority
}

// statusPatch is the minimal payload enqueued for a status-only change.
type statusPatch struct {
	ID     string       `json:"id"`
	Status types.Status `json:"status"`
}

// GetAll returns all tasks, most-recently-touched first.
func (s *Service) GetAll(ctx context.Context) ([]*types.Task, error) {
	return s.repo.GetAll(ctx)
}

// GetByStatus returns the tasks with the given status.
func (s *Service) GetByStatus(ctx context.Context, status types.Status) ([]*types.Task, error) {
	return s.repo.GetByStatus(ctx, status)
}

// GetByID returns the task with the given id, or nil if absent.
func (s *Service) GetByID(ctx context.Context, id string) (*types.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyID
	}
	return s.repo.GetByID(ctx, id)
}

// Create validates the input, builds the task with a fresh id and
// timestamps, persists it, and enqueues a create outbox record carrying
// the full entity.
func (s *Service) Create(ctx context.Context, input CreateInput) (*types.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	priority := input.Priority
	if priority == "" {
		priority = types.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	now := time.Now().UTC()
	created := &types.Task{
		ID:          NewID(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      types.StatusToDo,
		Deadline:    input.Deadline,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.enqueue(ctx, created.ID, types.OpCreate, created); err != nil {
		return nil, err
	}

	return created, nil
}

// Update re-trims the task, stamps updated_at (overwriting whatever the
// caller supplied), persists the full row, and enqueues an update record
// carrying the updated entity.
func (s *Service) Update(ctx context.Context, task *types.Task) (*types.Task, error) {
	if strings.TrimSpace(task.ID) == "" {
		return nil, ErrEmptyID
	}
	title := strings.TrimSpace(task.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !task.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, task.Status)
	}
	if !task.Priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, task.Priority)
	}

	updated := *task
	updated.Title = title
	updated.Description = strings.TrimSpace(task.Description)
	updated.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", updated.ID, err)
	}

	if err := s.enqueue(ctx, updated.ID, types.OpUpdate, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes the task and enqueues a delete record with no payload.
// Deleting a missing id is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	return s.enqueue(ctx, id, types.OpDelete, nil)
}

// SetStatus loads the task, merges the new status, stamps updated_at, and
// enqueues an update record whose payload is the minimal {id, status} pair.
// A missing id returns (nil, nil): nothing is written and nothing enqueued.
func (s *Service) SetStatus(ctx context.Context, id string, status types.Status) (*types.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyID
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	updated := *existing
	updated.Status = status
	updated.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to set status of task %s: %w", id, err)
	}

	if err := s.enqueue(ctx, id, types.OpUpdate, statusPatch{ID: id, Status: status}); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (s *Service) enqueue(ctx context.Context, entityID string, op types.SyncOperation, payload any) error {
	err := s.outbox.Enqueue(ctx, types.SyncEnqueue{
		EntityType: types.EntityTask,
		EntityID:   entityID,
		Operation:  op,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s for %s: %w", op, entityID, err)
	}
	return nil
}
