package store

import (
	"context"
	"fmt"
	"time"

	"github.com/taskdock/taskdock/internal/types"
)

// TaskStore maps Task entities to and from rows in the tasks table.
//
// The store never computes timestamps; it persists and returns exactly what
// the service supplies. Absent description/deadline values are written as
// true SQL NULL (via NULLIF on the empty string) and read back as absent,
// so round-trips are lossless.
type TaskStore struct {
	conn *Conn
}

// NewTaskStore creates a task store over the shared connection.
func NewTaskStore(conn *Conn) *TaskStore {
	return &TaskStore{conn: conn}
}

const taskColumns = `id, title, description, status, deadline, priority, created_at, updated_at`

// GetAll returns every task, most-recently-touched first.
func (s *TaskStore) GetAll(ctx context.Context) ([]*types.Task, error) {
	rows, err := s.conn.QueryAll(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	return scanTaskRows(rows)
}

// GetByStatus returns the tasks with the given status, same ordering as GetAll.
func (s *TaskStore) GetByStatus(ctx context.Context, status types.Status) ([]*types.Task, error) {
	rows, err := s.conn.QueryAll(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY updated_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	return scanTaskRows(rows)
}

// GetByID returns the task with the given id, or nil if absent.
func (s *TaskStore) GetByID(ctx context.Context, id string) (*types.Task, error) {
	row, err := s.conn.QueryOne(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query task %s: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return scanTaskRow(row)
}

// Create inserts one task row. A duplicate id surfaces as a primary-key
// constraint error from the store.
func (s *TaskStore) Create(ctx context.Context, task *types.Task) error {
	err := s.conn.Execute(ctx,
		`INSERT INTO tasks (
			id, title, description, status, deadline, priority, created_at, updated_at
		) VALUES (?, ?, NULLIF(?, ''), ?, NULLIF(?, ''), ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		deadlineValue(task.Deadline),
		string(task.Priority),
		task.CreatedAt.UTC().Format(types.TimeFormat),
		task.UpdatedAt.UTC().Format(types.TimeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	return nil
}

// Update rewrites the full row keyed by id. Updating a missing id affects
// zero rows and is not an error; callers must not assume existence.
func (s *TaskStore) Update(ctx context.Context, task *types.Task) error {
	err := s.conn.Execute(ctx,
		`UPDATE tasks
		SET title = ?,
			description = NULLIF(?, ''),
			status = ?,
			deadline = NULLIF(?, ''),
			priority = ?,
			updated_at = ?
		WHERE id = ?`,
		task.Title,
		task.Description,
		string(task.Status),
		deadlineValue(task.Deadline),
		string(task.Priority),
		task.UpdatedAt.UTC().Format(types.TimeFormat),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}
	return nil
}

// Delete removes the task with the given id. Deleting a missing id is a no-op.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if err := s.conn.Execute(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	return nil
}

// deadlineValue renders an optional deadline for the NULLIF(?, '') transform.
func deadlineValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(types.TimeFormat)
}

func scanTaskRows(rows []Row) ([]*types.Task, error) {
	tasks := make([]*types.Task, 0, len(rows))
	for _, row := range rows {
		task, err := scanTaskRow(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func scanTaskRow(row Row) (*types.Task, error) {
	task := &types.Task{
		ID:          row.String("id"),
		Title:       row.String("title"),
		Description: row.String("description"),
		Status:      types.Status(row.String("status")),
		Priority:    types.Priority(row.String("priority")),
	}

	createdAt, err := row.Time("created_at")
	if err != nil {
		return nil, err
	}
	task.CreatedAt = createdAt

	updatedAt, err := row.Time("updated_at")
	if err != nil {
		return nil, err
	}
	task.UpdatedAt = updatedAt

	if s, ok := row.NullString("deadline"); ok && s != "" {
		deadline, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse deadline %q: %w", s, err)
		}
		task.Deadline = &deadline
	}

	return task, nil
}
