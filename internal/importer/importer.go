// Package importer turns JSON files dropped into a directory into task
// creates. It supports one-shot imports and a watch mode that picks up
// files as they appear.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/taskdock/taskdock/internal/task"
	"github.com/taskdock/taskdock/internal/types"
)

// Creator is the slice of the task service the importer needs.
type Creator interface {
	Create(ctx context.Context, input task.CreateInput) (*types.Task, error)
}

// Doc is the on-disk import format: one task request per *.json file.
type Doc struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Deadline    string `json:"deadline,omitempty"` // RFC 3339
	Priority    string `json:"priority,omitempty"` // low, medium, high
}

// ImportFile reads one import document, creates the task, and removes the
// file so it is not imported again.
func ImportFile(ctx context.Context, svc Creator, path string) (*types.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file %s: %w", path, err)
	}

	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse import file %s: %w", path, err)
	}

	input := task.CreateInput{
		Title:       doc.Title,
		Description: doc.Description,
		Priority:    types.Priority(doc.Priority),
	}
	if doc.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, doc.Deadline)
		if err != nil {
			return nil, fmt.Errorf("invalid deadline in %s: %w", path, err)
		}
		input.Deadline = &deadline
	}

	created, err := svc.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create task from %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil {
		return created, fmt.Errorf("task %s created but failed to remove %s: %w", created.ID, path, err)
	}
	return created, nil
}

// ImportDir imports every *.json file in dir. Individual file failures are
// collected and do not stop the rest of the import. Returns the number of
// tasks created.
func ImportDir(ctx context.Context, svc Creator, dir string) (int, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, []error{fmt.Errorf("failed to read import directory: %w", err)}
	}

	var created int
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if _, err := ImportFile(ctx, svc, filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		created++
	}
	return created, errs
}
