package task

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskdock/taskdock/internal/store"
	"github.com/taskdock/taskdock/internal/types"
)

// newTestService wires a service over a real temporary database so the
// outbox dual-write can be asserted end to end.
func newTestService(t *testing.T) (*Service, *store.TaskStore, *store.QueueStore) {
	t.Helper()
	conn := store.NewConn(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { _ = conn.Close() })
	if err := conn.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	tasks := store.NewTaskStore(conn)
	queue := store.NewQueueStore(conn)
	return NewService(tasks, queue), tasks, queue
}

func pendingItems(t *testing.T, queue *store.QueueStore) []*types.SyncItem {
	t.Helper()
	items, err := queue.GetPending(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetPending() failed: %v", err)
	}
	return items
}

// TestCreate_DefaultsAndOutbox tests trimming, defaults, timestamping and
// the create outbox record.
func TestCreate_DefaultsAndOutbox(t *testing.T) {
	svc, _, queue := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Title:    "  Buy milk  ",
		Priority: types.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if created.Title != "Buy milk" {
		t.Errorf("Title = %q, want 'Buy milk'", created.Title)
	}
	if created.Status != types.StatusToDo {
		t.Errorf("Status = %s, want todo", created.Status)
	}
	if created.Priority != types.PriorityHigh {
		t.Errorf("Priority = %s, want high", created.Priority)
	}
	if created.ID == "" {
		t.Error("ID is empty")
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v", created.CreatedAt, created.UpdatedAt)
	}

	items := pendingItems(t, queue)
	if len(items) != 1 {
		t.Fatalf("got %d outbox records, want 1", len(items))
	}
	item := items[0]
	if item.EntityType != types.EntityTask || item.Operation != types.OpCreate || item.EntityID != created.ID {
		t.Errorf("outbox record = %s/%s/%s, want task/create/%s",
			item.EntityType, item.Operation, item.EntityID, created.ID)
	}

	var payload types.Task
	if err := json.Unmarshal([]byte(item.Payload), &payload); err != nil {
		t.Fatalf("payload is not a task snapshot: %v", err)
	}
	if payload.ID != created.ID || payload.Title != "Buy milk" {
		t.Errorf("payload = %s/%q, want %s/'Buy milk'", payload.ID, payload.Title, created.ID)
	}
}

// TestCreate_DefaultPriority tests the medium fallback.
func TestCreate_DefaultPriority(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), CreateInput{Title: "x"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if created.Priority != types.PriorityMedium {
		t.Errorf("Priority = %s, want medium", created.Priority)
	}
}

// TestCreate_EmptyTitle tests the validation sentinel.
func TestCreate_EmptyTitle(t *testing.T) {
	svc, _, queue := newTestService(t)

	_, err := svc.Create(context.Background(), CreateInput{Title: "   "})
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("err = %v, want ErrEmptyTitle", err)
	}
	if items := pendingItems(t, queue); len(items) != 0 {
		t.Errorf("validation failure enqueued %d record(s)", len(items))
	}
}

// TestCreate_InvalidPriority tests that an out-of-enum priority is
// rejected before anything is written, whatever path supplied it.
func TestCreate_InvalidPriority(t *testing.T) {
	svc, tasks, queue := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Title: "x", Priority: "urgent"})
	if !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("err = %v, want ErrInvalidPriority", err)
	}

	all, err := tasks.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("invalid priority persisted: %d task(s)", len(all))
	}
	if items := pendingItems(t, queue); len(items) != 0 {
		t.Errorf("invalid priority enqueued %d record(s)", len(items))
	}
}

// TestUpdate_TrimsAndRestamps tests that update re-trims fields and
// overwrites the caller-supplied updated_at.
func TestUpdate_TrimsAndRestamps(t *testing.T) {
	svc, tasks, queue := newTestService(t)
	ctx := context.Background()

	stale := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := &types.Task{
		ID:        "t-1",
		Title:     "Original",
		Status:    types.StatusToDo,
		Priority:  types.PriorityMedium,
		CreatedAt: stale,
		UpdatedAt: stale,
	}
	if err := tasks.Create(ctx, seed); err != nil {
		t.Fatalf("seed Create() failed: %v", err)
	}

	seed.Title = "  Alt "
	updated, err := svc.Update(ctx, seed)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Title != "Alt" {
		t.Errorf("Title = %q, want 'Alt'", updated.Title)
	}
	if updated.UpdatedAt.Equal(stale) {
		t.Error("UpdatedAt was not restamped")
	}

	persisted, err := tasks.GetByID(ctx, "t-1")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if persisted.Title != "Alt" {
		t.Errorf("persisted Title = %q, want 'Alt'", persisted.Title)
	}
	if persisted.UpdatedAt.Equal(stale) {
		t.Error("persisted UpdatedAt still the stale value")
	}

	items := pendingItems(t, queue)
	if len(items) != 1 || items[0].Operation != types.OpUpdate {
		t.Fatalf("outbox = %v, want one update record", items)
	}
}

// TestUpdate_Validation tests the id and title sentinels.
func TestUpdate_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, &types.Task{ID: "", Title: "x"})
	if !errors.Is(err, ErrEmptyID) {
		t.Errorf("err = %v, want ErrEmptyID", err)
	}
	_, err = svc.Update(ctx, &types.Task{ID: "t-1", Title: " "})
	if !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("err = %v, want ErrEmptyTitle", err)
	}
	_, err = svc.Update(ctx, &types.Task{ID: "t-1", Title: "x", Status: "paused", Priority: types.PriorityLow})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("err = %v, want ErrInvalidStatus", err)
	}
	_, err = svc.Update(ctx, &types.Task{ID: "t-1", Title: "x", Status: types.StatusToDo, Priority: "critical"})
	if !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("err = %v, want ErrInvalidPriority", err)
	}
}

// TestDelete_EnqueuesWithoutPayload tests the delete outbox record.
func TestDelete_EnqueuesWithoutPayload(t *testing.T) {
	svc, tasks, queue := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Title: "doomed"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if got, _ := tasks.GetByID(ctx, created.ID); got != nil {
		t.Error("task still present after Delete()")
	}

	items := pendingItems(t, queue)
	if len(items) != 2 {
		t.Fatalf("got %d outbox records, want 2 (create + delete)", len(items))
	}
	del := items[1]
	if del.Operation != types.OpDelete || del.EntityID != created.ID {
		t.Errorf("record = %s/%s, want delete/%s", del.Operation, del.EntityID, created.ID)
	}
	if del.Payload != "" {
		t.Errorf("delete payload = %q, want absent", del.Payload)
	}
}

// TestSetStatus tests the merge, restamp and minimal outbox payload.
func TestSetStatus(t *testing.T) {
	svc, tasks, queue := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Title: "work", Description: "keep me"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	updated, err := svc.SetStatus(ctx, created.ID, types.StatusDone)
	if err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}
	if updated == nil {
		t.Fatal("SetStatus() = nil for existing task")
	}
	if updated.Status != types.StatusDone {
		t.Errorf("Status = %s, want done", updated.Status)
	}
	if updated.Description != "keep me" {
		t.Errorf("Description = %q, merge lost fields", updated.Description)
	}

	persisted, err := tasks.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if persisted.Status != types.StatusDone {
		t.Errorf("persisted Status = %s, want done", persisted.Status)
	}

	items := pendingItems(t, queue)
	if len(items) != 2 {
		t.Fatalf("got %d outbox records, want 2", len(items))
	}
	patch := items[1]
	if patch.Operation != types.OpUpdate {
		t.Errorf("Operation = %s, want update", patch.Operation)
	}

	// Status-only changes carry the minimal {id, status} pair, not the
	// full entity.
	var decoded map[string]string
	if err := json.Unmarshal([]byte(patch.Payload), &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded["id"] != created.ID || decoded["status"] != string(types.StatusDone) {
		t.Errorf("payload = %v, want {id, status} only", decoded)
	}
}

// TestSetStatus_InvalidStatus tests that an out-of-enum status is
// rejected before the task is touched.
func TestSetStatus_InvalidStatus(t *testing.T) {
	svc, tasks, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Title: "work"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	_, err = svc.SetStatus(ctx, created.ID, "archived")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}

	persisted, err := tasks.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if persisted.Status != types.StatusToDo {
		t.Errorf("Status = %s, invalid value persisted", persisted.Status)
	}
}

// TestSetStatus_MissingID tests the deliberate silent no-op: no store
// write, no enqueue, explicit nil result.
func TestSetStatus_MissingID(t *testing.T) {
	svc, tasks, queue := newTestService(t)
	ctx := context.Background()

	updated, err := svc.SetStatus(ctx, "missing", types.StatusDone)
	if err != nil {
		t.Fatalf("SetStatus(missing) failed: %v", err)
	}
	if updated != nil {
		t.Fatalf("SetStatus(missing) = %v, want nil", updated)
	}

	all, err := tasks.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("store changed: %d task(s)", len(all))
	}
	if items := pendingItems(t, queue); len(items) != 0 {
		t.Errorf("outbox changed: %d record(s)", len(items))
	}
}

// TestGetByID_Validation tests the empty-id sentinel on the read path.
func TestGetByID_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), "  ")
	if !errors.Is(err, ErrEmptyID) {
		t.Errorf("err = %v, want ErrEmptyID", err)
	}
}

// TestNewID_Unique tests basic uniqueness of generated ids.
func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
