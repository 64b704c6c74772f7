package types

import "time"

// SyncOperation describes the remote effect a queued mutation intends.
type SyncOperation string

const (
	OpCreate SyncOperation = "create"
	OpUpdate SyncOperation = "update"
	OpDelete SyncOperation = "delete"
)

// EntityTask is the only entity type currently recorded in the queue.
const EntityTask = "task"

// SyncItem is one durable outbox record in the sync_queue table.
// Records are append-only: the only mutation after insert is stamping
// ProcessedAt once the item has been drained.
type SyncItem struct {
	ID          int64         `json:"id"`
	EntityType  string        `json:"entity_type"`
	EntityID    string        `json:"entity_id"`
	Operation   SyncOperation `json:"operation"`
	Payload     string        `json:"payload,omitempty"` // serialized entity snapshot, "" when absent
	CreatedAt   time.Time     `json:"created_at"`
	ProcessedAt *time.Time    `json:"processed_at,omitempty"`
}

// Pending reports whether the item has not been drained yet.
func (i *SyncItem) Pending() bool {
	return i.ProcessedAt == nil
}

// SyncEnqueue carries the parameters for a new outbox record.
// Payload is serialized to JSON by the queue store; nil means no payload.
type SyncEnqueue struct {
	EntityType string
	EntityID   string
	Operation  SyncOperation
	Payload    any
}
