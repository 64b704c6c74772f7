package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskdock/taskdock/internal/types"
)

// DefaultPendingLimit bounds how many outbox records a single drain fetches.
const DefaultPendingLimit = 50

// QueueStore persists the sync outbox in the sync_queue table.
//
// Records are append-only. The only post-insert mutation is MarkProcessed,
// which stamps processed_at one id at a time; a failure partway through
// leaves some ids marked and others still pending, which callers must
// tolerate as at-least-once delivery.
type QueueStore struct {
	conn *Conn
}

// NewQueueStore creates a queue store over the shared connection.
func NewQueueStore(conn *Conn) *QueueStore {
	return &QueueStore{conn: conn}
}

// Enqueue inserts one pending outbox record, stamping created_at at
// insertion time. A nil payload is stored as SQL NULL.
func (s *QueueStore) Enqueue(ctx context.Context, params types.SyncEnqueue) error {
	payload := ""
	if params.Payload != nil {
		data, err := json.Marshal(params.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload for %s %s: %w",
				params.Operation, params.EntityID, err)
		}
		payload = string(data)
	}

	err := s.conn.Execute(ctx,
		`INSERT INTO sync_queue (
			entity_type, entity_id, operation, payload, created_at, processed_at
		) VALUES (?, ?, ?, NULLIF(?, ''), ?, NULL)`,
		params.EntityType,
		params.EntityID,
		string(params.Operation),
		payload,
		time.Now().UTC().Format(types.TimeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s for %s: %w", params.Operation, params.EntityID, err)
	}
	return nil
}

// GetPending returns up to limit unprocessed records, oldest first.
// A non-positive limit falls back to DefaultPendingLimit.
func (s *QueueStore) GetPending(ctx context.Context, limit int) ([]*types.SyncItem, error) {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}

	rows, err := s.conn.QueryAll(ctx,
		`SELECT id, entity_type, entity_id, operation, payload, created_at, processed_at
		FROM sync_queue
		WHERE processed_at IS NULL
		ORDER BY id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending sync items: %w", err)
	}

	items := make([]*types.SyncItem, 0, len(rows))
	for _, row := range rows {
		item, err := scanSyncRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkProcessed stamps every given id with one shared timestamp.
// An empty input performs zero store writes. Each id is updated with its
// own statement, so a mid-list failure leaves the remainder pending for
// redelivery on the next drain.
func (s *QueueStore) MarkProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(types.TimeFormat)
	for _, id := range ids {
		err := s.conn.Execute(ctx,
			`UPDATE sync_queue SET processed_at = ? WHERE id = ?`, now, id)
		if err != nil {
			return fmt.Errorf("failed to mark sync item %d processed: %w", id, err)
		}
	}
	return nil
}

func scanSyncRow(row Row) (*types.SyncItem, error) {
	item := &types.SyncItem{
		ID:         row.Int64("id"),
		EntityType: row.String("entity_type"),
		EntityID:   row.String("entity_id"),
		Operation:  types.SyncOperation(row.String("operation")),
		Payload:    row.String("payload"),
	}

	createdAt, err := row.Time("created_at")
	if err != nil {
		return nil, err
	}
	item.CreatedAt = createdAt

	if s, ok := row.NullString("processed_at"); ok && s != "" {
		processedAt, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse processed_at %q: %w", s, err)
		}
		item.ProcessedAt = &processedAt
	}

	return item, nil
}
