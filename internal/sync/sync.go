// Package sync drains the durable outbox queue and hands pending items to
// a delivery transport.
//
// Delivery is at-least-once: items are marked processed only after the
// transport accepts them, and a partial drain leaves the remainder pending
// for the next run. The remote side must therefore tolerate redelivery.
package sync

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/taskdock/taskdock/internal/store"
	"github.com/taskdock/taskdock/internal/types"
)

// Queue is the outbox contract the service drains.
type Queue interface {
	GetPending(ctx context.Context, limit int) ([]*types.SyncItem, error)
	MarkProcessed(ctx context.Context, ids []int64) error
}

// Transport delivers a batch of outbox items to the remote side and
// returns the ids it accepted. Returning fewer ids than items (with or
// without an error) is valid: only accepted ids are marked processed,
// the rest stay pending.
//
// This is the seam where a real network client plugs in.
type Transport interface {
	Deliver(ctx context.Context, items []*types.SyncItem) ([]int64, error)
}

// NopTransport accepts every item without delivering it anywhere.
// This is the stub used until a real backend exists.
type NopTransport struct{}

// Deliver implements Transport by accepting the whole batch.
func (NopTransport) Deliver(_ context.Context, items []*types.SyncItem) ([]int64, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

// Service drains the outbox in batches through a transport.
type Service struct {
	queue     Queue
	transport Transport
	logger    *log.Logger
	batch     int
}

// New creates a sync service. A nil transport falls back to NopTransport;
// a nil logger writes to stderr; a non-positive batch falls back to the
// store default.
func New(queue Queue, transport Transport, logger *log.Logger, batch int) *Service {
	if transport == nil {
		transport = NopTransport{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if batch <= 0 {
		batch = store.DefaultPendingLimit
	}
	return &Service{
		queue:     queue,
		transport: transport,
		logger:    logger,
		batch:     batch,
	}
}

// ProcessQueue fetches one batch of pending items, delivers them, and marks
// the accepted ids processed. Returns the count actually processed.
// With no pending items it returns 0 without further action.
func (s *Service) ProcessQueue(ctx context.Context) (int, error) {
	pending, err := s.queue.GetPending(ctx, s.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending items: %w", err)
	}

	if len(pending) == 0 {
		s.logger.Printf("No pending items")
		return 0, nil
	}

	s.logger.Printf("Processing %d item(s)", len(pending))
	for _, item := range pending {
		s.logger.Printf("item id=%d entity=%s/%s op=%s",
			item.ID, item.EntityType, item.EntityID, item.Operation)
	}

	accepted, deliverErr := s.transport.Deliver(ctx, pending)

	// Accepted ids are stamped even when delivery stopped partway, so a
	// re-run only redelivers what is still pending.
	if err := s.queue.MarkProcessed(ctx, accepted); err != nil {
		return 0, fmt.Errorf("failed to mark items processed: %w", err)
	}

	if deliverErr != nil {
		return len(accepted), fmt.Errorf("delivery stopped after %d of %d item(s): %w",
			len(accepted), len(pending), deliverErr)
	}

	s.logger.Printf("Marked %d item(s) processed", len(accepted))
	return len(accepted), nil
}
