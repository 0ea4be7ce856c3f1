package memory_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
	"github.com/vladislavdragonenkov/shopadmin/internal/storage/memory"
)

func TestOutboxRepository_EnqueuePull(t *testing.T) {
	repo := memory.NewOutboxRepository()

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "product",
		AggregateID:   "product-1",
		EventType:     "stock.changed",
		Payload:       []byte(`{"product_id":"product-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("expected generated id")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != msg.ID {
		t.Fatalf("expected the enqueued message, got %+v", pending)
	}
}

func TestOutboxRepository_MarkSent(t *testing.T) {
	repo := memory.NewOutboxRepository()
	msg, _ := repo.Enqueue(domain.OutboxMessage{EventType: "stock.changed"})

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}

	pending, _ := repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("sent message must leave the backlog, got %d", len(pending))
	}
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	repo := memory.NewOutboxRepository()
	msg, _ := repo.Enqueue(domain.OutboxMessage{EventType: "stock.changed"})

	if err := repo.MarkFailed(msg.ID); err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}
	pending, _ := repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("failed message must leave the backlog, got %d", len(pending))
	}
}

func TestOutboxRepository_MarkUnknown(t *testing.T) {
	repo := memory.NewOutboxRepository()

	if err := repo.MarkSent("ghost"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := memory.NewOutboxRepository()
	first, _ := repo.Enqueue(domain.OutboxMessage{EventType: "stock.changed"})
	_, _ = repo.Enqueue(domain.OutboxMessage{EventType: "stock.changed"})

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.PendingCount != 2 {
		t.Fatalf("expected 2 pending, got %d", stats.PendingCount)
	}
	if stats.OldestPendingAt.IsZero() {
		t.Fatal("expected oldest pending timestamp")
	}

	_ = repo.MarkSent(first.ID)
	stats, _ = repo.Stats()
	if stats.PendingCount != 1 {
		t.Fatalf("expected 1 pending after send, got %d", stats.PendingCount)
	}
}

func TestOutboxRepository_PullOrder(t *testing.T) {
	repo := memory.NewOutboxRepository()
	first, _ := repo.Enqueue(domain.OutboxMessage{EventType: "stock.changed"})
	second, _ := repo.Enqueue(domain.OutboxMessage{EventType: "stock.changed"})

	pending, _ := repo.PullPending(1)
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("expected FIFO order, got %+v", pending)
	}

	_ = repo.MarkSent(first.ID)
	pending, _ = repo.PullPending(1)
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("expected second message next, got %+v", pending)
	}
}
