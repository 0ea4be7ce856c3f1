package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
)

func TestWithinTx_PostgresCommitAppliesAllWrites(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	orders := NewOrderRepository(store)
	products := NewProductRepository(store)
	outbox := NewOutboxRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	if err := products.Create(sampleProduct("prod-1", 10, now)); err != nil {
		t.Fatalf("create product: %v", err)
	}
	order := sampleOrder("order-1", "customer-1", now)
	if err := orders.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{"new_quantity": 7})
	scope := domain.TxScope{OrderID: order.ID, ProductIDs: []string{"prod-1"}}

	err := store.WithinTx(context.Background(), scope, func(tx domain.Tx) error {
		got, err := tx.Order(order.ID)
		if err != nil {
			return err
		}
		got.Status = domain.OrderStatusProcessing
		got.UpdatedAt = now.Add(time.Minute)
		if err := tx.SaveOrder(got); err != nil {
			return err
		}

		product, err := tx.ProductForUpdate("prod-1")
		if err != nil {
			return err
		}
		if err := tx.AppendMovement(domain.StockMovement{
			ID:        "mov-1",
			ProductID: product.ID,
			Kind:      domain.MovementOutbound,
			Quantity:  3,
			Ref:       &domain.MovementRef{Type: "order", ID: order.ID},
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if err := tx.SetProductQuantity(product.ID, product.Quantity-3); err != nil {
			return err
		}
		return tx.EnqueueOutbox(domain.OutboxMessage{
			AggregateType: domain.AggregateProduct,
			AggregateID:   product.ID,
			EventType:     domain.EventTypeStockChanged,
			Payload:       payload,
		})
	})
	if err != nil {
		t.Fatalf("within tx: %v", err)
	}

	updated, err := orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get updated order: %v", err)
	}
	if updated.Status != domain.OrderStatusProcessing {
		t.Fatalf("unexpected status after commit: %s", updated.Status)
	}
	if updated.Version != order.Version+1 {
		t.Fatalf("unexpected version after commit: %d", updated.Version)
	}

	product, err := products.Get("prod-1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Quantity != 7 {
		t.Fatalf("unexpected quantity after commit: %d", product.Quantity)
	}

	movements, err := products.ListMovements("prod-1", 0)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}

	pending, err := outbox.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != domain.EventTypeStockChanged {
		t.Fatalf("unexpected pending outbox: %+v", pending)
	}
}

func TestWithinTx_PostgresErrorRollsBackEverything(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	orders := NewOrderRepository(store)
	products := NewProductRepository(store)
	outbox := NewOutboxRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	if err := products.Create(sampleProduct("prod-1", 10, now)); err != nil {
		t.Fatalf("create product: %v", err)
	}
	order := sampleOrder("order-1", "customer-1", now)
	if err := orders.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	boom := errors.New("boom")
	scope := domain.TxScope{OrderID: order.ID, ProductIDs: []string{"prod-1"}}

	err := store.WithinTx(context.Background(), scope, func(tx domain.Tx) error {
		got, err := tx.Order(order.ID)
		if err != nil {
			return err
		}
		got.Status = domain.OrderStatusProcessing
		if err := tx.SaveOrder(got); err != nil {
			return err
		}
		if err := tx.SetProductQuantity("prod-1", 1); err != nil {
			return err
		}
		if err := tx.EnqueueOutbox(domain.OutboxMessage{
			AggregateType: domain.AggregateProduct,
			AggregateID:   "prod-1",
			EventType:     domain.EventTypeStockChanged,
			Payload:       []byte(`{}`),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	updated, err := orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if updated.Status != domain.OrderStatusPending || updated.Version != 0 {
		t.Fatalf("order must be untouched after rollback: %+v", updated)
	}

	product, err := products.Get("prod-1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Quantity != 10 {
		t.Fatalf("product must be untouched after rollback: %d", product.Quantity)
	}

	stats, err := outbox.Stats()
	if err != nil {
		t.Fatalf("outbox stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("outbox must be empty after rollback, got %d", stats.PendingCount)
	}
}

func TestWithinTx_PostgresVersionConflictAndNotFound(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	orders := NewOrderRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	order := sampleOrder("order-1", "customer-1", now)
	if err := orders.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	err := store.WithinTx(context.Background(), domain.TxScope{OrderID: order.ID}, func(tx domain.Tx) error {
		stale := order
		stale.Version = 42
		return tx.SaveOrder(stale)
	})
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	err = store.WithinTx(context.Background(), domain.TxScope{OrderID: "missing"}, func(tx domain.Tx) error {
		_, err := tx.Order("missing")
		return err
	})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	err = store.WithinTx(context.Background(), domain.TxScope{ProductIDs: []string{"missing"}}, func(tx domain.Tx) error {
		_, err := tx.ProductForUpdate("missing")
		return err
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
