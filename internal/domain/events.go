package domain

import "time"

const (
	// EventTypeStockChanged — тип события изменения остатка в outbox и брокере.
	EventTypeStockChanged = "stock.changed"
	// AggregateProduct — тип агрегата для событий остатков.
	AggregateProduct = "product"
)

// StockChanged — уведомление об изменении остатка товара. Публикуется после
// коммита атомарной единицы с гарантией at-least-once; потребители обязаны
// быть идемпотентными.
type StockChanged struct {
	ProductID   string    `json:"product_id"`
	MovementID  string    `json:"movement_id"`
	Kind        string    `json:"kind"`
	OldQuantity int64     `json:"old_quantity"`
	NewQuantity int64     `json:"new_quantity"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
