package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
)

// Topics для Kafka
const (
	// TopicStockEvents — события изменения остатков (stock.changed).
	TopicStockEvents = "shopadmin.stock.events"
	// TopicOrderEvents — события жизненного цикла заказов.
	TopicOrderEvents = "shopadmin.order.events"
	// TopicDeadLetterQueue — Dead Letter Queue для failed messages.
	TopicDeadLetterQueue = "shopadmin.dlq"
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// Envelope — обёртка событий, публикуемых из transactional outbox.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// ParseEnvelope парсит Envelope из сообщения.
func ParseEnvelope(message *sarama.ConsumerMessage) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(message.Value, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	return &envelope, nil
}

// ParseStockChanged извлекает событие изменения остатка из обёртки.
// Возвращает nil без ошибки, если событие другого типа.
func ParseStockChanged(envelope *Envelope) (*domain.StockChanged, error) {
	if envelope == nil || envelope.EventType != domain.EventTypeStockChanged {
		return nil, nil
	}
	var event domain.StockChanged
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stock changed event: %w", err)
	}
	return &event, nil
}
