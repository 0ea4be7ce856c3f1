package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
	"github.com/vladislavdragonenkov/shopadmin/internal/metrics"
)

// MovementInput описывает запрос на запись складского движения.
// Quantity всегда положительное: направление несёт Kind, а для корректировок —
// Direction. Знаковая дельта вычисляется внутри журнала.
type MovementInput struct {
	ProductID string
	Kind      domain.MovementKind
	Quantity  int64
	Direction domain.MovementDirection
	Reason    string
	Ref       *domain.MovementRef
}

// Ledger — единственный писатель остатка товара. Каждое изменение Quantity
// проходит через Record и фиксируется неизменяемой записью журнала в той же
// атомарной единице; событие StockChanged уходит потребителям через
// transactional outbox после коммита.
type Ledger struct {
	store   domain.Store
	logger  *log.Entry
	metrics *metrics.InventoryMetrics
}

// New создаёт журнал остатков с метриками по default-регистратору.
func New(store domain.Store, logger *log.Entry) *Ledger {
	l := NewWithoutMetrics(store, logger)
	l.metrics = metrics.NewInventoryMetrics()
	return l
}

// NewWithoutMetrics создаёт журнал без метрик (для тестов).
func NewWithoutMetrics(store domain.Store, logger *log.Entry) *Ledger {
	if logger == nil {
		logger = log.New().WithField("component", "stock-ledger")
	}
	return &Ledger{
		store:  store,
		logger: logger,
	}
}

// Record применяет движение к товару: проверяет вход, читает остаток под
// блокировкой, отклоняет уход в минус, добавляет запись журнала и обновляет
// кэшированный остаток как одну атомарную единицу. Возвращает записанное
// движение или типизированную ошибку; при любой ошибке ни журнал, ни остаток
// не меняются.
func (l *Ledger) Record(ctx context.Context, in MovementInput) (domain.StockMovement, error) {
	start := time.Now()
	defer func() {
		if l.metrics != nil {
			l.metrics.RecordDuration(time.Since(start))
		}
	}()

	movement := domain.StockMovement{
		ID:        uuid.NewString(),
		ProductID: in.ProductID,
		Kind:      in.Kind,
		Quantity:  in.Quantity,
		Direction: in.Direction,
		Reason:    in.Reason,
		Ref:       in.Ref,
		CreatedAt: time.Now().UTC(),
	}
	if errs := movement.Validate(); len(errs) > 0 {
		if l.metrics != nil {
			l.metrics.RecordMovementRejected("invalid")
		}
		return domain.StockMovement{}, errs[0]
	}

	err := l.store.WithinTx(ctx, domain.TxScope{ProductIDs: []string{in.ProductID}}, func(tx domain.Tx) error {
		return ApplyMovement(tx, movement)
	})
	if err != nil {
		l.observeFailure(movement, err)
		return domain.StockMovement{}, err
	}

	if l.metrics != nil {
		l.metrics.RecordMovement(string(movement.Kind))
		l.metrics.RecordOutboxEvent()
	}
	l.logger.WithFields(log.Fields{
		"product_id":  movement.ProductID,
		"movement_id": movement.ID,
		"kind":        movement.Kind,
		"quantity":    movement.Quantity,
	}).Info("stock movement recorded")

	return movement, nil
}

// ApplyMovement выполняет шаги движения внутри уже открытой атомарной
// единицы: его использует и Record, и координатор переходов, которому нужно
// совместить движение со сменой статуса заказа в одном коммите.
func ApplyMovement(tx domain.Tx, movement domain.StockMovement) error {
	product, err := tx.ProductForUpdate(movement.ProductID)
	if err != nil {
		return err
	}

	newQuantity := product.Quantity + movement.SignedDelta()
	if newQuantity < 0 {
		return fmt.Errorf("%w: product %s has %d, movement needs %d",
			domain.ErrInsufficientStock, product.ID, product.Quantity, movement.Quantity)
	}

	if err := tx.AppendMovement(movement); err != nil {
		return err
	}
	if err := tx.SetProductQuantity(product.ID, newQuantity); err != nil {
		return err
	}

	event := domain.StockChanged{
		ProductID:   product.ID,
		MovementID:  movement.ID,
		Kind:        string(movement.Kind),
		OldQuantity: product.Quantity,
		NewQuantity: newQuantity,
		Reason:      movement.Reason,
		OccurredAt:  movement.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stock changed event: %w", err)
	}

	return tx.EnqueueOutbox(domain.OutboxMessage{
		AggregateType: domain.AggregateProduct,
		AggregateID:   product.ID,
		EventType:     domain.EventTypeStockChanged,
		Payload:       payload,
	})
}

func (l *Ledger) observeFailure(movement domain.StockMovement, err error) {
	reason := "store"
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		reason = "insufficient_stock"
	case errors.Is(err, domain.ErrProductNotFound):
		reason = "not_found"
	case domain.IsConflict(err):
		reason = "conflict"
	}
	if l.metrics != nil {
		l.metrics.RecordMovementRejected(reason)
	}
	l.logger.WithError(err).WithFields(log.Fields{
		"product_id": movement.ProductID,
		"kind":       movement.Kind,
		"quantity":   movement.Quantity,
	}).Warn("stock movement rejected")
}
