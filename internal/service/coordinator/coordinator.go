package coordinator

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
	"github.com/vladislavdragonenkov/shopadmin/internal/metrics"
	"github.com/vladislavdragonenkov/shopadmin/internal/service/ledger"
)

// RetryConfig задаёт параметры повторов при конфликтах версий.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// Coordinator связывает переходы статусов заказа с их складскими эффектами.
// Смена статуса и порождённые ею движения остатка коммитятся одной атомарной
// единицей: статус никогда не сохраняется без своего складского эффекта.
type Coordinator struct {
	store   domain.Store
	orders  domain.OrderRepository
	effects EffectRegistry
	retry   RetryConfig
	logger  *log.Entry
	metrics *metrics.InventoryMetrics
}

// New создаёт координатор с политикой эффектов по умолчанию.
func New(store domain.Store, orders domain.OrderRepository, logger *log.Entry) *Coordinator {
	c := NewWithoutMetrics(store, orders, logger)
	c.metrics = metrics.NewInventoryMetrics()
	return c
}

// NewWithoutMetrics создаёт координатор без метрик (для тестов).
func NewWithoutMetrics(store domain.Store, orders domain.OrderRepository, logger *log.Entry) *Coordinator {
	if logger == nil {
		logger = log.New().WithField("component", "inventory-coordinator")
	}
	return &Coordinator{
		store:   store,
		orders:  orders,
		effects: DefaultEffects(),
		retry:   DefaultRetryConfig(),
		logger:  logger,
	}
}

// WithEffects подменяет политику складских эффектов.
func (c *Coordinator) WithEffects(effects EffectRegistry) *Coordinator {
	c.effects = effects
	return c
}

// WithRetry подменяет параметры повторов.
func (c *Coordinator) WithRetry(cfg RetryConfig) *Coordinator {
	if cfg.MaxAttempts > 0 {
		c.retry = cfg
	}
	return c
}

// TransitionOrder проверяет и применяет переход статуса заказа. Нелегальный
// переход отклоняется без обращения к складу; конфликт версий повторяется
// с backoff — повтор безопасен, потому что частичных коммитов не бывает.
func (c *Coordinator) TransitionOrder(ctx context.Context, orderID string, to domain.OrderStatus) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordTransitionDuration(time.Since(start))
		}
	}()

	delay := c.retry.InitialDelay
	var (
		updated domain.Order
		err     error
	)
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		updated, err = c.transitionOnce(ctx, orderID, to)
		if err == nil || !domain.IsConflict(err) {
			break
		}

		if attempt == c.retry.MaxAttempts {
			break
		}
		c.logger.WithFields(log.Fields{
			"order_id": orderID,
			"to":       to,
			"attempt":  attempt,
		}).Warn("transition conflict, retrying")

		select {
		case <-ctx.Done():
			return domain.Order{}, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * c.retry.BackoffFactor)
		if delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}
	}

	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordTransitionRejected()
		}
		c.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"to":       to,
		}).Warn("order transition rejected")
		return domain.Order{}, err
	}

	if c.metrics != nil {
		c.metrics.RecordTransition(string(to))
	}
	c.logger.WithFields(log.Fields{
		"order_id": orderID,
		"status":   updated.Status,
	}).Info("order transition applied")
	return updated, nil
}

func (c *Coordinator) transitionOnce(ctx context.Context, orderID string, to domain.OrderStatus) (domain.Order, error) {
	// Scope атомарной единицы известен заранее: позиции заказа неизменяемы.
	// Товары блокируются всегда, даже если по pre-read статусу эффекта не
	// видно: статус на момент pre-read не обязан совпадать с закоммиченным.
	current, err := c.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	scope := domain.TxScope{OrderID: orderID}
	for _, item := range current.Items {
		scope.ProductIDs = append(scope.ProductIDs, item.ProductID)
	}

	var updated domain.Order
	err = c.store.WithinTx(ctx, scope, func(tx domain.Tx) error {
		order, err := tx.Order(orderID)
		if err != nil {
			return err
		}

		// Переход и его складской эффект выбираются по закоммиченному статусу
		// внутри единицы: конкурент мог успеть изменить заказ после pre-read.
		effect, hasEffect := c.effects[StatusEdge{From: order.Status, To: to}]

		order, err = domain.ApplyTransition(order, to)
		if err != nil {
			return err
		}
		order.UpdatedAt = time.Now().UTC()
		if err := tx.SaveOrder(order); err != nil {
			return err
		}

		if hasEffect {
			if err := c.applyEffect(tx, order, effect); err != nil {
				return err
			}
		}

		updated, err = tx.Order(orderID)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

// applyEffect записывает по движению на каждую позицию заказа внутри той же
// атомарной единицы, что и смена статуса.
func (c *Coordinator) applyEffect(tx domain.Tx, order domain.Order, effect StockEffect) error {
	now := time.Now().UTC()
	for _, item := range order.Items {
		movement := domain.StockMovement{
			ID:        uuid.NewString(),
			ProductID: item.ProductID,
			Kind:      effect.Kind,
			Quantity:  item.Qty,
			Direction: effect.Direction,
			Reason:    effect.Reason,
			Ref:       &domain.MovementRef{Type: "order", ID: order.ID},
			CreatedAt: now,
		}
		if errs := movement.Validate(); len(errs) > 0 {
			return errs[0]
		}
		if err := ledger.ApplyMovement(tx, movement); err != nil {
			return err
		}
	}
	return nil
}
