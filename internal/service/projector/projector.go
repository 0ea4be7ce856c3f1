package projector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
	kafkax "github.com/vladislavdragonenkov/shopadmin/internal/messaging/kafka"
)

const defaultLowStockThreshold = 5

var (
	projectorEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopadmin_projector_events_total",
		Help: "Total number of consumed stock events grouped by result.",
	}, []string{"result"})
	projectorLowStockProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shopadmin_projector_low_stock_products",
		Help: "Current number of products below the low stock threshold.",
	})
)

// RedisCommands — подмножество redis-команд, нужное проектору.
// Реализуется *redis.Client.
type RedisCommands interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SCard(ctx context.Context, key string) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// Options задаёт параметры проектора.
type Options struct {
	Logger            *log.Entry
	LowStockThreshold int64
	DedupTTL          time.Duration
}

// Option настраивает Projector.
type Option func(*Options)

// WithLogger задаёт logger для проектора.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithLowStockThreshold задаёт порог low-stock алерта.
func WithLowStockThreshold(threshold int64) Option {
	return func(opts *Options) {
		opts.LowStockThreshold = threshold
	}
}

// WithDedupTTL задаёт TTL dedup-ключей.
func WithDedupTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.DedupTTL = ttl
	}
}

// Projector строит read model остатков в Redis из потока stock.changed.
// Консьюмер at-least-once, поэтому события дедуплицируются по movement_id.
type Projector struct {
	rdb       RedisCommands
	logger    *log.Entry
	threshold int64
	dedupTTL  time.Duration
}

// New создаёт проектор поверх Redis.
func New(rdb RedisCommands, options ...Option) *Projector {
	opts := Options{
		LowStockThreshold: defaultLowStockThreshold,
		DedupTTL:          TTLDedup,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "stock-projector")
	}
	if opts.LowStockThreshold < 0 {
		opts.LowStockThreshold = defaultLowStockThreshold
	}
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = TTLDedup
	}

	return &Projector{
		rdb:       rdb,
		logger:    logger,
		threshold: opts.LowStockThreshold,
		dedupTTL:  opts.DedupTTL,
	}
}

// Handle обрабатывает одно сообщение из топика stock events.
// Сигнатура совместима с kafka.MessageHandler.
func (p *Projector) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	envelope, err := kafkax.ParseEnvelope(message)
	if err != nil {
		projectorEvents.WithLabelValues("malformed").Inc()
		return err
	}

	event, err := kafkax.ParseStockChanged(envelope)
	if err != nil {
		projectorEvents.WithLabelValues("malformed").Inc()
		return err
	}
	if event == nil {
		projectorEvents.WithLabelValues("skipped").Inc()
		return nil
	}

	fresh, err := p.rdb.SetNX(ctx, fmt.Sprintf(KeyDedup, event.MovementID), "1", p.dedupTTL).Result()
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if !fresh {
		projectorEvents.WithLabelValues("duplicate").Inc()
		return nil
	}

	if err := p.rdb.HSet(ctx, KeyStockQuantities, event.ProductID, event.NewQuantity).Err(); err != nil {
		return fmt.Errorf("update stock read model: %w", err)
	}

	if err := p.refreshLowStock(ctx, event); err != nil {
		return err
	}

	projectorEvents.WithLabelValues("processed").Inc()
	return nil
}

func (p *Projector) refreshLowStock(ctx context.Context, event *domain.StockChanged) error {
	if event.NewQuantity <= p.threshold {
		if err := p.rdb.SAdd(ctx, KeyLowStock, event.ProductID).Err(); err != nil {
			return fmt.Errorf("mark low stock: %w", err)
		}
		p.logger.WithFields(log.Fields{
			"product_id": event.ProductID,
			"quantity":   event.NewQuantity,
			"threshold":  p.threshold,
		}).Warn("product stock is below threshold")
	} else {
		if err := p.rdb.SRem(ctx, KeyLowStock, event.ProductID).Err(); err != nil {
			return fmt.Errorf("clear low stock: %w", err)
		}
	}

	count, err := p.rdb.SCard(ctx, KeyLowStock).Result()
	if err != nil {
		return fmt.Errorf("count low stock: %w", err)
	}
	projectorLowStockProducts.Set(float64(count))
	return nil
}

// Quantities возвращает текущий снимок остатков из read model.
func (p *Projector) Quantities(ctx context.Context) (map[string]int64, error) {
	raw, err := p.rdb.HGetAll(ctx, KeyStockQuantities).Result()
	if err != nil {
		return nil, fmt.Errorf("read stock quantities: %w", err)
	}

	quantities := make(map[string]int64, len(raw))
	for productID, value := range raw {
		qty, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse quantity for product %s: %w", productID, err)
		}
		quantities[productID] = qty
	}
	return quantities, nil
}

// LowStock возвращает продукты с остатком ниже порога.
func (p *Projector) LowStock(ctx context.Context) ([]string, error) {
	members, err := p.rdb.SMembers(ctx, KeyLowStock).Result()
	if err != nil {
		return nil, fmt.Errorf("read low stock set: %w", err)
	}
	return members, nil
}

var _ kafkax.MessageHandler = (*Projector)(nil).Handle
