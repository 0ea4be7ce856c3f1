package projector_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
	kafkax "github.com/vladislavdragonenkov/shopadmin/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shopadmin/internal/service/projector"
)

func TestProjector_Handle_UpdatesReadModel(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	p := projector.New(rdb, projector.WithLowStockThreshold(5))

	err := p.Handle(context.Background(), stockMessage(t, domain.StockChanged{
		ProductID:   "prod-1",
		MovementID:  "mov-1",
		Kind:        string(domain.MovementOutbound),
		OldQuantity: 20,
		NewQuantity: 12,
		Reason:      "order processing",
		OccurredAt:  time.Now().UTC(),
	}))
	require.NoError(t, err)

	quantities, err := p.Quantities(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"prod-1": 12}, quantities)

	low, err := p.LowStock(context.Background())
	require.NoError(t, err)
	require.Empty(t, low)
}

func TestProjector_Handle_DeduplicatesByMovementID(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	p := projector.New(rdb)

	msg := stockMessage(t, domain.StockChanged{
		ProductID:   "prod-1",
		MovementID:  "mov-1",
		Kind:        string(domain.MovementInbound),
		OldQuantity: 0,
		NewQuantity: 30,
		OccurredAt:  time.Now().UTC(),
	})

	require.NoError(t, p.Handle(context.Background(), msg))

	// Повторная доставка того же события не должна затирать
	// более свежий снимок.
	rdb.hashes[projector.KeyStockQuantities]["prod-1"] = "25"
	require.NoError(t, p.Handle(context.Background(), msg))

	quantities, err := p.Quantities(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(25), quantities["prod-1"])
}

func TestProjector_Handle_LowStockAlert(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	p := projector.New(rdb, projector.WithLowStockThreshold(5))

	err := p.Handle(context.Background(), stockMessage(t, domain.StockChanged{
		ProductID:   "prod-low",
		MovementID:  "mov-1",
		Kind:        string(domain.MovementOutbound),
		OldQuantity: 6,
		NewQuantity: 3,
		OccurredAt:  time.Now().UTC(),
	}))
	require.NoError(t, err)

	low, err := p.LowStock(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"prod-low"}, low)

	// Пополнение выше порога убирает продукт из low-stock set.
	err = p.Handle(context.Background(), stockMessage(t, domain.StockChanged{
		ProductID:   "prod-low",
		MovementID:  "mov-2",
		Kind:        string(domain.MovementInbound),
		OldQuantity: 3,
		NewQuantity: 40,
		OccurredAt:  time.Now().UTC(),
	}))
	require.NoError(t, err)

	low, err = p.LowStock(context.Background())
	require.NoError(t, err)
	require.Empty(t, low)
}

func TestProjector_Handle_IgnoresForeignEvents(t *testing.T) {
	t.Parallel()

	rdb := newFakeRedis()
	p := projector.New(rdb)

	envelope := kafkax.Envelope{
		ID:            "out-1",
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.status_changed",
		Payload:       json.RawMessage(`{"status":"shipped"}`),
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	err = p.Handle(context.Background(), &sarama.ConsumerMessage{Value: raw})
	require.NoError(t, err)

	quantities, err := p.Quantities(context.Background())
	require.NoError(t, err)
	require.Empty(t, quantities)
}

func TestProjector_Handle_MalformedMessage(t *testing.T) {
	t.Parallel()

	p := projector.New(newFakeRedis())

	err := p.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte("not json")})
	require.Error(t, err)
}

func stockMessage(t *testing.T, event domain.StockChanged) *sarama.ConsumerMessage {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	envelope := kafkax.Envelope{
		ID:            "out-" + event.MovementID,
		AggregateType: domain.AggregateProduct,
		AggregateID:   event.ProductID,
		EventType:     domain.EventTypeStockChanged,
		Payload:       payload,
		PublishedAt:   time.Now().UTC(),
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	return &sarama.ConsumerMessage{
		Topic: kafkax.TopicStockEvents,
		Key:   []byte(event.ProductID),
		Value: raw,
	}
}

// fakeRedis — in-memory реализация projector.RedisCommands.
type fakeRedis struct {
	hashes map[string]map[string]string
	sets   map[string]map[string]struct{}
	keys   map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		hashes: map[string]map[string]string{
			projector.KeyStockQuantities: {},
		},
		sets: map[string]map[string]struct{}{},
		keys: map[string]string{},
	}
}

func (f *fakeRedis) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.hashes[key] == nil {
		f.hashes[key] = map[string]string{}
	}
	var added int64
	for i := 0; i+1 < len(values); i += 2 {
		field := fmt.Sprint(values[i])
		if _, ok := f.hashes[key][field]; !ok {
			added++
		}
		f.hashes[key][field] = fmt.Sprint(values[i+1])
	}
	return redis.NewIntResult(added, nil)
}

func (f *fakeRedis) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	out := make(map[string]string, len(f.hashes[key]))
	for field, value := range f.hashes[key] {
		out[field] = value
	}
	return redis.NewMapStringStringResult(out, nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) SAdd(_ context.Context, key string, members ...interface{}) *redis.IntCmd {
	if f.sets[key] == nil {
		f.sets[key] = map[string]struct{}{}
	}
	var added int64
	for _, member := range members {
		m := fmt.Sprint(member)
		if _, ok := f.sets[key][m]; !ok {
			f.sets[key][m] = struct{}{}
			added++
		}
	}
	return redis.NewIntResult(added, nil)
}

func (f *fakeRedis) SRem(_ context.Context, key string, members ...interface{}) *redis.IntCmd {
	var removed int64
	for _, member := range members {
		m := fmt.Sprint(member)
		if _, ok := f.sets[key][m]; ok {
			delete(f.sets[key], m)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) SCard(_ context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(f.sets[key])), nil)
}

func (f *fakeRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	members := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		members = append(members, m)
	}
	return redis.NewStringSliceResult(members, nil)
}

var _ projector.RedisCommands = (*fakeRedis)(nil)
