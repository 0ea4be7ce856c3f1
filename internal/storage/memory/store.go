package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
)

// Store — in-memory хранилище заказов, товаров и журнала движений для
// локальной разработки и тестов. Атомарные единицы реализованы через
// пер-агрегатные мьютексы и буферизацию записей до коммита.
type Store struct {
	mu        sync.RWMutex
	orders    map[string]domain.Order
	products  map[string]domain.Product
	movements map[string][]domain.StockMovement

	outbox domain.OutboxRepository

	orderLocks   sync.Map // map[string]*sync.Mutex
	productLocks sync.Map // map[string]*sync.Mutex
}

// NewStore создаёт пустое in-memory хранилище. Outbox-сообщения из атомарных
// единиц попадают в переданный репозиторий на коммите.
func NewStore(outbox domain.OutboxRepository) *Store {
	return &Store{
		orders:    make(map[string]domain.Order),
		products:  make(map[string]domain.Product),
		movements: make(map[string][]domain.StockMovement),
		outbox:    outbox,
	}
}

// WithinTx исполняет fn как атомарную единицу над агрегатами из scope.
// Единицы с пересекающимся scope сериализуются; с непересекающимся — идут
// параллельно. Блокировки берутся в фиксированном порядке (заказ, затем
// товары по возрастанию ID), чтобы исключить deadlock.
func (s *Store) WithinTx(ctx context.Context, scope domain.TxScope, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.lockScope(scope)
	defer unlock()

	tx := &storeTx{
		store:      s,
		quantities: make(map[string]int64),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		// Отмена до коммита: буфер отбрасывается, частичное состояние не видно.
		return err
	}

	tx.commit()
	return nil
}

func (s *Store) lockScope(scope domain.TxScope) func() {
	var acquired []*sync.Mutex

	if scope.OrderID != "" {
		acquired = append(acquired, s.entityLock(&s.orderLocks, scope.OrderID))
	}

	ids := make([]string, 0, len(scope.ProductIDs))
	seen := make(map[string]bool, len(scope.ProductIDs))
	for _, id := range scope.ProductIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		acquired = append(acquired, s.entityLock(&s.productLocks, id))
	}

	for _, m := range acquired {
		m.Lock()
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func (s *Store) entityLock(locks *sync.Map, id string) *sync.Mutex {
	actual, _ := locks.LoadOrStore(id, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func (s *Store) getOrder(id string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	return order, ok
}

func (s *Store) getProduct(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	return product, ok
}

// storeTx буферизует записи атомарной единицы до коммита: до вызова commit
// другие вызовы не видят никаких изменений.
type storeTx struct {
	store *Store

	savedOrder *domain.Order
	quantities map[string]int64
	movements  []domain.StockMovement
	outbox     []domain.OutboxMessage
}

// Order возвращает заказ с учётом буферизованной записи (read-your-writes).
func (t *storeTx) Order(id string) (domain.Order, error) {
	if t.savedOrder != nil && t.savedOrder.ID == id {
		return *t.savedOrder, nil
	}
	order, ok := t.store.getOrder(id)
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// SaveOrder проверяет версию против закоммиченного состояния и буферизует запись.
func (t *storeTx) SaveOrder(order domain.Order) error {
	current, ok := t.store.getOrder(order.ID)
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrVersionConflict
	}
	order.Version++
	t.savedOrder = &order
	return nil
}

// ProductForUpdate возвращает товар; эксклюзивность обеспечивает lockScope.
func (t *storeTx) ProductForUpdate(id string) (domain.Product, error) {
	product, ok := t.store.getProduct(id)
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if qty, buffered := t.quantities[id]; buffered {
		product.Quantity = qty
	}
	return product, nil
}

// AppendMovement буферизует запись журнала движений.
func (t *storeTx) AppendMovement(movement domain.StockMovement) error {
	if _, ok := t.store.getProduct(movement.ProductID); !ok {
		return domain.ErrProductNotFound
	}
	t.movements = append(t.movements, movement)
	return nil
}

// SetProductQuantity буферизует новый остаток товара.
func (t *storeTx) SetProductQuantity(id string, quantity int64) error {
	if _, ok := t.store.getProduct(id); !ok {
		return domain.ErrProductNotFound
	}
	t.quantities[id] = quantity
	return nil
}

// EnqueueOutbox буферизует событие; в outbox оно попадёт только на коммите.
func (t *storeTx) EnqueueOutbox(msg domain.OutboxMessage) error {
	t.outbox = append(t.outbox, msg)
	return nil
}

func (t *storeTx) commit() {
	now := time.Now().UTC()

	t.store.mu.Lock()
	if t.savedOrder != nil {
		t.store.orders[t.savedOrder.ID] = *t.savedOrder
	}
	for id, qty := range t.quantities {
		product := t.store.products[id]
		product.Quantity = qty
		product.UpdatedAt = now
		t.store.products[id] = product
	}
	for _, movement := range t.movements {
		t.store.movements[movement.ProductID] = append(t.store.movements[movement.ProductID], movement)
	}
	t.store.mu.Unlock()

	if t.store.outbox == nil {
		return
	}
	for _, msg := range t.outbox {
		// In-memory outbox не отказывает; ошибка здесь означает багу конфигурации.
		_, _ = t.store.outbox.Enqueue(msg)
	}
}

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*storeTx)(nil)
