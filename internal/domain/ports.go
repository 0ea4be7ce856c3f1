package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов (read-сторона).
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(customerID string, limit int) ([]Order, error)
}

// ProductRepository описывает требования к хранилищу товаров (read-сторона).
// Запись Quantity сюда намеренно не входит: остаток меняется только через
// StockLedger и атомарную единицу Store.
type ProductRepository interface {
	// Create сохраняет новый товар каталога.
	Create(product Product) error
	// Get возвращает товар или ErrProductNotFound, если его нет.
	Get(id string) (Product, error)
	// ListMovements возвращает журнал движений товара, новые записи первыми.
	ListMovements(productID string, limit int) ([]StockMovement, error)
}

// TxScope перечисляет агрегаты, которые участвуют в атомарной единице.
// Хранилище обязано сериализовать конкурентные единицы с пересекающимися
// scope и не блокировать единицы с непересекающимися.
type TxScope struct {
	OrderID    string
	ProductIDs []string
}

// Tx предоставляет операции, доступные внутри атомарной единицы.
// Все записи становятся видимыми другим вызовам только после коммита.
type Tx interface {
	// Order возвращает заказ по идентификатору или ErrOrderNotFound.
	Order(id string) (Order, error)
	// SaveOrder перезаписывает заказ с проверкой версии (optimistic locking).
	SaveOrder(order Order) error
	// ProductForUpdate возвращает товар, захватывая его до конца единицы.
	ProductForUpdate(id string) (Product, error)
	// AppendMovement добавляет неизменяемую запись журнала остатков.
	AppendMovement(movement StockMovement) error
	// SetProductQuantity выставляет кэшированный остаток товара.
	SetProductQuantity(id string, quantity int64) error
	// EnqueueOutbox регистрирует событие для публикации после коммита.
	EnqueueOutbox(msg OutboxMessage) error
}

// Store исполняет fn как одну атомарную единицу: все операции Tx внутри fn
// коммитятся или откатываются вместе. Ошибка fn откатывает единицу целиком.
type Store interface {
	WithinTx(ctx context.Context, scope TxScope, fn func(tx Tx) error) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}
