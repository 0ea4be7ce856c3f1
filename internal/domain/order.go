package domain

import (
	"fmt"
	"time"
)

// OrderStatus описывает жизненный цикл заказа в админке магазина.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, обработка ещё не началась.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ принят в работу, товар зарезервирован.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен покупателю (терминальный статус).
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCanceled — заказ отменён (терминальный статус).
	OrderStatusCanceled OrderStatus = "canceled"
)

// orderTransitions — граф допустимых переходов статуса в виде данных.
// Любое ребро, которого здесь нет, запрещено: в том числе петли
// и любые переходы из терминальных статусов.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCanceled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCanceled:   {},
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal возвращает true, если у статуса нет исходящих рёбер.
func IsTerminal(status OrderStatus) bool {
	return len(orderTransitions[status]) == 0 && status.Valid()
}

// CanTransition возвращает true, если переход from -> to есть в графе.
// Запрос "можно ли?" и команда "сделай" обязаны опираться на одну таблицу,
// иначе UI и мутация разойдутся во мнениях.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses возвращает допустимые статусы-наследники для from.
func NextStatuses(from OrderStatus) []OrderStatus {
	next := make([]OrderStatus, len(orderTransitions[from]))
	copy(next, orderTransitions[from])
	return next
}

// ApplyTransition возвращает копию заказа с новым статусом либо
// ErrInvalidTransition, если ребра нет. Исходный заказ не мутируется,
// персистентность — ответственность вызывающего.
func ApplyTransition(order Order, to OrderStatus) (Order, error) {
	if !CanTransition(order.Status, to) {
		return order, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}
	order.Status = to
	return order, nil
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — товар каталога, к которому относится позиция.
	ProductID string
	// Qty — количество единиц товара.
	Qty int64
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции.
// Статус меняется только через ApplyTransition; заказы никогда не удаляются,
// терминальные статусы хранятся для аудита.
type Order struct {
	ID         string
	CustomerID string
	Status     OrderStatus
	Items      []OrderItem
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.ProductID == "" {
			errs = append(errs, ErrProductIDRequired)
		}
	}

	return errs
}
