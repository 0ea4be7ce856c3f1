package domain

import "errors"

var (
	// ErrInvalidTransition — запрошенный переход статуса не входит в граф переходов.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrInsufficientStock — движение увело бы остаток товара в минус.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар не найден в хранилище.
	ErrProductNotFound = errors.New("product not found")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении заказа.
	ErrVersionConflict = errors.New("order version conflict")
	// ErrAlreadyExists — запись с таким идентификатором уже создана.
	// В отличие от конфликтов версий повтор операции не имеет смысла.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConcurrencyConflict — атомарная единица не закоммичена из-за конкуренции;
	// операцию безопасно повторить целиком.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара в позиции (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product_id is required")
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательного остатка при создании товара.
	ErrQuantityNegative = errors.New("product quantity must be non-negative")
	// Ошибка неподдерживаемого вида движения.
	ErrMovementKindInvalid = errors.New("unsupported stock movement kind")
	// Ошибка некорректного количества в движении: направление несёт kind, а не знак.
	ErrMovementQtyInvalid = errors.New("movement quantity must be greater than zero")
	// Ошибка отсутствующего направления для корректировки остатка.
	ErrAdjustmentDirection = errors.New("adjustment movement requires a direction")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsConflict проверяет, относится ли ошибка к повторяемым конфликтам.
func IsConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrConcurrencyConflict)
}

// IsNotFound проверяет, является ли ошибка отсутствием заказа или товара.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrProductNotFound)
}
