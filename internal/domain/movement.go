package domain

import "time"

// MovementKind определяет вид складского движения.
type MovementKind string

const (
	// MovementInbound — приход товара на склад (+quantity).
	MovementInbound MovementKind = "inbound"
	// MovementOutbound — расход товара со склада (-quantity).
	MovementOutbound MovementKind = "outbound"
	// MovementAdjustment — ручная корректировка; направление задаётся явно.
	MovementAdjustment MovementKind = "adjustment"
	// MovementReturn — возврат товара от покупателя (+quantity).
	MovementReturn MovementKind = "return"
)

// Valid проверяет, что вид движения поддерживается.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementInbound, MovementOutbound, MovementAdjustment, MovementReturn:
		return true
	default:
		return false
	}
}

// MovementDirection задаёт направление для корректировок остатка.
type MovementDirection string

const (
	// DirectionIn — корректировка в плюс.
	DirectionIn MovementDirection = "in"
	// DirectionOut — корректировка в минус.
	DirectionOut MovementDirection = "out"
)

// MovementRef — полиморфная ссылка на бизнес-событие, породившее движение
// (например, "order"/42 для отмены заказа).
type MovementRef struct {
	Type string
	ID   string
}

// StockMovement — неизменяемая запись журнала остатков. Создаётся только
// StockLedger'ом вместе с обновлением Quantity товара; никогда не
// обновляется и не удаляется.
type StockMovement struct {
	ID        string
	ProductID string
	Kind      MovementKind
	// Quantity хранится по модулю: направление несёт Kind (и Direction для
	// корректировок), чтобы записи журнала читались однозначно.
	Quantity  int64
	Direction MovementDirection
	Reason    string
	Ref       *MovementRef
	CreatedAt time.Time
}

// SignedDelta возвращает знаковое изменение остатка, которое несёт движение.
func (m *StockMovement) SignedDelta() int64 {
	switch m.Kind {
	case MovementInbound, MovementReturn:
		return m.Quantity
	case MovementOutbound:
		return -m.Quantity
	case MovementAdjustment:
		if m.Direction == DirectionOut {
			return -m.Quantity
		}
		return m.Quantity
	default:
		return 0
	}
}

// Validate проверяет, корректно ли заполнены ключевые поля движения.
func (m *StockMovement) Validate() []error {
	var errs []error

	if m.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if !m.Kind.Valid() {
		errs = append(errs, ErrMovementKindInvalid)
	}
	if m.Quantity <= 0 {
		errs = append(errs, ErrMovementQtyInvalid)
	}
	if m.Kind == MovementAdjustment && m.Direction != DirectionIn && m.Direction != DirectionOut {
		errs = append(errs, ErrAdjustmentDirection)
	}

	return errs
}
