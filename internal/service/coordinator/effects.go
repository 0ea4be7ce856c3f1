package coordinator

import "github.com/vladislavdragonenkov/shopadmin/internal/domain"

// StatusEdge — упорядоченная пара статусов (from, to).
type StatusEdge struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

// StockEffect описывает складской эффект ребра перехода: движение указанного
// вида на каждую позицию заказа, со ссылкой ("order", orderID).
type StockEffect struct {
	Kind      domain.MovementKind
	Direction domain.MovementDirection
	Reason    string
}

// EffectRegistry сопоставляет рёбрам переходов их складские эффекты.
// Обычное значение-карта: политику можно подменить в тестах и конфигурации.
type EffectRegistry map[StatusEdge]StockEffect

// DefaultEffects возвращает политику по умолчанию: приём заказа в работу
// резервирует товар расходом, отмена из processing возвращает резерв приходом.
// Остальные рёбра остаток не трогают.
func DefaultEffects() EffectRegistry {
	return EffectRegistry{
		{From: domain.OrderStatusPending, To: domain.OrderStatusProcessing}: {
			Kind:   domain.MovementOutbound,
			Reason: "order processing",
		},
		{From: domain.OrderStatusProcessing, To: domain.OrderStatusCanceled}: {
			Kind:   domain.MovementInbound,
			Reason: "order canceled",
		},
	}
}
