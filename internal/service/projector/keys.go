package projector

import "time"

// Redis-ключи read model для дашборда.
const (
	// KeyStockQuantities — hash product_id -> текущий остаток.
	KeyStockQuantities = "shopadmin:stock:quantities"

	// KeyLowStock — set product_id с остатком ниже порога.
	KeyLowStock = "shopadmin:stock:low"

	// KeyDedup — dedup обработанных событий: dedup:projector:{movement_id}.
	KeyDedup = "dedup:projector:%s"
)

var (
	// TTLDedup — время жизни dedup-ключа.
	TTLDedup = 48 * time.Hour
)
