package domain

import "time"

// Product описывает товар каталога с кэшированным остатком на складе.
// Quantity меняется исключительно через StockLedger и в любой момент равен
// сумме дельт всех закоммиченных движений товара.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет, корректно ли заполнены ключевые поля товара.
func (p *Product) Validate() []error {
	var errs []error

	if p.ID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.Quantity < 0 {
		errs = append(errs, ErrQuantityNegative)
	}

	return errs
}
