package memory

import (
	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
)

// productRepositoryInMemory — read-сторона товаров и журнала движений
// поверх общего Store. Остаток товара здесь не меняется: запись идёт только
// через атомарные единицы Store.WithinTx.
type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает in-memory репозиторий товаров поверх store.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

// Create сохраняет новый товар, если ID ещё не занят.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.products[product.ID]; exists {
		return domain.ErrAlreadyExists
	}
	r.store.products[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound, если его нет.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	product, ok := r.store.getProduct(id)
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// ListMovements возвращает журнал движений товара, новые записи первыми.
func (r *productRepositoryInMemory) ListMovements(productID string, limit int) ([]domain.StockMovement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, ok := r.store.products[productID]; !ok {
		return nil, domain.ErrProductNotFound
	}

	stored := r.store.movements[productID]
	result := make([]domain.StockMovement, 0, len(stored))
	// Журнал хранится в порядке коммитов; отдаём в обратном порядке.
	for i := len(stored) - 1; i >= 0; i-- {
		result = append(result, stored[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}

	return result, nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
