package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, sku, name, quantity, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		product.ID, product.SKU, product.Name, product.Quantity,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	product, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT id, sku, name, quantity, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *productRepository) ListMovements(productID string, limit int) ([]domain.StockMovement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, product_id, kind, quantity, direction, reason, ref_type, ref_id, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", productID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0)
	for rows.Next() {
		movement, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock movements: %w", err)
	}

	return movements, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var product domain.Product
	err := row.Scan(
		&product.ID, &product.SKU, &product.Name, &product.Quantity,
		&product.CreatedAt, &product.UpdatedAt,
	)
	return product, err
}

func scanMovement(row rowScanner) (domain.StockMovement, error) {
	var (
		movement  domain.StockMovement
		kind      string
		direction string
		refType   sql.NullString
		refID     sql.NullString
	)

	if err := row.Scan(
		&movement.ID, &movement.ProductID, &kind, &movement.Quantity,
		&direction, &movement.Reason, &refType, &refID, &movement.CreatedAt,
	); err != nil {
		return domain.StockMovement{}, fmt.Errorf("scan stock movement: %w", err)
	}

	movement.Kind = domain.MovementKind(kind)
	movement.Direction = domain.MovementDirection(direction)
	if refType.Valid || refID.Valid {
		movement.Ref = &domain.MovementRef{Type: refType.String, ID: refID.String}
	}

	return movement, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
