package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/shopadmin/internal/domain"
)

// WithinTx исполняет fn как одну атомарную единицу поверх SQL-транзакции.
// Участвующие строки захватываются заранее в детерминированном порядке
// (заказ, затем товары по возрастанию id), чтобы пересекающиеся единицы
// сериализовались без deadlock.
func (s *Store) WithinTx(ctx context.Context, scope domain.TxScope, fn func(tx domain.Tx) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin atomic unit: %w", err)
	}

	unit := &pgTx{ctx: ctx, tx: tx}

	if err := unit.lockScope(scope); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := fn(unit); err != nil {
		_ = tx.Rollback()
		return translateConcurrencyError(err)
	}

	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateConcurrencyError(fmt.Errorf("commit atomic unit: %w", err))
	}

	return nil
}

type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *pgTx) lockScope(scope domain.TxScope) error {
	if scope.OrderID != "" {
		// Существование заказа проверяется позже через Order;
		// здесь важен только захват строки.
		var id string
		err := t.tx.QueryRowContext(t.ctx,
			`SELECT id FROM orders WHERE id = $1 FOR UPDATE`, scope.OrderID,
		).Scan(&id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return translateConcurrencyError(fmt.Errorf("lock order %s: %w", scope.OrderID, err))
		}
	}

	ids := append([]string(nil), scope.ProductIDs...)
	sort.Strings(ids)
	var prev string
	for _, id := range ids {
		if id == "" || id == prev {
			continue
		}
		prev = id

		var got string
		err := t.tx.QueryRowContext(t.ctx,
			`SELECT id FROM products WHERE id = $1 FOR UPDATE`, id,
		).Scan(&got)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return translateConcurrencyError(fmt.Errorf("lock product %s: %w", id, err))
		}
	}

	return nil
}

func (t *pgTx) Order(id string) (domain.Order, error) {
	var order domain.Order
	var status string

	err := t.tx.QueryRowContext(t.ctx, `
		SELECT id, customer_id, status, version, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.CustomerID, &status,
		&order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order in unit: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	items, err := loadOrderItems(t.ctx, t.tx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (t *pgTx) SaveOrder(order domain.Order) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE orders
		SET customer_id = $1,
		    status = $2,
		    version = version + 1,
		    updated_at = $3
		WHERE id = $4
		  AND version = $5
	`,
		order.CustomerID, string(order.Status), order.UpdatedAt,
		order.ID, order.Version,
	)
	if err != nil {
		return translateConcurrencyError(fmt.Errorf("update order: %w", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var id string
		err := t.tx.QueryRowContext(t.ctx, `SELECT id FROM orders WHERE id = $1`, order.ID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		return domain.ErrVersionConflict
	}

	return nil
}

func (t *pgTx) ProductForUpdate(id string) (domain.Product, error) {
	product, err := scanProduct(t.tx.QueryRowContext(t.ctx, `
		SELECT id, sku, name, quantity, created_at, updated_at
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, translateConcurrencyError(fmt.Errorf("select product for update: %w", err))
	}

	return product, nil
}

func (t *pgTx) AppendMovement(movement domain.StockMovement) error {
	var refType, refID any
	if movement.Ref != nil {
		refType = movement.Ref.Type
		refID = movement.Ref.ID
	}

	if _, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO stock_movements (
			id, product_id, kind, quantity, direction, reason, ref_type, ref_id, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		movement.ID, movement.ProductID, string(movement.Kind), movement.Quantity,
		string(movement.Direction), movement.Reason, refType, refID, movement.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}

	return nil
}

func (t *pgTx) SetProductQuantity(id string, quantity int64) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE products
		SET quantity = $2,
		    updated_at = $3
		WHERE id = $1
	`, id, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update product quantity: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (t *pgTx) EnqueueOutbox(msg domain.OutboxMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	if _, err := t.tx.ExecContext(t.ctx, insertOutboxSQL,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, now, now,
	); err != nil {
		return fmt.Errorf("enqueue outbox in unit: %w", err)
	}

	return nil
}

// translateConcurrencyError превращает ошибки сериализации и deadlock в
// domain.ErrConcurrencyConflict, чтобы вызывающая сторона могла повторить
// единицу целиком.
func translateConcurrencyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, pgErr.Code)
		}
	}
	return err
}

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*pgTx)(nil)
