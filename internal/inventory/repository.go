package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/db"
)

var ErrNotFound = errors.New("not found")

// InsufficientStockError reports the first line that could not be reserved.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

type Repository interface {
	Get(ctx context.Context, productID string) (StockItem, error)
	SetAvailable(ctx context.Context, productID string, available int) error
	Reserve(ctx context.Context, lines []Line) error
	Release(ctx context.Context, lines []Line) error
}

// TransactionalRepository exposes the tx-scoped variants so callers can
// combine a reservation with other writes in one transaction.
type TransactionalRepository interface {
	Repository
	ReserveWithTx(ctx context.Context, tx db.Tx, lines []Line) error
	ReleaseWithTx(ctx context.Context, tx db.Tx, lines []Line) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, productID string) (StockItem, error) {
	var item StockItem
	row := r.pool.QueryRow(ctx, `SELECT product_id, available FROM inventory_stock WHERE product_id=$1`, productID)
	if err := row.Scan(&item.ProductID, &item.Available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockItem{}, ErrNotFound
		}
		return StockItem{}, err
	}
	return item, nil
}

func (r *PostgresRepository) SetAvailable(ctx context.Context, productID string, available int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inventory_stock(product_id, available)
		VALUES($1, $2)
		ON CONFLICT (product_id) DO UPDATE SET available=EXCLUDED.available, updated_at=now()
	`, productID, available)
	return err
}

// Reserve performs the check-and-decrement for all lines as one atomic unit:
// each product row is locked (SELECT ... FOR UPDATE), and if any line is short
// the transaction rolls back with no mutation.
func (r *PostgresRepository) Reserve(ctx context.Context, lines []Line) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.ReserveWithTx(ctx, tx, lines); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Release is the inverse of Reserve, used when a still-cancellable order is
// cancelled after its stock was decremented.
func (r *PostgresRepository) Release(ctx context.Context, lines []Line) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.ReleaseWithTx(ctx, tx, lines); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) ReserveWithTx(ctx context.Context, tx db.Tx, lines []Line) error {
	for _, line := range lines {
		var available int
		err := tx.QueryRow(ctx, `
			SELECT available
			FROM inventory_stock
			WHERE product_id=$1
			FOR UPDATE
		`, line.ProductID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				available = 0
			} else {
				return err
			}
		}

		if available < line.Quantity {
			return &InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: available,
			}
		}
	}

	for _, line := range lines {
		_, err := tx.Exec(ctx, `
			UPDATE inventory_stock
			SET available = available - $2, updated_at=now()
			WHERE product_id=$1
		`, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *PostgresRepository) ReleaseWithTx(ctx context.Context, tx db.Tx, lines []Line) error {
	for _, line := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO inventory_stock(product_id, available)
			VALUES($1, $2)
			ON CONFLICT (product_id) DO UPDATE
			SET available = inventory_stock.available + EXCLUDED.available, updated_at=now()
		`, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}
