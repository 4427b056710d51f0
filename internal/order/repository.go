package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/db"
)

type Repository interface {
	CreateWithTx(ctx context.Context, tx db.Tx, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetByIDForUpdate(ctx context.Context, tx db.Tx, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	UpdateStatusWithTx(ctx context.Context, tx db.Tx, orderID string, status Status, note string) error
	MarkProcessingIfPending(ctx context.Context, orderID string) (bool, error)
}

type repo struct {
	pool db.Pool
}

func NewRepository(pool db.Pool) Repository {
	return &repo{pool: pool}
}

// CreateWithTx writes the order header and its lines inside the caller's
// transaction so they commit together with the inventory decrement.
func (r *repo) CreateWithTx(ctx context.Context, tx db.Tx, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	_, err := tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, shipping_address, recipient_name,
		                    phone, note, payment_method, payment_proof_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, o.ID, o.UserID, o.TotalAmount, o.ShippingAddress, o.RecipientName,
		o.Phone, o.Note, string(o.PaymentMethod), o.PaymentProofRef, string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), o.ID, it.ProductID, it.Quantity, it.Price)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, user_id, total_amount, shipping_address, recipient_name,
	phone, note, payment_method, payment_proof_ref, status, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.ShippingAddress, &o.RecipientName,
		&o.Phone, &o.Note, &o.PaymentMethod, &o.PaymentProofRef, &o.Status, &o.CreatedAt, &o.UpdatedAt)
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	if err := scanOrder(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

// GetByIDForUpdate locks the order row so the state-machine check and the
// status write see the same committed status.
func (r *repo) GetByIDForUpdate(ctx context.Context, tx db.Tx, orderID string) (*Order, error) {
	var o Order
	row := tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	if err := scanOrder(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order for update: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT product_id, quantity, price FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &o, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *repo) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity, price FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r *repo) UpdateStatusWithTx(ctx context.Context, tx db.Tx, orderID string, status Status, note string) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2,
		    note = CASE WHEN $3 <> '' THEN $3 ELSE note END,
		    updated_at = now()
		WHERE id = $1
	`, orderID, string(status), note)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// MarkProcessingIfPending is the guarded forward transition driven by a
// verified payment callback. The status check and the write are one statement
// so a concurrent cancellation cannot be overwritten.
func (r *repo) MarkProcessingIfPending(ctx context.Context, orderID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, orderID, string(StatusProcessing), string(StatusPending))
	if err != nil {
		return false, fmt.Errorf("mark processing: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
