package cart

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type Repository interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	UpsertLine(ctx context.Context, userID string, line Item) error
	RemoveLine(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetCart(ctx context.Context, userID string) (*Cart, error) {
	const cartQuery = `SELECT id, user_id, updated_at FROM carts WHERE user_id = $1`

	var c Cart
	err := r.db.QueryRowContext(ctx, cartQuery, userID).Scan(&c.ID, &c.UserID, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// no cart yet; callers treat nil as empty
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, quantity, price FROM cart_items WHERE cart_id = $1`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &c, nil
}

// UpsertLine creates the user's cart on first add and inserts or replaces the
// line for the product. The stored price is the price at add time; it is
// display data only, checkout recomputes from the catalog.
func (r *repo) UpsertLine(ctx context.Context, userID string, line Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertCartSQL = `
INSERT INTO carts (id, user_id, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE
SET updated_at = NOW()
RETURNING id
`
	var cartID string
	if err = tx.QueryRowContext(ctx, upsertCartSQL, uuid.NewString(), userID).Scan(&cartID); err != nil {
		return err
	}

	const upsertItemSQL = `
INSERT INTO cart_items (id, cart_id, product_id, quantity, price)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = EXCLUDED.quantity, price = EXCLUDED.price
`
	if _, err = tx.ExecContext(ctx, upsertItemSQL, uuid.NewString(), cartID, line.ProductID, line.Quantity, line.Price); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

func (r *repo) RemoveLine(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE product_id = $2
		  AND cart_id = (SELECT id FROM carts WHERE user_id = $1)
	`, userID, productID)
	return err
}

func (r *repo) ClearCart(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
