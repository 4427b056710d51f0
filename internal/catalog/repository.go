package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/db"
)

var ErrNotFound = errors.New("product not found")

// Repository is the read side of the product catalog. Checkout re-validates
// price and stock against it instead of trusting cart-cached values.
type Repository interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
	Upsert(ctx context.Context, p Product) error
}

type PostgresRepository struct {
	pool db.Pool
}

func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetProduct(ctx context.Context, productID string) (Product, error) {
	var p Product
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.name, p.price, COALESCE(s.available, 0)
		FROM products p
		LEFT JOIN inventory_stock s ON s.product_id = p.id
		WHERE p.id = $1
	`, productID)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// Upsert writes the product row; stock lives in the inventory ledger.
func (r *PostgresRepository) Upsert(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, price=EXCLUDED.price
	`, p.ID, p.Name, p.Price)
	return err
}
