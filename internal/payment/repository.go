package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/db"
)

var (
	ErrNotFound      = errors.New("payment not found")
	ErrNotRefundable = errors.New("payment is not refundable")
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByTxnRef(ctx context.Context, txnRef string) (*Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	MarkCompleted(ctx context.Context, txnRef, gatewayTxnNo string) error
	MarkFailed(ctx context.Context, txnRef, gatewayTxnNo string) error
	MarkRefunded(ctx context.Context, orderID, refundTxnNo string, amount float64, reason string) error
}

type repo struct {
	pool db.Pool
}

func NewRepository(pool db.Pool) Repository {
	return &repo{pool: pool}
}

func (r *repo) Create(ctx context.Context, p *Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (id, order_id, method, txn_ref, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.OrderID, string(p.Method), p.TxnRef, p.Amount, string(p.Status), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

const paymentColumns = `id, order_id, method, txn_ref, amount, status,
	gateway_txn_no, refund_txn_no, refund_amount, refund_reason, created_at, updated_at`

func scanPayment(row pgx.Row, p *Payment) error {
	return row.Scan(&p.ID, &p.OrderID, &p.Method, &p.TxnRef, &p.Amount, &p.Status,
		&p.GatewayTxnNo, &p.RefundTxnNo, &p.RefundAmount, &p.RefundReason, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repo) GetByTxnRef(ctx context.Context, txnRef string) (*Payment, error) {
	var p Payment
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE txn_ref = $1`, txnRef)
	if err := scanPayment(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}

func (r *repo) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	var p Payment
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1
	`, orderID)
	if err := scanPayment(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}

// MarkCompleted moves a pending payment to completed. The status guard is in
// the statement so a replayed callback cannot flip a terminal record.
func (r *repo) MarkCompleted(ctx context.Context, txnRef, gatewayTxnNo string) error {
	return r.settle(ctx, txnRef, gatewayTxnNo, StatusCompleted)
}

func (r *repo) MarkFailed(ctx context.Context, txnRef, gatewayTxnNo string) error {
	return r.settle(ctx, txnRef, gatewayTxnNo, StatusFailed)
}

func (r *repo) settle(ctx context.Context, txnRef, gatewayTxnNo string, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments
		SET status = $2, gateway_txn_no = $3, updated_at = now()
		WHERE txn_ref = $1 AND status = $4
	`, txnRef, string(status), gatewayTxnNo, string(StatusPending))
	if err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) MarkRefunded(ctx context.Context, orderID, refundTxnNo string, amount float64, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments
		SET status = $2, refund_txn_no = $3, refund_amount = $4, refund_reason = $5, updated_at = now()
		WHERE order_id = $1 AND status = $6
	`, orderID, string(StatusRefunded), refundTxnNo, amount, reason, string(StatusCompleted))
	if err != nil {
		return fmt.Errorf("mark refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotRefundable
	}
	return nil
}
