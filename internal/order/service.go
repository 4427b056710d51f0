package order

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/db"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/inventory"
)

// StockReleaser restores reserved stock inside the cancellation transaction.
type StockReleaser interface {
	ReleaseWithTx(ctx context.Context, tx db.Tx, lines []inventory.Line) error
}

type EventPublisher interface {
	PublishOrderCancelled(ctx context.Context, orderID, userID string) error
}

type Service struct {
	pool   db.Pool
	repo   Repository
	ledger StockReleaser
	events EventPublisher
	logger *log.Logger
}

func NewService(pool db.Pool, repo Repository, ledger StockReleaser, events EventPublisher, logger *log.Logger) *Service {
	return &Service{pool: pool, repo: repo, ledger: ledger, events: events, logger: logger}
}

// Get returns the order if the actor owns it or is an admin.
func (s *Service) Get(ctx context.Context, actor auth.Identity, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, actor auth.Identity) ([]Order, error) {
	return s.repo.ListByUser(ctx, actor.ID)
}

// UpdateStatus applies a status transition under the state-machine policy.
// The legality check runs against the row locked in the same transaction, and
// cancelling a pending/processing order releases its reserved stock in that
// transaction too. The returned message, when non-empty, is an advisory note
// for the user (the bank-transfer refund instruction).
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Identity, orderID string, target Status, note string) (*Order, string, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := s.repo.GetByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, "", err
	}

	decision := DecideTransition(o.Status, target, actor.Role, o.UserID == actor.ID, o.PaymentMethod, o.HasPaymentProof())
	if !decision.Allowed {
		return nil, "", decision.Reason
	}

	previous := o.Status
	if err := s.repo.UpdateStatusWithTx(ctx, tx, orderID, target, note); err != nil {
		return nil, "", err
	}

	if target == StatusCancelled && stockStillReserved(previous) {
		if err := s.ledger.ReleaseWithTx(ctx, tx, orderLines(o)); err != nil {
			return nil, "", fmt.Errorf("release stock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("commit: %w", err)
	}

	o.Status = target
	if note != "" {
		o.Note = note
	}

	if target == StatusCancelled {
		if err := s.events.PublishOrderCancelled(ctx, o.ID, o.UserID); err != nil {
			s.logger.Printf("publish OrderCancelled for %s: %v", o.ID, err)
		}
	}

	return o, decision.Message, nil
}

// stockStillReserved reports whether an order in the given status still holds
// its inventory reservation. Once shipped the goods have left the shelf.
func stockStillReserved(s Status) bool {
	return s == StatusPending || s == StatusProcessing
}

func orderLines(o *Order) []inventory.Line {
	lines := make([]inventory.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, inventory.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}
