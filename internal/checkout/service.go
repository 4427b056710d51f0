package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/cart"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/catalog"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/db"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/inventory"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
)

var (
	ErrCartEmpty      = errors.New("cart empty")
	ErrInvalidInput   = errors.New("invalid checkout input")
	ErrUnknownProduct = errors.New("product no longer available")
)

type Request struct {
	ShippingAddress string              `json:"shippingAddress"`
	RecipientName   string              `json:"name"`
	Phone           string              `json:"phone"`
	Note            string              `json:"note,omitempty"`
	PaymentMethod   order.PaymentMethod `json:"paymentMethod"`
	PaymentProofRef string              `json:"paymentProofRef,omitempty"`
}

// StockReserver performs the atomic check-and-decrement for all lines inside
// the caller's transaction.
type StockReserver interface {
	ReserveWithTx(ctx context.Context, tx db.Tx, lines []inventory.Line) error
}

type OrderWriter interface {
	CreateWithTx(ctx context.Context, tx db.Tx, o *order.Order) error
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *order.Order) error
}

// Service turns a cart into a persisted order. The reservation and the order
// insert share one transaction: an order never exists without its stock having
// been decremented, and a failed reservation leaves no trace.
type Service struct {
	pool    db.Pool
	carts   cart.Repository
	catalog catalog.Repository
	ledger  StockReserver
	orders  OrderWriter
	events  EventPublisher
	logger  *log.Logger
}

func NewService(pool db.Pool, carts cart.Repository, cat catalog.Repository, ledger StockReserver, orders OrderWriter, events EventPublisher, logger *log.Logger) *Service {
	return &Service{pool: pool, carts: carts, catalog: cat, ledger: ledger, orders: orders, events: events, logger: logger}
}

func (r Request) validate() error {
	if strings.TrimSpace(r.ShippingAddress) == "" {
		return fmt.Errorf("%w: shippingAddress is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.RecipientName) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}
	if !r.PaymentMethod.Valid() {
		return fmt.Errorf("%w: paymentMethod must be cod or bank", ErrInvalidInput)
	}
	return nil
}

func (s *Service) Checkout(ctx context.Context, actor auth.Identity, req Request) (*order.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	c, err := s.carts.GetCart(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c == nil || len(c.Items) == 0 {
		return nil, ErrCartEmpty
	}

	// Re-validate every line against the live catalog: current price is the
	// authoritative one, and an early stock check gives a clean error before
	// the reservation races for row locks.
	var (
		items []order.Item
		lines []inventory.Line
		total float64
	)
	for _, it := range c.Items {
		p, err := s.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, it.ProductID)
			}
			return nil, fmt.Errorf("load product %s: %w", it.ProductID, err)
		}
		if p.Available < it.Quantity {
			return nil, &inventory.InsufficientStockError{
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: p.Available,
			}
		}

		items = append(items, order.Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: p.Price})
		lines = append(lines, inventory.Line{ProductID: it.ProductID, Quantity: it.Quantity})
		total += float64(it.Quantity) * p.Price
	}

	o := &order.Order{
		UserID:          actor.ID,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		RecipientName:   strings.TrimSpace(req.RecipientName),
		Phone:           strings.TrimSpace(req.Phone),
		Note:            strings.TrimSpace(req.Note),
		PaymentMethod:   req.PaymentMethod,
		PaymentProofRef: req.PaymentProofRef,
		Status:          order.StatusPending,
	}

	if err := s.createWithReservation(ctx, o, lines); err != nil {
		return nil, err
	}

	// The order is durable from here on; a failed cart clear must not undo it.
	if err := s.carts.ClearCart(ctx, actor.ID); err != nil {
		s.logger.Printf("clear cart for %s after order %s: %v", actor.ID, o.ID, err)
	}

	if err := s.events.PublishOrderCreated(ctx, o); err != nil {
		s.logger.Printf("publish OrderCreated for %s: %v", o.ID, err)
	}

	s.logger.Printf("created order %s for user %s, total %.2f", o.ID, o.UserID, o.TotalAmount)
	return o, nil
}

// createWithReservation runs the reservation and the order insert as one
// transaction. If the reservation loses a race for the last units, the rollback
// releases any rows already decremented and no order row is written.
func (s *Service) createWithReservation(ctx context.Context, o *order.Order, lines []inventory.Line) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.ledger.ReserveWithTx(ctx, tx, lines); err != nil {
		return err
	}

	if err := s.orders.CreateWithTx(ctx, tx, o); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
