package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
)

var (
	ErrNotBankOrder = errors.New("order is not a bank-transfer order")
	ErrNotPayable   = errors.New("order is no longer payable")
)

type OrderStore interface {
	GetByID(ctx context.Context, orderID string) (*order.Order, error)
	MarkProcessingIfPending(ctx context.Context, orderID string) (bool, error)
}

type EventPublisher interface {
	PublishPaymentSucceeded(ctx context.Context, orderID, txnRef string) error
	PublishPaymentFailed(ctx context.Context, orderID, txnRef, code string) error
}

type Service struct {
	repo    Repository
	orders  OrderStore
	gateway *Gateway
	events  EventPublisher
	logger  *log.Logger
}

func NewService(repo Repository, orders OrderStore, gateway *Gateway, events EventPublisher, logger *log.Logger) *Service {
	return &Service{repo: repo, orders: orders, gateway: gateway, events: events, logger: logger}
}

// CreatePaymentURL opens a gateway payment attempt for a pending bank-transfer
// order and returns the signed redirect URL.
func (s *Service) CreatePaymentURL(ctx context.Context, actor auth.Identity, orderID, clientIP string) (string, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return "", order.ErrForbidden
	}
	if o.PaymentMethod != order.MethodBank {
		return "", ErrNotBankOrder
	}
	if o.Status != order.StatusPending {
		return "", ErrNotPayable
	}

	p := &Payment{
		OrderID: o.ID,
		Method:  o.PaymentMethod,
		TxnRef:  uuid.NewString(),
		Amount:  o.TotalAmount,
		Status:  StatusPending,
	}

	params, err := s.gateway.BuildPaymentRequest(o, p.TxnRef, clientIP, time.Now())
	if err != nil {
		return "", err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return "", fmt.Errorf("create payment: %w", err)
	}

	return s.gateway.PaymentURL(params), nil
}

// HandleCallback processes a gateway callback. A verified signature is the
// only trigger that may settle a payment; the order itself only advances
// through its own guarded transition, never directly from callback fields.
func (s *Service) HandleCallback(ctx context.Context, query url.Values) (*Payment, error) {
	data, err := s.gateway.VerifyCallback(query)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetByTxnRef(ctx, data.TxnRef)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusPending {
		// Gateway retries deliver the same callback more than once.
		s.logger.Printf("callback for settled payment %s ignored (status %s)", p.TxnRef, p.Status)
		return p, nil
	}

	if data.Success {
		if err := s.repo.MarkCompleted(ctx, p.TxnRef, data.GatewayTxnNo); err != nil {
			return nil, err
		}
		p.Status = StatusCompleted
		p.GatewayTxnNo = data.GatewayTxnNo

		advanced, err := s.orders.MarkProcessingIfPending(ctx, p.OrderID)
		if err != nil {
			return nil, err
		}
		if !advanced {
			s.logger.Printf("order %s not advanced by payment %s (no longer pending)", p.OrderID, p.TxnRef)
		}

		if err := s.events.PublishPaymentSucceeded(ctx, p.OrderID, p.TxnRef); err != nil {
			s.logger.Printf("publish PaymentSucceeded for %s: %v", p.OrderID, err)
		}
		return p, nil
	}

	if err := s.repo.MarkFailed(ctx, p.TxnRef, data.GatewayTxnNo); err != nil {
		return nil, err
	}
	p.Status = StatusFailed
	p.GatewayTxnNo = data.GatewayTxnNo

	if err := s.events.PublishPaymentFailed(ctx, p.OrderID, p.TxnRef, data.ResponseCode); err != nil {
		s.logger.Printf("publish PaymentFailed for %s: %v", p.OrderID, err)
	}
	return p, nil
}

// Refund records an admin-initiated refund on a completed payment. Caller
// authorization is enforced at the route level.
func (s *Service) Refund(ctx context.Context, orderID string, amount float64, reason string) (*Payment, error) {
	refundTxnNo := uuid.NewString()
	if err := s.repo.MarkRefunded(ctx, orderID, refundTxnNo, amount, reason); err != nil {
		return nil, err
	}
	s.logger.Printf("refunded payment for order %s: %.2f (%s)", orderID, amount, reason)
	return s.repo.GetByOrderID(ctx, orderID)
}
