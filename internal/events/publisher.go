package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
)

const (
	OrderCreatedQueue     = "order.created"
	OrderCancelledQueue   = "order.cancelled"
	PaymentSucceededQueue = "payment.succeeded"
	PaymentFailedQueue    = "payment.failed"
)

// Publisher emits notification events. Consumers (the mailer, dashboards) are
// fire-and-forget: callers log publish failures and carry on.
type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, q := range []string{OrderCreatedQueue, OrderCancelledQueue, PaymentSucceededQueue, PaymentFailedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	ev := OrderCreated{
		EventType:   EventTypeOrderCreated,
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}

	return p.publish(ctx, OrderCreatedQueue, ev)
}

func (p *Publisher) PublishOrderCancelled(ctx context.Context, orderID, userID string) error {
	return p.publish(ctx, OrderCancelledQueue, OrderCancelled{
		EventType: EventTypeOrderCancelled,
		OrderID:   orderID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Publisher) PublishPaymentSucceeded(ctx context.Context, orderID, txnRef string) error {
	return p.publish(ctx, PaymentSucceededQueue, PaymentSucceeded{
		EventType: EventTypePaymentSucceeded,
		OrderID:   orderID,
		TxnRef:    txnRef,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Publisher) PublishPaymentFailed(ctx context.Context, orderID, txnRef, code string) error {
	return p.publish(ctx, PaymentFailedQueue, PaymentFailed{
		EventType: EventTypePaymentFailed,
		OrderID:   orderID,
		TxnRef:    txnRef,
		Code:      code,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, routingKey string, ev any) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", ev, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// MustDialRabbit connects to RabbitMQ or exits.
func MustDialRabbit(url string) *amqp.Connection {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("connect to RabbitMQ: %v", err)
	}
	return conn
}
