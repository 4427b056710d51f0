package events

import "time"

const (
	EventTypeOrderCreated     = "OrderCreated"
	EventTypeOrderCancelled   = "OrderCancelled"
	EventTypePaymentSucceeded = "PaymentSucceeded"
	EventTypePaymentFailed    = "PaymentFailed"
)

type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderCreated struct {
	EventType   string      `json:"eventType"`
	OrderID     string      `json:"orderId"`
	UserID      string      `json:"userId"`
	TotalAmount float64     `json:"totalAmount"`
	Items       []OrderItem `json:"items"`
	Timestamp   time.Time   `json:"timestamp"`
}

type OrderCancelled struct {
	EventType string    `json:"eventType"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type PaymentSucceeded struct {
	EventType string    `json:"eventType"`
	OrderID   string    `json:"orderId"`
	TxnRef    string    `json:"txnRef"`
	Timestamp time.Time `json:"timestamp"`
}

type PaymentFailed struct {
	EventType string    `json:"eventType"`
	OrderID   string    `json:"orderId"`
	TxnRef    string    `json:"txnRef"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}
