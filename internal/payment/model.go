package payment

import (
	"time"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is the gateway-facing record for one payment attempt. TxnRef is the
// merchant transaction reference carried through the signed request and back
// in the callback.
type Payment struct {
	ID           string              `json:"paymentId"`
	OrderID      string              `json:"orderId"`
	Method       order.PaymentMethod `json:"method"`
	TxnRef       string              `json:"txnRef"`
	Amount       float64             `json:"amount"`
	Status       Status              `json:"status"`
	GatewayTxnNo string              `json:"gatewayTxnNo,omitempty"`
	RefundTxnNo  string              `json:"refundTxnNo,omitempty"`
	RefundAmount float64             `json:"refundAmount,omitempty"`
	RefundReason string              `json:"refundReason,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}
