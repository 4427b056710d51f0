package order

import "time"

type PaymentMethod string

const (
	MethodCOD  PaymentMethod = "cod"
	MethodBank PaymentMethod = "bank"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCOD || m == MethodBank
}

type Item struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is a frozen snapshot of the purchased lines. TotalAmount is computed
// once at creation and never recomputed; status is the only field mutated
// afterwards (plus note and payment proof in narrow flows).
type Order struct {
	ID              string        `json:"orderId"`
	UserID          string        `json:"userId"`
	Items           []Item        `json:"items"`
	TotalAmount     float64       `json:"totalAmount"`
	ShippingAddress string        `json:"shippingAddress"`
	RecipientName   string        `json:"recipientName"`
	Phone           string        `json:"phone"`
	Note            string        `json:"note,omitempty"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	PaymentProofRef string        `json:"paymentProofRef,omitempty"`
	Status          Status        `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func (o *Order) HasPaymentProof() bool {
	return o.PaymentProofRef != ""
}
