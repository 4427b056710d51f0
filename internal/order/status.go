package order

import (
	"errors"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var (
	ErrNotFound      = errors.New("order not found")
	ErrForbidden     = errors.New("not allowed")
	ErrInvalidStatus = errors.New("invalid status")
	ErrCannotCancel  = errors.New("order can no longer be cancelled")
	ErrProofFrozen   = errors.New("payment already recorded, contact the shop for a refund")
)

// Decision is the outcome of a transition request. Reason carries one of the
// package sentinels when denied; Message is an advisory note shown to the user
// on allowed transitions.
type Decision struct {
	Allowed bool
	Reason  error
	Message string
}

func allow(message string) Decision { return Decision{Allowed: true, Message: message} }
func deny(reason error) Decision    { return Decision{Reason: reason} }

// DecideTransition is the full cancellation/status policy as a pure function,
// evaluated against the status read within the same transaction as the write.
//
// Admins may set any structurally valid status. Non-admin owners may only
// cancel, and only while the order is pending or processing. A bank-transfer
// order with a recorded payment proof cannot be self-cancelled; without proof
// it can, but the user is told to contact the shop about any transfer already
// made (no automatic refund here).
func DecideTransition(current, target Status, role auth.Role, isOwner bool, method PaymentMethod, hasProof bool) Decision {
	if !target.Valid() {
		return deny(ErrInvalidStatus)
	}

	if role == auth.RoleAdmin {
		return allow("")
	}

	if !isOwner || target != StatusCancelled {
		return deny(ErrForbidden)
	}

	if current != StatusPending && current != StatusProcessing {
		return deny(ErrCannotCancel)
	}

	if method == MethodBank {
		if hasProof {
			return deny(ErrProofFrozen)
		}
		return allow("order cancelled; contact the shop to arrange a refund of any transfer already made")
	}

	return allow("")
}
