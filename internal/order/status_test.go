package order

import (
	"errors"
	"testing"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
)

func TestDecideTransition(t *testing.T) {
	tests := map[string]struct {
		current  Status
		target   Status
		role     auth.Role
		isOwner  bool
		method   PaymentMethod
		hasProof bool

		wantAllowed bool
		wantReason  error
		wantMessage bool
	}{
		"admin may set any valid status": {
			current: StatusDelivered, target: StatusCompleted,
			role: auth.RoleAdmin, wantAllowed: true,
		},
		"admin may cancel a shipped order": {
			current: StatusShipped, target: StatusCancelled,
			role: auth.RoleAdmin, wantAllowed: true,
		},
		"admin may cancel a bank order with proof": {
			current: StatusProcessing, target: StatusCancelled,
			role: auth.RoleAdmin, method: MethodBank, hasProof: true,
			wantAllowed: true,
		},
		"admin cannot set an unknown status": {
			current: StatusPending, target: Status("teleported"),
			role: auth.RoleAdmin, wantReason: ErrInvalidStatus,
		},
		"owner may cancel a pending cod order": {
			current: StatusPending, target: StatusCancelled,
			role: auth.RoleUser, isOwner: true, method: MethodCOD,
			wantAllowed: true,
		},
		"owner may cancel a processing cod order": {
			current: StatusProcessing, target: StatusCancelled,
			role: auth.RoleUser, isOwner: true, method: MethodCOD,
			wantAllowed: true,
		},
		"owner cannot cancel a shipped order": {
			current: StatusShipped, target: StatusCancelled,
			role: auth.RoleUser, isOwner: true, method: MethodCOD,
			wantReason: ErrCannotCancel,
		},
		"owner cannot cancel a delivered order": {
			current: StatusDelivered, target: StatusCancelled,
			role: auth.RoleUser, isOwner: true, method: MethodCOD,
			wantReason: ErrCannotCancel,
		},
		"owner cannot cancel a completed order": {
			current: StatusCompleted, target: StatusCancelled,
			role: auth.RoleUser, isOwner: true, method: MethodCOD,
			wantReason: ErrCannotCancel,
		},
		"owner cannot move an order forward": {
			current: StatusPending, target: StatusShipped,
			role: auth.RoleUser, isOwner: true, method: MethodCOD,
			wantReason: ErrForbidden,
		},
		"non-owner cannot cancel": {
			current: StatusPending, target: StatusCancelled,
			role: auth.RoleUser, isOwner: false, method: MethodCOD,
			wantReason: ErrForbidden,
		},
		"bank order with proof is frozen for the owner": {
			current: StatusPending, target: StatusCancelled,
			role: auth.RoleUser, isOwner: true, method: MethodBank, hasProof: true,
			wantReason: ErrProofFrozen,
		},
		"bank order without proof cancels with a refund note": {
			current: StatusPending, target: StatusCancelled,
			role: auth.RoleUser, isOwner: true, method: MethodBank,
			wantAllowed: true, wantMessage: true,
		},
		"unknown status literal from a user": {
			current: StatusPending, target: Status("refunded"),
			role: auth.RoleUser, isOwner: true, method: MethodCOD,
			wantReason: ErrInvalidStatus,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := DecideTransition(tt.current, tt.target, tt.role, tt.isOwner, tt.method, tt.hasProof)

			if d.Allowed != tt.wantAllowed {
				t.Fatalf("Allowed = %v, want %v (reason %v)", d.Allowed, tt.wantAllowed, d.Reason)
			}
			if tt.wantReason != nil && !errors.Is(d.Reason, tt.wantReason) {
				t.Fatalf("Reason = %v, want %v", d.Reason, tt.wantReason)
			}
			if tt.wantAllowed && d.Reason != nil {
				t.Fatalf("allowed decision carries reason %v", d.Reason)
			}
			if tt.wantMessage && d.Message == "" {
				t.Fatalf("expected an advisory message")
			}
			if !tt.wantAllowed && d.Message != "" {
				t.Fatalf("denied decision carries message %q", d.Message)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCompleted, StatusCancelled} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	for _, s := range []Status{"", "Pending", "refunded", "done"} {
		if s.Valid() {
			t.Fatalf("%s should be invalid", s)
		}
	}
}
