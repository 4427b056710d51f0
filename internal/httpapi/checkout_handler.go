package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/checkout"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
)

type CheckoutService interface {
	Checkout(ctx context.Context, actor auth.Identity, req checkout.Request) (*order.Order, error)
}

type CheckoutHandler struct {
	svc CheckoutService
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.svc.Checkout(ctx, actor, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"order": o})
}
