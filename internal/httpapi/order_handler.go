package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
)

type OrderService interface {
	Get(ctx context.Context, actor auth.Identity, orderID string) (*order.Order, error)
	ListForUser(ctx context.Context, actor auth.Identity) ([]order.Order, error)
	UpdateStatus(ctx context.Context, actor auth.Identity, orderID string, target order.Status, note string) (*order.Order, string, error)
}

type OrderHandler struct {
	svc OrderService
}

func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "orderId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.svc.Get(ctx, actor, orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.svc.ListForUser(ctx, actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "orderId")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, message, err := h.svc.UpdateStatus(ctx, actor, orderID, order.Status(req.Status), req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{"order": o}
	if message != "" {
		resp["message"] = message
	}
	writeJSON(w, http.StatusOK, resp)
}
