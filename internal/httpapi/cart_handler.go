package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/cart"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/catalog"
)

type CartHandler struct {
	repo    cart.Repository
	catalog catalog.Repository
}

func NewCartHandler(repo cart.Repository, cat catalog.Repository) *CartHandler {
	return &CartHandler{repo: repo, catalog: cat}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.repo.GetCart(ctx, actor.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if c == nil {
		// no cart yet: an empty one, created lazily on first add
		c = &cart.Cart{UserID: actor.ID, Items: []cart.Item{}}
	}

	writeJSON(w, http.StatusOK, c)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ProductID == "" || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "productId and quantity >= 1 are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// The stored price is the price at add time; checkout recomputes from the
	// live catalog anyway.
	p, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	line := cart.Item{ProductID: req.ProductID, Quantity: req.Quantity, Price: p.Price}
	if err := h.repo.UpsertLine(ctx, actor.ID, line); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.FromContext(r.Context())
	productID := chi.URLParam(r, "productId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.RemoveLine(ctx, actor.ID, productID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
