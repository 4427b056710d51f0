package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/catalog"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/checkout"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/inventory"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/payment"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the domain sentinels onto HTTP statuses. 4xx responses
// carry the sentinel message; 5xx responses never leak internals.
func writeDomainError(w http.ResponseWriter, err error) {
	var insufficient *inventory.InsufficientStockError

	switch {
	case errors.Is(err, checkout.ErrInvalidInput),
		errors.Is(err, checkout.ErrCartEmpty),
		errors.Is(err, checkout.ErrUnknownProduct),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, payment.ErrNotBankOrder),
		errors.Is(err, payment.ErrSignatureMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient),
		errors.Is(err, order.ErrCannotCancel),
		errors.Is(err, order.ErrProofFrozen),
		errors.Is(err, payment.ErrNotPayable),
		errors.Is(err, payment.ErrNotRefundable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, payment.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrGatewayNotConfigured):
		writeError(w, http.StatusBadGateway, "payment gateway unavailable, retry later")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// clientIP returns the remote address without the port. The RealIP middleware
// already unwraps proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
