package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/config"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
)

var (
	ErrSignatureMismatch    = errors.New("signature mismatch")
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
)

const (
	gatewayVersion = "2.1.0"
	gatewayCommand = "pay"

	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
	paramTxnRef         = "vnp_TxnRef"
	paramResponseCode   = "vnp_ResponseCode"
	paramTransactionNo  = "vnp_TransactionNo"

	responseCodeSuccess = "00"

	// The gateway expects UTC timestamps as yyyyMMddHHmmss.
	createDateLayout = "20060102150405"
)

// Gateway builds and verifies the shared-secret HMAC protocol of the hosted
// payment page. Both sides sign the lexicographically sorted, unencoded
// key=value string; the signature travels as an extra vnp_SecureHash field.
type Gateway struct {
	cfg config.Gateway
}

func NewGateway(cfg config.Gateway) *Gateway {
	return &Gateway{cfg: cfg}
}

// SignParams canonicalizes params (sort keys ascending, join raw k=v with &,
// no percent-encoding) and returns the lowercase hex HMAC-SHA256 digest.
func SignParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildPaymentRequest assembles the signed parameter set for one payment
// attempt. The amount is scaled to the gateway's integer minor-unit encoding.
func (g *Gateway) BuildPaymentRequest(o *order.Order, txnRef, clientIP string, now time.Time) (map[string]string, error) {
	if g.cfg.Merchant == "" || g.cfg.Secret == "" {
		return nil, ErrGatewayNotConfigured
	}

	params := map[string]string{
		"vnp_Version":    gatewayVersion,
		"vnp_Command":    gatewayCommand,
		"vnp_TmnCode":    g.cfg.Merchant,
		"vnp_Locale":     g.cfg.Locale,
		"vnp_CurrCode":   g.cfg.Currency,
		paramTxnRef:      txnRef,
		"vnp_OrderInfo":  fmt.Sprintf("Thanh toan don hang %s", o.ID),
		"vnp_Amount":     strconv.FormatInt(int64(math.Round(o.TotalAmount*100)), 10),
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": now.UTC().Format(createDateLayout),
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
	}

	params[paramSecureHash] = SignParams(params, g.cfg.Secret)
	return params, nil
}

// PaymentURL renders the signed parameter set as the outward-facing redirect.
// Unlike the signing input, the redirect query is percent-encoded.
func (g *Gateway) PaymentURL(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return g.cfg.PayURL + "?" + values.Encode()
}

type CallbackData struct {
	TxnRef       string
	ResponseCode string
	GatewayTxnNo string
	Success      bool
}

// VerifyCallback validates a gateway callback. The incoming hash (and the
// hash-type hint) are stripped before recomputing over the remaining fields;
// comparison is constant time and case-sensitive. Until this passes the
// callback is untrusted input.
func (g *Gateway) VerifyCallback(query url.Values) (CallbackData, error) {
	if g.cfg.Secret == "" {
		return CallbackData{}, ErrGatewayNotConfigured
	}

	received := query.Get(paramSecureHash)
	if received == "" {
		return CallbackData{}, ErrSignatureMismatch
	}

	params := make(map[string]string, len(query))
	for k := range query {
		if k == paramSecureHash || k == paramSecureHashType {
			continue
		}
		params[k] = query.Get(k)
	}

	expected := SignParams(params, g.cfg.Secret)
	if !hmac.Equal([]byte(expected), []byte(received)) {
		return CallbackData{}, ErrSignatureMismatch
	}

	code := query.Get(paramResponseCode)
	return CallbackData{
		TxnRef:       query.Get(paramTxnRef),
		ResponseCode: code,
		GatewayTxnNo: query.Get(paramTransactionNo),
		Success:      code == responseCodeSuccess,
	}, nil
}
