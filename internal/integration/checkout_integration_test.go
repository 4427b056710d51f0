package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/auth"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/cart"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/catalog"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/checkout"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/config"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/db"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/events"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/httpapi"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/inventory"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/order"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/payment"
	"github.com/huawsvantoan/webbanbanhngot-sub001/internal/testutil"
)

const gatewaySecret = "integration-test-secret"

type app struct {
	server  *httptest.Server
	catalog catalog.Repository
}

func startApp(ctx context.Context, t *testing.T) *app {
	t.Helper()

	dsn := testutil.StartPostgres(t)
	rabbitConn := testutil.StartRabbitMQ(t)

	logger := log.New(io.Discard, "", log.LstdFlags)
	require.NoError(t, db.RunMigrations(dsn, logger))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	sqlDB, err := db.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	publisher, err := events.NewPublisher(rabbitConn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	cartRepo := cart.NewRepository(sqlDB)
	catalogRepo := catalog.NewPostgresRepository(pool)
	inventoryRepo := inventory.NewPostgresRepository(pool)
	orderRepo := order.NewRepository(pool)
	paymentRepo := payment.NewRepository(pool)

	orderSvc := order.NewService(pool, orderRepo, inventoryRepo, publisher, logger)
	checkoutSvc := checkout.NewService(pool, cartRepo, catalogRepo, inventoryRepo, orderRepo, publisher, logger)
	gateway := payment.NewGateway(config.Gateway{
		Merchant:  "TESTSHOP",
		Secret:    gatewaySecret,
		PayURL:    "https://gateway.example/pay",
		ReturnURL: "http://localhost/api/payment/callback",
		Locale:    "vn",
		Currency:  "VND",
	})
	paymentSvc := payment.NewService(paymentRepo, orderRepo, gateway, publisher, logger)

	router := httpapi.NewRouter(httpapi.Handlers{
		Checkout:  httpapi.NewCheckoutHandler(checkoutSvc),
		Orders:    httpapi.NewOrderHandler(orderSvc),
		Payments:  httpapi.NewPaymentHandler(paymentSvc),
		Cart:      httpapi.NewCartHandler(cartRepo, catalogRepo),
		Inventory: httpapi.NewInventoryHandler(inventoryRepo),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &app{server: server, catalog: catalogRepo}
}

func (a *app) request(t *testing.T, method, path string, body any, actor *auth.Identity) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-User-Id", actor.ID)
		req.Header.Set("X-User-Role", string(actor.Role))
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

var (
	admin = auth.Identity{ID: "admin-1", Role: auth.RoleAdmin}
	alice = auth.Identity{ID: "alice", Role: auth.RoleUser}
	bob   = auth.Identity{ID: "bob", Role: auth.RoleUser}
)

func (a *app) seedProduct(ctx context.Context, t *testing.T, id, name string, price float64, available int) {
	t.Helper()
	require.NoError(t, a.catalog.Upsert(ctx, catalog.Product{ID: id, Name: name, Price: price}))

	resp := a.request(t, http.MethodPost, "/api/inventory/adjust", map[string]any{
		"productId": id, "available": available,
	}, &admin)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func (a *app) addToCart(t *testing.T, actor auth.Identity, productID string, quantity int) {
	t.Helper()
	resp := a.request(t, http.MethodPost, "/api/cart/items", map[string]any{
		"productId": productID, "quantity": quantity,
	}, &actor)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func (a *app) availability(t *testing.T, productID string) int {
	t.Helper()
	resp := a.request(t, http.MethodGet, "/api/inventory/"+productID, nil, &admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[inventory.StockItem](t, resp).Available
}

type checkoutResponse struct {
	Order order.Order `json:"order"`
}

func checkoutBody(method order.PaymentMethod) map[string]any {
	return map[string]any{
		"shippingAddress": "12 Hang Bong, Hanoi",
		"name":            "Nguyen Van A",
		"phone":           "0912345678",
		"paymentMethod":   string(method),
	}
}

func TestCheckoutIntegration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	a := startApp(ctx, t)
	a.seedProduct(ctx, t, "banh-kem", "Banh kem", 120000, 5)
	a.seedProduct(ctx, t, "banh-mi", "Banh mi", 25000, 2)

	a.addToCart(t, alice, "banh-kem", 2)
	a.addToCart(t, alice, "banh-mi", 1)

	resp := a.request(t, http.MethodPost, "/api/checkout", checkoutBody(order.MethodCOD), &alice)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[checkoutResponse](t, resp).Order

	assert.Equal(t, order.StatusPending, created.Status)
	assert.Equal(t, float64(2*120000+25000), created.TotalAmount)
	assert.Len(t, created.Items, 2)

	assert.Equal(t, 3, a.availability(t, "banh-kem"))
	assert.Equal(t, 1, a.availability(t, "banh-mi"))

	// checkout consumed the cart
	resp = a.request(t, http.MethodGet, "/api/cart", nil, &alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[cart.Cart](t, resp).Items)

	// a second checkout with nothing in the cart must be rejected
	resp = a.request(t, http.MethodPost, "/api/checkout", checkoutBody(order.MethodCOD), &alice)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// cancelling the pending order restores the reserved stock
	resp = a.request(t, http.MethodPut, "/api/orders/"+created.ID+"/status", map[string]any{
		"status": "cancelled",
	}, &alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cancelled := decode[checkoutResponse](t, resp).Order
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	assert.Equal(t, 5, a.availability(t, "banh-kem"))
	assert.Equal(t, 2, a.availability(t, "banh-mi"))
}

func TestConcurrentCheckoutNeverOversells(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	a := startApp(ctx, t)
	a.seedProduct(ctx, t, "banh-trung-thu", "Banh trung thu", 80000, 3)

	a.addToCart(t, alice, "banh-trung-thu", 2)
	a.addToCart(t, bob, "banh-trung-thu", 2)

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i, actor := range []auth.Identity{alice, bob} {
		wg.Add(1)
		go func(i int, actor auth.Identity) {
			defer wg.Done()
			resp := a.request(t, http.MethodPost, "/api/checkout", checkoutBody(order.MethodCOD), &actor)
			defer resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i, actor)
	}
	wg.Wait()

	// 3 units cannot satisfy two orders of 2; exactly one checkout wins
	wins, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			wins++
		case http.StatusConflict:
			conflicts++
		}
	}
	require.Equal(t, 1, wins, "status codes: %v", codes)
	require.Equal(t, 1, conflicts, "status codes: %v", codes)

	assert.Equal(t, 1, a.availability(t, "banh-trung-thu"))
}

func TestBankPaymentIntegration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	a := startApp(ctx, t)
	a.seedProduct(ctx, t, "banh-su-kem", "Banh su kem", 45000, 10)
	a.addToCart(t, alice, "banh-su-kem", 2)

	resp := a.request(t, http.MethodPost, "/api/checkout", checkoutBody(order.MethodBank), &alice)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[checkoutResponse](t, resp).Order

	resp = a.request(t, http.MethodPost, "/api/payment/create", map[string]any{
		"orderId": created.ID,
	}, &alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payURL := decode[map[string]string](t, resp)["paymentUrl"]
	require.NotEmpty(t, payURL)

	parsed, err := url.Parse(payURL)
	require.NoError(t, err)
	query := parsed.Query()
	require.Equal(t, "9000000", query.Get("vnp_Amount"))
	txnRef := query.Get("vnp_TxnRef")
	require.NotEmpty(t, txnRef)

	// a tampered callback must be rejected and must not settle anything
	badParams := map[string]string{
		"vnp_TxnRef":        txnRef,
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "999",
	}
	badQuery := url.Values{}
	for k, v := range badParams {
		badQuery.Set(k, v)
	}
	badQuery.Set("vnp_SecureHash", payment.SignParams(badParams, "wrong-secret"))
	resp = a.request(t, http.MethodGet, "/api/payment/callback?"+badQuery.Encode(), nil, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the signed success callback settles the payment and advances the order
	goodParams := map[string]string{
		"vnp_TxnRef":        txnRef,
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14422574",
	}
	goodQuery := url.Values{}
	for k, v := range goodParams {
		goodQuery.Set(k, v)
	}
	goodQuery.Set("vnp_SecureHash", payment.SignParams(goodParams, gatewaySecret))

	resp = a.request(t, http.MethodGet, "/api/payment/callback?"+goodQuery.Encode(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	callback := decode[map[string]any](t, resp)
	assert.Equal(t, created.ID, callback["orderId"])
	assert.Equal(t, string(payment.StatusCompleted), callback["status"])

	resp = a.request(t, http.MethodGet, "/api/orders/"+created.ID, nil, &alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	settled := decode[order.Order](t, resp)
	assert.Equal(t, order.StatusProcessing, settled.Status)

	// replaying the same callback keeps payment and order unchanged
	resp = a.request(t, http.MethodGet, "/api/payment/callback?"+goodQuery.Encode(), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	replay := decode[map[string]any](t, resp)
	assert.Equal(t, string(payment.StatusCompleted), replay["status"])

	// the owner can still cancel the paid processing order; the response
	// carries the refund advisory and the stock comes back
	resp = a.request(t, http.MethodPut, "/api/orders/"+created.ID+"/status", map[string]any{
		"status": "cancelled",
	}, &alice)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cancelResp := decode[map[string]any](t, resp)
	assert.NotEmpty(t, cancelResp["message"])
	assert.Equal(t, 10, a.availability(t, "banh-su-kem"))
}
