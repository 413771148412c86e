package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/auth"
	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/metrics"
	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/repository"
	"github.com/example/candleshop/pkg/service"
)

type testEnv struct {
	gw    *Gateway
	store *repository.MemoryStore
	admin string
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestEnv(t *testing.T, health HealthChecker) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	tokens := auth.NewTokenManager(&config.AuthConfig{JWTSecret: "gw-secret", TokenTTL: time.Hour, Issuer: "candleshop"})
	shop := config.ShopConfig{ShippingMethod: "Standard Shipping", DeliveryDays: 7, LowStockThreshold: 10, OrderNumberBase: 10000}
	m := metrics.New()
	svc := service.New(store, tokens, shop, zap.NewNop(), service.WithMetrics(m))

	if health == nil {
		health = store
	}
	cfg := &config.GatewayConfig{Host: "127.0.0.1", Port: 0, AllowedOrigins: []string{"*"}, RequestTimeout: 5 * time.Second}
	gw := NewGateway(cfg, svc, health, m, zap.NewNop())

	hash, err := auth.HashPassword("admin-pass")
	require.NoError(t, err)
	admin := &models.User{ID: repository.NewID(), Name: "Admin", Email: "admin@shop.test", Password: hash, IsAdmin: true}
	require.NoError(t, store.CreateUser(context.Background(), admin))
	token, err := tokens.IssueToken(admin)
	require.NoError(t, err)

	return &testEnv{gw: gw, store: store, admin: token}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.gw.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[errorResponse](t, w).Message
}

func (e *testEnv) registerCustomer(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", service.RegisterInput{Name: "Ada", Email: email, Password: "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[service.Session](t, w).Token
}

func (e *testEnv) createProduct(t *testing.T, stock int) *models.Product {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/products", e.admin, service.ProductInput{
		Name: "Vanilla", Price: 1500, Category: "scented", Image: "vanilla.jpg", Stock: stock,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*models.Product](t, w)
}

func orderBody(productID string, qty int) map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{{"product": productID, "quantity": qty}},
		"shippingAddress": map[string]string{
			"address": "1 Wax Street", "city": "London", "postalCode": "N1 1AA", "country": "UK",
		},
		"paymentMethod": "Credit Card",
		"totalPrice":    30,
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind service.Kind
		want int
	}{
		{service.KindValidation, http.StatusBadRequest},
		{service.KindUnauthorized, http.StatusUnauthorized},
		{service.KindForbidden, http.StatusForbidden},
		{service.KindNotFound, http.StatusNotFound},
		{service.KindConflict, http.StatusConflict},
		{service.KindInternal, http.StatusInternalServerError},
		{service.Kind("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.kind), tt.kind)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("Bearer "))
	assert.Empty(t, bearerToken(""))
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, nil)
	w := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	down := newTestEnv(t, pingFunc(func(context.Context) error { return errors.New("no route to host") }))
	w = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	e := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	e.gw.Handler().ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t, nil)
	token := e.registerCustomer(t, "ada@shop.test")

	w := e.do(t, http.MethodPost, "/api/auth/register", "", service.RegisterInput{Name: "Ada", Email: "ada@shop.test", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User already exists", messageOf(t, w))

	w = e.do(t, http.MethodPost, "/api/auth/login", "", service.LoginInput{Email: "ada@shop.test", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/api/auth/login", "", service.LoginInput{Email: "ada@shop.test", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[service.Session](t, w).Token)

	w = e.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]interface{}](t, w)
	assert.Equal(t, "ada@shop.test", me["email"])
	assert.NotContains(t, me, "password")

	w = e.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, no token", messageOf(t, w))

	w = e.do(t, http.MethodGet, "/api/users/me", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authorized, token failed", messageOf(t, w))

	w = e.do(t, http.MethodPut, "/api/users/password", token, service.PasswordInput{CurrentPassword: "secret1", NewPassword: "secret2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMalformedBody(t *testing.T) {
	e := newTestEnv(t, nil)
	w := e.do(t, http.MethodPost, "/api/auth/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", messageOf(t, w))
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := newTestEnv(t, nil)
	token := e.registerCustomer(t, "ada@shop.test")

	for _, path := range []string{"/api/admin/orders", "/api/admin/shipments", "/api/admin/dashboard"} {
		w := e.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Equal(t, "Not authorized as an admin", messageOf(t, w))

		w = e.do(t, http.MethodGet, path, e.admin, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := e.do(t, http.MethodPost, "/api/products", token, service.ProductInput{Name: "x", Category: "y", Image: "z"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderLifecycle(t *testing.T) {
	e := newTestEnv(t, nil)
	token := e.registerCustomer(t, "ada@shop.test")
	other := e.registerCustomer(t, "bob@shop.test")
	p := e.createProduct(t, 5)

	w := e.do(t, http.MethodPost, "/api/orders", token, orderBody(p.ID, 2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	assert.Equal(t, "10001", order.OrderNumber)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, "Vanilla", order.Items[0].Name)

	w = e.do(t, http.MethodPost, "/api/orders", token, orderBody(p.ID, 4))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Insufficient stock for Vanilla: 3 available, 4 requested", messageOf(t, w))

	w = e.do(t, http.MethodPost, "/api/orders", token, orderBody("missing", 1))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/api/orders", token, orderBody(p.ID, 0))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/orders/"+order.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/orders/"+order.ID+"/tracking", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tracking := decode[map[string]interface{}](t, w)
	assert.Equal(t, "Preparing", tracking["status"])
	assert.Equal(t, "10001", tracking["orderNumber"])

	w = e.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, w), 1)

	w = e.do(t, http.MethodPut, "/api/orders/"+order.ID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderStatusCancelled, decode[models.Order](t, w).Status)

	w = e.do(t, http.MethodGet, "/api/products/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decode[models.Product](t, w).Stock)

	w = e.do(t, http.MethodPut, "/api/orders/"+order.ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Order is already cancelled", messageOf(t, w))

	w = e.do(t, http.MethodGet, "/api/orders/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, w), 1)

	w = e.do(t, http.MethodGet, "/api/orders/not-an-order", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", messageOf(t, w))
}

func TestAdminStatusSync(t *testing.T) {
	e := newTestEnv(t, nil)
	token := e.registerCustomer(t, "ada@shop.test")
	p := e.createProduct(t, 5)

	w := e.do(t, http.MethodPost, "/api/orders", token, orderBody(p.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code)
	order := decode[models.Order](t, w)

	w = e.do(t, http.MethodPut, "/api/admin/orders/"+order.ID, e.admin, service.UpdateOrderStatusInput{Status: "Shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/api/admin/shipments", e.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	shipments := decode[[]map[string]interface{}](t, w)
	require.Len(t, shipments, 1)
	assert.Equal(t, "In Transit", shipments[0]["status"])
	shipmentID, _ := shipments[0]["_id"].(string)

	w = e.do(t, http.MethodPut, "/api/admin/shipments/"+shipmentID, e.admin, service.UpdateShipmentInput{Status: "Delivered", TrackingNumber: "TRK-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/api/orders/"+order.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderStatusDelivered, decode[models.Order](t, w).Status)

	w = e.do(t, http.MethodPut, "/api/admin/orders/"+order.ID, e.admin, service.UpdateOrderStatusInput{Status: "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, "/api/admin/orders/"+order.ID, e.admin, service.UpdateOrderStatusInput{Status: "Cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodGet, "/api/admin/dashboard", e.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[service.Dashboard](t, w)
	assert.Equal(t, int64(1), d.TotalOrders)
	assert.Equal(t, int64(1), d.TotalCustomers)
}

func TestWishlistRoutes(t *testing.T) {
	e := newTestEnv(t, nil)
	token := e.registerCustomer(t, "ada@shop.test")
	p := e.createProduct(t, 5)

	w := e.do(t, http.MethodPost, "/api/wishlist/"+p.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[service.WishlistView](t, w).Products, 1)

	w = e.do(t, http.MethodPost, "/api/wishlist/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodDelete, "/api/wishlist/"+p.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[service.WishlistView](t, w).Products)

	w = e.do(t, http.MethodGet, "/api/wishlist", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t, nil)
	token := e.registerCustomer(t, "ada@shop.test")
	p := e.createProduct(t, 5)
	w := e.do(t, http.MethodPost, "/api/orders", token, orderBody(p.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "storefront_orders_placed_total 1")
	assert.Contains(t, body, `storefront_http_requests_total{method="POST",path="/api/orders",status="201"} 1`)
}

func TestRecoveryAndNoRoute(t *testing.T) {
	e := newTestEnv(t, nil)
	e.gw.router.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := e.do(t, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, service.InternalMessage, messageOf(t, w))

	w = e.do(t, http.MethodGet, "/api/candles", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.HasPrefix(messageOf(t, w), "Not Found"))
}

func TestSwaggerDoc(t *testing.T) {
	e := newTestEnv(t, nil)
	w := e.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Candle Shop Storefront API")
}
