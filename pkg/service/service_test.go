package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/auth"
	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/notify"
	"github.com/example/candleshop/pkg/repository"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	svc      *Service
	store    repository.Store
	mem      *repository.MemoryStore
	notifier *recordingNotifier
	customer *models.User
	other    *models.User
	admin    *models.User
	now      time.Time
}

var testShop = config.ShopConfig{
	ShippingMethod:    "Standard Shipping",
	DeliveryDays:      7,
	LowStockThreshold: 10,
	OrderNumberBase:   10000,
}

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour, Issuer: "candleshop"})
}

// steppingClock advances one second per call so creation order is stable.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := repository.NewMemoryStore()
	return newFixtureWithStore(t, mem, mem)
}

func newFixtureWithStore(t *testing.T, store repository.Store, mem *repository.MemoryStore) *fixture {
	t.Helper()
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	n := &recordingNotifier{}
	svc := New(store, testTokens(), testShop, zap.NewNop(),
		WithNotifier(n),
		WithClock(steppingClock(start)))

	f := &fixture{svc: svc, store: store, mem: mem, notifier: n, now: start}
	f.customer = f.user(t, "u-customer", "Ada", "ada@shop.test", false)
	f.other = f.user(t, "u-other", "Bob", "bob@shop.test", false)
	f.admin = f.user(t, "u-admin", "Admin", "admin@shop.test", true)
	return f
}

func (f *fixture) user(t *testing.T, id, name, email string, admin bool) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	u := &models.User{ID: id, Name: name, Email: email, Password: hash, IsAdmin: admin}
	require.NoError(t, f.mem.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:       repository.NewID(),
		Name:     name,
		Price:    price,
		Category: "candles",
		Image:    name + ".jpg",
		Stock:    stock,
	}
	require.NoError(t, f.mem.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.mem.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) shipmentFor(t *testing.T, orderID string) *models.Shipment {
	t.Helper()
	sh, err := f.mem.GetShipmentByOrder(context.Background(), orderID)
	require.NoError(t, err)
	return sh
}

func orderInput(items ...PlaceOrderItem) PlaceOrderInput {
	return PlaceOrderInput{
		Items: items,
		ShippingAddress: models.ShippingAddress{
			FirstName:  "Ada",
			LastName:   "Lovelace",
			Address:    "1 Wax Street",
			City:       "London",
			PostalCode: "N1 1AA",
			Country:    "UK",
		},
		PaymentMethod: "Credit Card",
		TotalPrice:    42,
	}
}

func line(productID string, qty int) PlaceOrderItem {
	return PlaceOrderItem{ProductID: productID, Quantity: qty}
}

func TestErrorKinds(t *testing.T) {
	err := newError(KindNotFound, "Order not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Order not found", PublicMessage(err))

	internal := &Error{Kind: KindInternal, Message: InternalMessage, Err: errors.New("dial tcp: refused")}
	assert.Equal(t, InternalMessage, PublicMessage(internal))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, InternalMessage, PublicMessage(errors.New("plain")))
	assert.Contains(t, internal.Error(), "dial tcp")
}

func TestFailTranslatesStoreErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, KindConflict, KindOf(f.svc.fail(ctx, "op", repository.ErrInsufficientStock)))
	assert.Equal(t, KindConflict, KindOf(f.svc.fail(ctx, "op", repository.ErrConflict)))
	assert.Equal(t, KindConflict, KindOf(f.svc.fail(ctx, "op", repository.ErrDuplicate)))
	assert.Equal(t, KindNotFound, KindOf(f.svc.fail(ctx, "op", repository.ErrNotFound)))
	assert.Equal(t, KindInternal, KindOf(f.svc.fail(ctx, "op", errors.New("boom"))))

	forbidden := newError(KindForbidden, "nope")
	assert.Same(t, forbidden, f.svc.fail(ctx, "op", forbidden))
}

func TestValidationMessages(t *testing.T) {
	f := newFixture(t)

	in := orderInput(line("p1", 0))
	in.ShippingAddress.City = ""
	in.PaymentMethod = ""
	err := f.svc.check(in)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	msg := PublicMessage(err)
	assert.Contains(t, msg, "items[0].quantity must be at least 1")
	assert.Contains(t, msg, "shippingAddress.city is required")
	assert.Contains(t, msg, "paymentMethod is required")

	err = f.svc.check(UpdateOrderStatusInput{Status: "Lost"})
	require.Error(t, err)
	assert.Equal(t, "status must be one of Processing, Shipped, Delivered, Cancelled", PublicMessage(err))

	err = f.svc.check(UpdateShipmentInput{Status: "Teleported"})
	require.Error(t, err)
	assert.Contains(t, PublicMessage(err), "Ready for Pickup")

	assert.NoError(t, f.svc.check(UpdateShipmentInput{}))
}
