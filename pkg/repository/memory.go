package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/candleshop/pkg/models"
)

type memTxKey struct{}

// MemoryStore keeps everything in process memory. It backs the test suite
// and the "memory" storage driver for local development.
//
// Transactions are serialized with txMu and implemented as snapshot and
// restore, so a failed transaction discards its writes. Writes made outside
// a transaction take txMu as well and therefore never land between a
// snapshot and its restore.
type MemoryStore struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	products  map[string]*models.Product
	users     map[string]*models.User
	orders    map[string]*models.Order
	shipments map[string]*models.Shipment
	wishlists map[string]*models.Wishlist // keyed by user id
	sequences map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[string]*models.Product),
		users:     make(map[string]*models.User),
		orders:    make(map[string]*models.Order),
		shipments: make(map[string]*models.Shipment),
		wishlists: make(map[string]*models.Wishlist),
		sequences: make(map[string]int64),
	}
}

func copyProduct(p *models.Product) *models.Product {
	c := *p
	return &c
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	c.Customer = nil
	return &c
}

func copyShipment(s *models.Shipment) *models.Shipment {
	c := *s
	if s.EstimatedDelivery != nil {
		t := *s.EstimatedDelivery
		c.EstimatedDelivery = &t
	}
	return &c
}

func copyWishlist(w *models.Wishlist) *models.Wishlist {
	c := *w
	c.Products = append([]string(nil), w.Products...)
	return &c
}

func cloneMap[T any](m map[string]*T, clone func(*T) *T) map[string]*T {
	out := make(map[string]*T, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

type memSnapshot struct {
	products  map[string]*models.Product
	users     map[string]*models.User
	orders    map[string]*models.Order
	shipments map[string]*models.Shipment
	wishlists map[string]*models.Wishlist
}

func (m *MemoryStore) snapshot() *memSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &memSnapshot{
		products:  cloneMap(m.products, copyProduct),
		users:     cloneMap(m.users, copyUser),
		orders:    cloneMap(m.orders, copyOrder),
		shipments: cloneMap(m.shipments, copyShipment),
		wishlists: cloneMap(m.wishlists, copyWishlist),
	}
}

// restore puts back a snapshot. Sequences are not rolled back.
func (m *MemoryStore) restore(s *memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = s.products
	m.users = s.users
	m.orders = s.orders
	m.shipments = s.shipments
	m.wishlists = s.wishlists
}

// lock takes the write lock and returns its release. Outside a transaction
// it first waits for any running one.
func (m *MemoryStore) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		m.mu.Lock()
		return m.mu.Unlock
	}
	m.txMu.Lock()
	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		m.txMu.Unlock()
	}
}

func (m *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Products

func (m *MemoryStore) CreateProduct(ctx context.Context, p *models.Product) error {
	defer m.lock(ctx)()
	if _, ok := m.products[p.ID]; ok {
		return ErrDuplicate
	}
	m.products[p.ID] = copyProduct(p)
	return nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProduct(p), nil
}

func (m *MemoryStore) ListProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	defer m.lock(ctx)()
	cur, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	updated := copyProduct(p)
	updated.Stock = cur.Stock
	updated.CreatedAt = cur.CreatedAt
	m.products[p.ID] = updated
	return nil
}

func (m *MemoryStore) SetStock(ctx context.Context, id string, from, to int) error {
	defer m.lock(ctx)()
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	if p.Stock != from {
		return ErrConflict
	}
	p.Stock = to
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	defer m.lock(ctx)()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, id string, qty int) error {
	defer m.lock(ctx)()
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	if p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) IncrementStock(ctx context.Context, id string, qty int) error {
	defer m.lock(ctx)()
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock += qty
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, p := range m.products {
		if p.Stock < threshold {
			n++
		}
	}
	return n, nil
}

// Users

func (m *MemoryStore) emailTaken(email, exceptID string) bool {
	for _, u := range m.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	defer m.lock(ctx)()
	if _, ok := m.users[u.ID]; ok || m.emailTaken(u.Email, "") {
		return ErrDuplicate
	}
	m.users[u.ID] = copyUser(u)
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u *models.User) error {
	defer m.lock(ctx)()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return ErrDuplicate
	}
	m.users[u.ID] = copyUser(u)
	return nil
}

func (m *MemoryStore) CountCustomers(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, u := range m.users {
		if !u.IsAdmin {
			n++
		}
	}
	return n, nil
}

// Orders

func (m *MemoryStore) CreateOrder(ctx context.Context, o *models.Order) error {
	defer m.lock(ctx)()
	if _, ok := m.orders[o.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return ErrDuplicate
		}
	}
	m.orders[o.ID] = copyOrder(o)
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func statusIn(s models.OrderStatus, set []models.OrderStatus) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func (m *MemoryStore) ListOrders(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Order, 0)
	for _, o := range m.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if !statusIn(o.Status, filter.Statuses) {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStore) SetOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	defer m.lock(ctx)()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeleteOrder(ctx context.Context, id string) error {
	defer m.lock(ctx)()
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *MemoryStore) MaxOrderNumber(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var highest int64
	for _, o := range m.orders {
		n, err := strconv.ParseInt(o.OrderNumber, 10, 64)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

func (m *MemoryStore) CountOrders(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.orders)), nil
}

func (m *MemoryStore) TotalSales(ctx context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total float64
	for _, o := range m.orders {
		total += o.TotalPrice
	}
	return total, nil
}

// Shipments

func (m *MemoryStore) CreateShipment(ctx context.Context, s *models.Shipment) error {
	defer m.lock(ctx)()
	if _, ok := m.shipments[s.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.shipments {
		if existing.OrderID == s.OrderID {
			return ErrDuplicate
		}
	}
	m.shipments[s.ID] = copyShipment(s)
	return nil
}

func (m *MemoryStore) GetShipment(ctx context.Context, id string) (*models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shipments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyShipment(s), nil
}

func (m *MemoryStore) GetShipmentByOrder(ctx context.Context, orderID string) (*models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shipments {
		if s.OrderID == orderID {
			return copyShipment(s), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListShipments(ctx context.Context) ([]*models.Shipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Shipment, 0, len(m.shipments))
	for _, s := range m.shipments {
		out = append(out, copyShipment(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateShipment(ctx context.Context, s *models.Shipment, from models.ShipmentStatus) error {
	defer m.lock(ctx)()
	cur, ok := m.shipments[s.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != from {
		return ErrConflict
	}
	updated := copyShipment(s)
	updated.OrderID = cur.OrderID
	updated.CreatedAt = cur.CreatedAt
	updated.UpdatedAt = time.Now()
	m.shipments[s.ID] = updated
	return nil
}

// Wishlists

func (m *MemoryStore) GetWishlist(ctx context.Context, userID string) (*models.Wishlist, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wishlists[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyWishlist(w), nil
}

func (m *MemoryStore) AddToWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	defer m.lock(ctx)()
	now := time.Now()
	w, ok := m.wishlists[userID]
	if !ok {
		w = &models.Wishlist{ID: NewID(), UserID: userID, CreatedAt: now}
		m.wishlists[userID] = w
	}
	if !w.Has(productID) {
		w.Products = append(w.Products, productID)
	}
	w.UpdatedAt = now
	return copyWishlist(w), nil
}

func (m *MemoryStore) RemoveFromWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	defer m.lock(ctx)()
	w, ok := m.wishlists[userID]
	if !ok {
		return nil, ErrNotFound
	}
	kept := w.Products[:0]
	for _, id := range w.Products {
		if id != productID {
			kept = append(kept, id)
		}
	}
	w.Products = kept
	w.UpdatedAt = time.Now()
	return copyWishlist(w), nil
}

// Next implements Sequencer.
func (m *MemoryStore) Next(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[name]++
	return m.sequences[name], nil
}

func (m *MemoryStore) Seed(ctx context.Context, name string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sequences[name] < value {
		m.sequences[name] = value
	}
	return nil
}
