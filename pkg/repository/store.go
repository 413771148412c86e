package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/candleshop/pkg/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict reports a compare-and-set write whose expected state no
	// longer matched the stored record.
	ErrConflict = errors.New("record was modified concurrently")
)

// OrderNumberSequence names the counter order numbers are drawn from.
const OrderNumberSequence = "order_number"

// NewID returns a new record identifier. ObjectID hex strings are used by
// every backend so identifiers look the same regardless of storage.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

type ProductFilter struct {
	Category string
}

type OrderFilter struct {
	UserID   string
	Statuses []models.OrderStatus
	Limit    int
}

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, error)
	// UpdateProduct writes the descriptive fields of p. Stock is left alone;
	// it only changes through SetStock and the increment/decrement calls.
	UpdateProduct(ctx context.Context, p *models.Product) error
	// SetStock replaces the stock count and returns ErrConflict if it is no
	// longer from.
	SetStock(ctx context.Context, id string, from, to int) error
	DeleteProduct(ctx context.Context, id string) error
	// DecrementStock atomically subtracts qty when at least qty is in stock.
	// It returns ErrInsufficientStock otherwise and never clamps.
	DecrementStock(ctx context.Context, id string, qty int) error
	IncrementStock(ctx context.Context, id string, qty int) error
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	CountCustomers(ctx context.Context) (int64, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrders returns matching orders, newest first.
	ListOrders(ctx context.Context, filter OrderFilter) ([]*models.Order, error)
	// SetOrderStatus moves the order from one status to another and returns
	// ErrConflict if it is no longer in status from.
	SetOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error
	DeleteOrder(ctx context.Context, id string) error
	// MaxOrderNumber returns the highest numeric order number stored, or 0.
	MaxOrderNumber(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (float64, error)
}

type ShipmentStore interface {
	CreateShipment(ctx context.Context, s *models.Shipment) error
	GetShipment(ctx context.Context, id string) (*models.Shipment, error)
	GetShipmentByOrder(ctx context.Context, orderID string) (*models.Shipment, error)
	ListShipments(ctx context.Context) ([]*models.Shipment, error)
	// UpdateShipment writes the mutable fields of s and returns ErrConflict
	// if the stored status is no longer from.
	UpdateShipment(ctx context.Context, s *models.Shipment, from models.ShipmentStatus) error
}

type WishlistStore interface {
	GetWishlist(ctx context.Context, userID string) (*models.Wishlist, error)
	// AddToWishlist creates the wishlist on first use and never stores a
	// product twice.
	AddToWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error)
}

// Sequencer hands out strictly increasing values per name, starting at 1.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

// SequenceSeeder raises a sequence to at least value. It never lowers one.
type SequenceSeeder interface {
	Seed(ctx context.Context, name string, value int64) error
}

// Store is the full persistence surface used by the service layer.
type Store interface {
	ProductStore
	UserStore
	OrderStore
	ShipmentStore
	WishlistStore
	Sequencer
	SequenceSeeder

	// WithTransaction runs fn so that its writes commit or roll back
	// together where the backend supports it. The context passed to fn
	// must be used for every store call inside it. Nested calls join the
	// outer transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
