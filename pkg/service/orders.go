package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/notify"
	"github.com/example/candleshop/pkg/repository"
)

type PlaceOrderItem struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
	// Optional snapshot supplied by the storefront.
	Name  string  `json:"name,omitempty"`
	Price float64 `json:"price,omitempty" validate:"gte=0"`
	Image string  `json:"image,omitempty"`
}

type PlaceOrderInput struct {
	Items           []PlaceOrderItem       `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required"`
	TotalPrice      float64                `json:"totalPrice" validate:"gte=0"`
	TaxAmount       *float64               `json:"taxAmount,omitempty" validate:"omitempty,gte=0"`
	TaxPercentage   *float64               `json:"taxPercentage,omitempty" validate:"omitempty,gte=0"`
	ShippingPrice   *float64               `json:"shipping,omitempty" validate:"omitempty,gte=0"`
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" validate:"required,orderstatus"`
}

// PlaceOrder reserves stock for every line item, allocates an order number
// and stores the order with its shipment. Either all of it happens or none
// of the stock changes survive.
func (s *Service) PlaceOrder(ctx context.Context, caller *models.User, in PlaceOrderInput) (*models.Order, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	start := s.now()
	var order *models.Order
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.placeOrder(ctx, caller, in)
		order = o
		return err
	})
	if err != nil {
		s.metrics.OrderRejected(rejectReason(err))
		return nil, s.fail(ctx, "place order", err)
	}

	units := 0
	for _, it := range order.Items {
		units += it.Quantity
	}
	s.metrics.OrderPlaced(units, s.now().Sub(start))

	order.Customer = caller.Customer()
	s.log(ctx).Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", caller.ID),
		zap.Int("items", len(order.Items)))
	s.notify(ctx, notify.EventOrderPlaced, order, string(order.Status))

	return order, nil
}

// placeOrder runs inside the transaction. Stock it already took is given
// back before it returns an error so backends without transactions stay
// consistent; with a transaction the restore is rolled back with the rest.
func (s *Service) placeOrder(ctx context.Context, caller *models.User, in PlaceOrderInput) (_ *models.Order, err error) {
	var taken []models.OrderItem
	var created *models.Order
	defer func() {
		if err != nil {
			s.compensate(ctx, taken, created)
		}
	}()

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, err := s.store.GetProduct(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "Product not found: %s", it.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if p.Stock < it.Quantity {
			return nil, insufficientStock(p, it.Quantity)
		}
		if err := s.store.DecrementStock(ctx, p.ID, it.Quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, insufficientStock(p, it.Quantity)
			}
			if errors.Is(err, repository.ErrNotFound) {
				return nil, newError(KindNotFound, "Product not found: %s", it.ProductID)
			}
			return nil, err
		}

		item := snapshotItem(p, it)
		taken = append(taken, item)
		items = append(items, item)
	}

	seq, err := s.sequencer.Next(ctx, repository.OrderNumberSequence)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:              repository.NewID(),
		UserID:          caller.ID,
		OrderNumber:     strconv.FormatInt(s.shop.OrderNumberBase+seq, 10),
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		TotalPrice:      in.TotalPrice,
		TaxAmount:       in.TaxAmount,
		TaxPercentage:   in.TaxPercentage,
		ShippingPrice:   in.ShippingPrice,
		Status:          models.OrderStatusProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	created = order

	eta := s.estimatedDelivery(now)
	shipment := &models.Shipment{
		ID:                repository.NewID(),
		OrderID:           order.ID,
		Status:            models.ShipmentStatusPreparing,
		ShippingMethod:    s.shop.ShippingMethod,
		EstimatedDelivery: &eta,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateShipment(ctx, shipment); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *Service) compensate(ctx context.Context, taken []models.OrderItem, created *models.Order) {
	log := s.log(ctx)
	for _, it := range taken {
		if err := s.store.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			log.Error("Failed to restore stock",
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err))
		}
	}
	if created != nil {
		if err := s.store.DeleteOrder(ctx, created.ID); err != nil {
			log.Error("Failed to remove incomplete order", zap.String("order_id", created.ID), zap.Error(err))
		}
	}
}

func snapshotItem(p *models.Product, in PlaceOrderItem) models.OrderItem {
	item := models.OrderItem{
		ProductID: p.ID,
		Name:      in.Name,
		Price:     in.Price,
		Quantity:  in.Quantity,
		Image:     in.Image,
	}
	if item.Name == "" {
		item.Name = p.Name
	}
	if item.Price <= 0 {
		item.Price = p.Price
	}
	if item.Image == "" {
		item.Image = p.Image
	}
	return item
}

func insufficientStock(p *models.Product, requested int) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("Insufficient stock for %s: %d available, %d requested", p.Name, p.Stock, requested),
		Err:     repository.ErrInsufficientStock,
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	}
	return "internal"
}

// CancelOrder cancels a Processing order for its owner or an admin and
// puts every line item back in stock.
func (s *Service) CancelOrder(ctx context.Context, caller *models.User, orderID string) (*models.Order, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canAccessOrder(caller, order) {
		return nil, newError(KindForbidden, "Not authorized to access this order")
	}
	return s.cancelOrder(ctx, order)
}

func (s *Service) cancelOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if !order.Status.Cancellable() {
		return nil, cannotCancel(order.Status)
	}

	restored := 0
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		restored = 0
		// the status write comes first so only one canceller restores stock
		if err := s.store.SetOrderStatus(ctx, order.ID, models.OrderStatusProcessing, models.OrderStatusCancelled); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return s.cancelConflict(ctx, order.ID)
			}
			return err
		}

		if err := s.syncShipment(ctx, order.ID, models.ShipmentStatusCancelled); err != nil {
			return err
		}

		for _, it := range order.Items {
			err := s.store.IncrementStock(ctx, it.ProductID, it.Quantity)
			if errors.Is(err, repository.ErrNotFound) {
				s.log(ctx).Warn("Skipping stock restore for deleted product",
					zap.String("order_id", order.ID),
					zap.String("product_id", it.ProductID),
					zap.Int("quantity", it.Quantity))
				continue
			}
			if err != nil {
				return err
			}
			restored += it.Quantity
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "cancel order", err)
	}

	s.metrics.OrderCancelled(restored)
	updated, err := s.reloadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.log(ctx).Info("Order cancelled",
		zap.String("order_id", updated.ID),
		zap.String("order_number", updated.OrderNumber),
		zap.Int("restored_units", restored))
	s.notify(ctx, notify.EventOrderCancelled, updated, string(updated.Status))
	return updated, nil
}

// cancelConflict explains why a concurrent writer won the race.
func (s *Service) cancelConflict(ctx context.Context, orderID string) error {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !current.Status.Cancellable() {
		return cannotCancel(current.Status)
	}
	return repository.ErrConflict
}

func cannotCancel(status models.OrderStatus) *Error {
	switch status {
	case models.OrderStatusCancelled:
		return newError(KindConflict, "Order is already cancelled")
	case models.OrderStatusShipped, models.OrderStatusDelivered:
		return newError(KindConflict, "Order cannot be cancelled because it has already been %s", strings.ToLower(string(status)))
	}
	return newError(KindConflict, "Order cannot be cancelled in status %s", status)
}

// UpdateOrderStatus lets an admin move an order through its lifecycle. The
// paired shipment follows in the same transaction.
func (s *Service) UpdateOrderStatus(ctx context.Context, caller *models.User, orderID string, in UpdateOrderStatusInput) (*models.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	target := models.OrderStatus(in.Status)

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if target == models.OrderStatusCancelled {
		return s.cancelOrder(ctx, order)
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, newError(KindConflict, "Cannot change order status from %s to %s", order.Status, target)
	}

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if target != order.Status {
			if err := s.store.SetOrderStatus(ctx, order.ID, order.Status, target); err != nil {
				return err
			}
		}
		return s.syncShipment(ctx, order.ID, models.ShipmentStatusFor(target))
	})
	if err != nil {
		return nil, s.fail(ctx, "update order status", err)
	}

	updated, err := s.reloadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if target != order.Status {
		s.metrics.StatusChanged(string(target))
		s.log(ctx).Info("Order status changed",
			zap.String("order_id", order.ID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(target)))
		s.notify(ctx, notify.EventOrderStatusChanged, updated, string(target))
	}
	return updated, nil
}

// syncShipment sets the order's shipment to status. An order without a
// shipment is logged and left alone.
func (s *Service) syncShipment(ctx context.Context, orderID string, status models.ShipmentStatus) error {
	shipment, err := s.store.GetShipmentByOrder(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log(ctx).Warn("Order has no shipment", zap.String("order_id", orderID))
		return nil
	}
	if err != nil {
		return err
	}
	if shipment.Status == status {
		return nil
	}

	prev := shipment.Status
	shipment.Status = status
	shipment.UpdatedAt = s.now()
	return s.store.UpdateShipment(ctx, shipment, prev)
}

// GetOrder returns an order to its owner or an admin.
func (s *Service) GetOrder(ctx context.Context, caller *models.User, orderID string) (*models.Order, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canAccessOrder(caller, order) {
		return nil, newError(KindForbidden, "Not authorized to access this order")
	}
	if err := s.attachCustomers(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns the caller's own orders, newest first.
func (s *Service) ListOrders(ctx context.Context, caller *models.User) ([]*models.Order, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	return s.listOrders(ctx, repository.OrderFilter{UserID: caller.ID})
}

// OrderHistory returns the caller's finished orders.
func (s *Service) OrderHistory(ctx context.Context, caller *models.User) ([]*models.Order, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	return s.listOrders(ctx, repository.OrderFilter{
		UserID:   caller.ID,
		Statuses: []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCancelled},
	})
}

// AdminListOrders returns every order with its customer resolved.
func (s *Service) AdminListOrders(ctx context.Context, caller *models.User) ([]*models.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.listOrders(ctx, repository.OrderFilter{})
}

func (s *Service) listOrders(ctx context.Context, filter repository.OrderFilter) ([]*models.Order, error) {
	orders, err := s.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, "list orders", err)
	}
	if err := s.attachCustomers(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Service) loadOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "Order not found")
	}
	if err != nil {
		return nil, s.fail(ctx, "get order", err)
	}
	return order, nil
}

func (s *Service) reloadOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachCustomers(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) attachCustomers(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if !seen[o.UserID] {
			seen[o.UserID] = true
			ids = append(ids, o.UserID)
		}
	}

	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return s.fail(ctx, "resolve customers", err)
	}
	for _, o := range orders {
		if u, ok := users[o.UserID]; ok {
			o.Customer = u.Customer()
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, typ notify.EventType, order *models.Order, status string) {
	ev := notify.Event{
		Type:        typ,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      status,
		OccurredAt:  s.now(),
	}
	if order.Customer != nil {
		ev.Recipient = order.Customer.Email
	}
	s.notifier.Notify(ctx, ev)
}

// estimatedDelivery is the default delivery promise for a new shipment.
func (s *Service) estimatedDelivery(from time.Time) time.Time {
	return from.AddDate(0, 0, s.shop.DeliveryDays)
}
