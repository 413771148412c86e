package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/notify"
	"github.com/example/candleshop/pkg/repository"
)

type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepPending   StepState = "pending"
)

// TrackingSteps are the progress milestones shown to customers.
var TrackingSteps = []string{"Order Placed", "Processing", "Shipped", "Delivered"}

type TrackingStep struct {
	Label string    `json:"label"`
	State StepState `json:"state"`
}

// Tracking is the customer view of a shipment.
type Tracking struct {
	*models.Shipment
	OrderNumber string             `json:"orderNumber"`
	OrderStatus models.OrderStatus `json:"orderStatus"`
	Steps       []TrackingStep     `json:"steps"`
	Cancelled   bool               `json:"cancelled"`
}

// ShipmentView is a shipment joined with its order and customer for the
// back office.
type ShipmentView struct {
	*models.Shipment
	OrderNumber string             `json:"orderNumber,omitempty"`
	OrderStatus models.OrderStatus `json:"orderStatus,omitempty"`
	Customer    *models.Customer   `json:"customer,omitempty"`
}

type UpdateShipmentInput struct {
	Status            string     `json:"status,omitempty" validate:"omitempty,shipmentstatus"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	ShippingMethod    string     `json:"shippingMethod,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
}

// BuildSteps derives the progress steps for an order status.
func BuildSteps(status models.OrderStatus) []TrackingStep {
	current := 0
	switch status {
	case models.OrderStatusProcessing:
		current = 1
	case models.OrderStatusShipped:
		current = 2
	case models.OrderStatusDelivered:
		current = len(TrackingSteps)
	}

	steps := make([]TrackingStep, len(TrackingSteps))
	for i, label := range TrackingSteps {
		state := StepPending
		switch {
		case i < current, i == 0:
			state = StepCompleted
		case i == current:
			state = StepCurrent
		}
		steps[i] = TrackingStep{Label: label, State: state}
	}
	return steps
}

// GetTracking returns the shipment of an order to its owner or an admin.
func (s *Service) GetTracking(ctx context.Context, caller *models.User, orderID string) (*Tracking, error) {
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

	shipment, err := s.store.GetShipmentByOrder(ctx, order.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "Shipment not found")
	}
	if err != nil {
		return nil, s.fail(ctx, "get tracking", err)
	}

	return &Tracking{
		Shipment:    shipment,
		OrderNumber: order.OrderNumber,
		OrderStatus: order.Status,
		Steps:       BuildSteps(order.Status),
		Cancelled:   order.Status == models.OrderStatusCancelled,
	}, nil
}

// ListShipments returns every shipment, newest first, with order number,
// order status and customer attached.
func (s *Service) ListShipments(ctx context.Context, caller *models.User) ([]*ShipmentView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	shipments, err := s.store.ListShipments(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list shipments", err)
	}
	orders, err := s.store.ListOrders(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, s.fail(ctx, "list shipments", err)
	}
	if err := s.attachCustomers(ctx, orders); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}

	views := make([]*ShipmentView, 0, len(shipments))
	for _, sh := range shipments {
		v := &ShipmentView{Shipment: sh}
		if o, ok := byID[sh.OrderID]; ok {
			v.OrderNumber = o.OrderNumber
			v.OrderStatus = o.Status
			v.Customer = o.Customer
		}
		views = append(views, v)
	}
	return views, nil
}

// UpdateShipment lets an admin edit a shipment. Empty fields are left as
// they are. A status change moves the order to the matching status in the
// same transaction; Cancelled goes through order cancellation.
func (s *Service) UpdateShipment(ctx context.Context, caller *models.User, shipmentID string, in UpdateShipmentInput) (*models.Shipment, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	shipment, err := s.loadShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, shipment.OrderID)
	if err != nil {
		return nil, err
	}

	target := models.ShipmentStatus(in.Status)
	if target == "" {
		target = shipment.Status
	}

	if target == models.ShipmentStatusCancelled && shipment.Status != models.ShipmentStatusCancelled {
		if !order.Status.Cancellable() {
			return nil, cannotCancel(order.Status)
		}
		if _, err := s.cancelOrder(ctx, order); err != nil {
			return nil, err
		}
		if shipment, err = s.loadShipment(ctx, shipmentID); err != nil {
			return nil, err
		}
		order.Status = models.OrderStatusCancelled
	}

	if !shipment.Status.CanTransitionTo(target) {
		return nil, newError(KindConflict, "Cannot change shipment status from %s to %s", shipment.Status, target)
	}
	orderTarget := models.OrderStatusFor(target)
	if orderTarget != order.Status && !order.Status.CanTransitionTo(orderTarget) {
		return nil, newError(KindConflict, "Cannot move order from %s to %s", order.Status, orderTarget)
	}

	prev := shipment.Status
	updated := *shipment
	updated.Status = target
	if in.TrackingNumber != "" {
		updated.TrackingNumber = in.TrackingNumber
	}
	if in.ShippingMethod != "" {
		updated.ShippingMethod = in.ShippingMethod
	}
	if in.EstimatedDelivery != nil && !in.EstimatedDelivery.IsZero() {
		eta := *in.EstimatedDelivery
		updated.EstimatedDelivery = &eta
	}
	updated.UpdatedAt = s.now()

	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateShipment(ctx, &updated, prev); err != nil {
			return err
		}
		if orderTarget != order.Status {
			return s.store.SetOrderStatus(ctx, order.ID, order.Status, orderTarget)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "update shipment", err)
	}

	if target != prev {
		s.log(ctx).Info("Shipment status changed",
			zap.String("shipment_id", updated.ID),
			zap.String("order_id", order.ID),
			zap.String("from", string(prev)),
			zap.String("to", string(target)))
		if orderTarget != order.Status {
			s.metrics.StatusChanged(string(orderTarget))
		}
		if err := s.attachCustomers(ctx, []*models.Order{order}); err == nil {
			s.notify(ctx, notify.EventShipmentUpdated, order, string(target))
		}
	}
	return &updated, nil
}

func (s *Service) loadShipment(ctx context.Context, id string) (*models.Shipment, error) {
	shipment, err := s.store.GetShipment(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "Shipment not found")
	}
	if err != nil {
		return nil, s.fail(ctx, "get shipment", err)
	}
	return shipment, nil
}
