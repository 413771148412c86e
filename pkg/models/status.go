package models

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status writes are accepted.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Cancellable reports whether the order may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusProcessing
}

// CanTransitionTo reports whether an order in status s may move to next.
// Rewriting the current status is allowed so a sync can be replayed.
// Cancelled is only reachable from Processing; terminal states are final.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return s.Cancellable()
	}
	return true
}

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusPreparing      ShipmentStatus = "Preparing"
	ShipmentStatusInTransit      ShipmentStatus = "In Transit"
	ShipmentStatusReadyForPickup ShipmentStatus = "Ready for Pickup"
	ShipmentStatusDelivered      ShipmentStatus = "Delivered"
	ShipmentStatusCancelled      ShipmentStatus = "Cancelled"
)

var ShipmentStatuses = []ShipmentStatus{
	ShipmentStatusPreparing,
	ShipmentStatusInTransit,
	ShipmentStatusReadyForPickup,
	ShipmentStatusDelivered,
	ShipmentStatusCancelled,
}

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentStatusPreparing, ShipmentStatusInTransit, ShipmentStatusReadyForPickup,
		ShipmentStatusDelivered, ShipmentStatusCancelled:
		return true
	}
	return false
}

func (s ShipmentStatus) Terminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusCancelled
}

// CanTransitionTo reports whether a shipment in status s may move to next.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	return !s.Terminal()
}

// ShipmentStatusFor returns the shipment status paired with an order status.
func ShipmentStatusFor(s OrderStatus) ShipmentStatus {
	switch s {
	case OrderStatusShipped:
		return ShipmentStatusInTransit
	case OrderStatusDelivered:
		return ShipmentStatusDelivered
	case OrderStatusCancelled:
		return ShipmentStatusCancelled
	default:
		return ShipmentStatusPreparing
	}
}

// OrderStatusFor returns the order status paired with a shipment status.
// A parcel that is ready for pickup has left the shop, so the order reads
// Shipped until it is collected.
func OrderStatusFor(s ShipmentStatus) OrderStatus {
	switch s {
	case ShipmentStatusInTransit, ShipmentStatusReadyForPickup:
		return OrderStatusShipped
	case ShipmentStatusDelivered:
		return OrderStatusDelivered
	case ShipmentStatusCancelled:
		return OrderStatusCancelled
	default:
		return OrderStatusProcessing
	}
}
