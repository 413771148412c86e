package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusDelivered, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusProcessing, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusProcessing, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusProcessing, OrderStatus("Lost"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestShipmentStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, ShipmentStatusPreparing.CanTransitionTo(ShipmentStatusInTransit))
	assert.True(t, ShipmentStatusInTransit.CanTransitionTo(ShipmentStatusReadyForPickup))
	assert.True(t, ShipmentStatusReadyForPickup.CanTransitionTo(ShipmentStatusCancelled))
	assert.False(t, ShipmentStatusDelivered.CanTransitionTo(ShipmentStatusInTransit))
	assert.False(t, ShipmentStatusCancelled.CanTransitionTo(ShipmentStatusPreparing))
	assert.False(t, ShipmentStatusPreparing.CanTransitionTo(ShipmentStatus("Lost")))
}

func TestSyncRule_OrderToShipment(t *testing.T) {
	assert.Equal(t, ShipmentStatusPreparing, ShipmentStatusFor(OrderStatusProcessing))
	assert.Equal(t, ShipmentStatusInTransit, ShipmentStatusFor(OrderStatusShipped))
	assert.Equal(t, ShipmentStatusDelivered, ShipmentStatusFor(OrderStatusDelivered))
	assert.Equal(t, ShipmentStatusCancelled, ShipmentStatusFor(OrderStatusCancelled))
}

func TestSyncRule_ShipmentToOrder(t *testing.T) {
	assert.Equal(t, OrderStatusProcessing, OrderStatusFor(ShipmentStatusPreparing))
	assert.Equal(t, OrderStatusShipped, OrderStatusFor(ShipmentStatusInTransit))
	assert.Equal(t, OrderStatusShipped, OrderStatusFor(ShipmentStatusReadyForPickup))
	assert.Equal(t, OrderStatusDelivered, OrderStatusFor(ShipmentStatusDelivered))
	assert.Equal(t, OrderStatusCancelled, OrderStatusFor(ShipmentStatusCancelled))
}

func TestSyncRule_RoundTrip(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.Equal(t, s, OrderStatusFor(ShipmentStatusFor(s)), "order status %s", s)
	}
}

func TestWishlist_Has(t *testing.T) {
	w := &Wishlist{Products: []string{"a", "b"}}
	assert.True(t, w.Has("b"))
	assert.False(t, w.Has("c"))
}
