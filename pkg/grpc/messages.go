package grpc

import (
	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/service"
)

type OrderRequest struct {
	OrderID string `json:"orderId"`
}

type ListOrdersRequest struct {
	// History limits the result to delivered and cancelled orders.
	History bool `json:"history,omitempty"`
	// All lists every customer's orders and requires an admin caller.
	All bool `json:"all,omitempty"`
}

type OrderList struct {
	Orders []*models.Order `json:"orders"`
}

type UpdateOrderStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type UpdateShipmentRequest struct {
	ShipmentID string `json:"shipmentId"`
	service.UpdateShipmentInput
}

type Empty struct{}
