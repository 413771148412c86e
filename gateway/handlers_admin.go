package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/candleshop/pkg/service"
)

func (g *Gateway) adminListOrders(c *gin.Context) {
	orders, err := g.svc.AdminListOrders(c.Request.Context(), caller(c))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// updateOrderStatus godoc
// @Summary Change an order's status
// @Description The paired shipment follows the order.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param body body service.UpdateOrderStatusInput true "Status"
// @Success 200 {object} models.Order
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/admin/orders/{id} [put]
func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var in service.UpdateOrderStatusInput
	if !g.bindJSON(c, &in) {
		return
	}
	order, err := g.svc.UpdateOrderStatus(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) listShipments(c *gin.Context) {
	shipments, err := g.svc.ListShipments(c.Request.Context(), caller(c))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipments)
}

// updateShipment godoc
// @Summary Edit a shipment
// @Description Status changes move the order to the matching status.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Param body body service.UpdateShipmentInput true "Changes"
// @Success 200 {object} models.Shipment
// @Router /api/admin/shipments/{id} [put]
func (g *Gateway) updateShipment(c *gin.Context) {
	var in service.UpdateShipmentInput
	if !g.bindJSON(c, &in) {
		return
	}
	shipment, err := g.svc.UpdateShipment(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipment)
}

func (g *Gateway) dashboard(c *gin.Context) {
	d, err := g.svc.Dashboard(c.Request.Context(), caller(c))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
