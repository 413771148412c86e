package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/candleshop/pkg/service"
)

// placeOrder godoc
// @Summary Place an order
// @Description Reserves stock for every line and creates the order with its shipment. Insufficient stock answers 409.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.PlaceOrderInput true "Order"
// @Success 201 {object} models.Order
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/orders [post]
func (g *Gateway) placeOrder(c *gin.Context) {
	var in service.PlaceOrderInput
	if !g.bindJSON(c, &in) {
		return
	}
	order, err := g.svc.PlaceOrder(c.Request.Context(), caller(c), in)
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// listOrders godoc
// @Summary Orders of the current user
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Order
// @Router /api/orders [get]
func (g *Gateway) listOrders(c *gin.Context) {
	orders, err := g.svc.ListOrders(c.Request.Context(), caller(c))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (g *Gateway) orderHistory(c *gin.Context) {
	orders, err := g.svc.OrderHistory(c.Request.Context(), caller(c))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// getOrder godoc
// @Summary Get an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /api/orders/{id} [get]
func (g *Gateway) getOrder(c *gin.Context) {
	order, err := g.svc.GetOrder(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// cancelOrder godoc
// @Summary Cancel an order
// @Description Only Processing orders can be cancelled. Stock is restored.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 409 {object} errorResponse
// @Router /api/orders/{id}/cancel [put]
func (g *Gateway) cancelOrder(c *gin.Context) {
	order, err := g.svc.CancelOrder(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) getTracking(c *gin.Context) {
	tr, err := g.svc.GetTracking(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}
