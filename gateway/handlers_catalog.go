package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/candleshop/pkg/service"
)

// listProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param category query string false "Category filter"
// @Success 200 {array} models.Product
// @Router /api/products [get]
func (g *Gateway) listProducts(c *gin.Context) {
	products, err := g.svc.ListProducts(c.Request.Context(), c.Query("category"))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// getProduct godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} errorResponse
// @Router /api/products/{id} [get]
func (g *Gateway) getProduct(c *gin.Context) {
	p, err := g.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (g *Gateway) createProduct(c *gin.Context) {
	var in service.ProductInput
	if !g.bindJSON(c, &in) {
		return
	}
	p, err := g.svc.CreateProduct(c.Request.Context(), caller(c), in)
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (g *Gateway) updateProduct(c *gin.Context) {
	var in service.ProductUpdate
	if !g.bindJSON(c, &in) {
		return
	}
	p, err := g.svc.UpdateProduct(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	if err := g.svc.DeleteProduct(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

func (g *Gateway) getWishlist(c *gin.Context) {
	w, err := g.svc.GetWishlist(c.Request.Context(), caller(c))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (g *Gateway) addToWishlist(c *gin.Context) {
	w, err := g.svc.AddToWishlist(c.Request.Context(), caller(c), c.Param("productId"))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (g *Gateway) removeFromWishlist(c *gin.Context) {
	w, err := g.svc.RemoveFromWishlist(c.Request.Context(), caller(c), c.Param("productId"))
	if err != nil {
		g.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
