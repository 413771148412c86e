package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/service"
)

type errorResponse struct {
	Message string `json:"message"`
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (g *Gateway) abortWithError(c *gin.Context, err error) {
	status := statusFor(service.KindOf(err))
	if status == http.StatusInternalServerError {
		requestLogger(c, g.logger).Error("Request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Message: service.PublicMessage(err)})
}

// bindJSON decodes the request body and reports a 400 on malformed input.
func (g *Gateway) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body"})
		return false
	}
	return true
}
