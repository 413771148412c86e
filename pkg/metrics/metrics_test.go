package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/products/:id", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(w.Body.String(), "storefront_http_requests_total"))
}

func TestBusinessCounters(t *testing.T) {
	m := New()
	m.OrderPlaced(3, 10*time.Millisecond)
	m.OrderCancelled(2)
	m.OrderRejected("insufficient_stock")
	m.StatusChanged("Shipped")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersPlaced))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ItemsSold))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StockRestored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderRejections.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderStatusChanges.WithLabelValues("Shipped")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderPlaced(1, time.Millisecond)
		m.OrderCancelled(1)
		m.OrderRejected("x")
		m.StatusChanged("Shipped")
	})
}
