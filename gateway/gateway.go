package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/example/candleshop/docs"
	"github.com/example/candleshop/pkg/config"
	"github.com/example/candleshop/pkg/metrics"
	"github.com/example/candleshop/pkg/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Gateway struct {
	svc     *service.Service
	health  HealthChecker
	metrics *metrics.Metrics
	logger  *zap.Logger
	router  *gin.Engine
	server  *http.Server
}

func NewGateway(cfg *config.GatewayConfig, svc *service.Service, health HealthChecker, m *metrics.Metrics, logger *zap.Logger) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	router.Use(recoveryMiddleware())

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: !allowsAnyOrigin(origins),
		MaxAge:           12 * time.Hour,
	}))
	if m != nil {
		router.Use(m.Middleware())
	}
	if cfg.RequestTimeout > 0 {
		router.Use(timeoutMiddleware(cfg.RequestTimeout))
	}

	g := &Gateway{
		svc:     svc,
		health:  health,
		metrics: m,
		logger:  logger,
		router:  router,
		server:  &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	g.SetupRoutes()
	return g
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.healthCheck)
	if g.metrics != nil {
		g.router.GET("/metrics", gin.WrapH(g.metrics.Handler()))
	}
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := g.router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", g.register)
			authGroup.POST("/login", g.login)
		}

		users := api.Group("/users", g.authRequired())
		{
			users.GET("/me", g.me)
			users.PUT("/profile", g.updateProfile)
			users.PUT("/password", g.changePassword)
		}

		products := api.Group("/products")
		{
			products.GET("", g.listProducts)
			products.GET("/:id", g.getProduct)
			products.POST("", g.authRequired(), adminOnly(), g.createProduct)
			products.PUT("/:id", g.authRequired(), adminOnly(), g.updateProduct)
			products.DELETE("/:id", g.authRequired(), adminOnly(), g.deleteProduct)
		}

		orders := api.Group("/orders", g.authRequired())
		{
			orders.POST("", g.placeOrder)
			orders.GET("", g.listOrders)
			orders.GET("/history", g.orderHistory)
			orders.GET("/:id", g.getOrder)
			orders.PUT("/:id/cancel", g.cancelOrder)
			orders.GET("/:id/tracking", g.getTracking)
		}

		wishlist := api.Group("/wishlist", g.authRequired())
		{
			wishlist.GET("", g.getWishlist)
			wishlist.POST("/:productId", g.addToWishlist)
			wishlist.DELETE("/:productId", g.removeFromWishlist)
		}

		admin := api.Group("/admin", g.authRequired(), adminOnly())
		{
			admin.GET("/orders", g.adminListOrders)
			admin.PUT("/orders/:id", g.updateOrderStatus)
			admin.GET("/shipments", g.listShipments)
			admin.PUT("/shipments/:id", g.updateShipment)
			admin.GET("/dashboard", g.dashboard)
		}
	}

	g.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found - " + c.Request.URL.Path})
	})
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

// healthCheck godoc
// @Summary Liveness and store reachability
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (g *Gateway) healthCheck(c *gin.Context) {
	if g.health != nil {
		if err := g.health.Ping(c.Request.Context()); err != nil {
			requestLogger(c, g.logger).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
