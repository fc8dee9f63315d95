package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NotificationLister reads the operator notification log
type NotificationLister interface {
	ListNotifications(ctx context.Context, limit int) ([]models.Notification, error)
}

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the handler's collaborators
type Options struct {
	Promos         *service.PromoService
	Orders         *service.OrderService
	Catalog        *service.CatalogService
	Notifications  NotificationLister
	Auth           *Authenticator
	CurrencySymbol string
	// Dependencies are pinged by /ready, keyed by name.
	Dependencies map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	promoService   *service.PromoService
	orderService   *service.OrderService
	catalogService *service.CatalogService
	notifications  NotificationLister
	auth           *Authenticator
	currencySymbol string
	dependencies   map[string]Pinger
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(opts Options) *Handler {
	return &Handler{
		promoService:   opts.Promos,
		orderService:   opts.Orders,
		catalogService: opts.Catalog,
		notifications:  opts.Notifications,
		auth:           opts.Auth,
		currencySymbol: opts.CurrencySymbol,
		dependencies:   opts.Dependencies,
		logger:         util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/promo-codes/validate", h.validatePromoCode)
	router.GET("/categories", h.listCategories)

	user := router.Group("/user", h.auth.Authenticate())
	{
		user.POST("/orders/:id/cancel", h.cancelOrder)
	}

	admin := router.Group("/admin", h.auth.Authenticate(), RequireRole(RoleAdmin))
	{
		admin.POST("/promo-codes", h.createPromoCode)
		admin.PATCH("/promo-codes/:code/deactivate", h.deactivatePromoCode)
		admin.PATCH("/orders/:id/status", h.updateOrderStatus)
		admin.POST("/categories", h.createCategory)
		admin.GET("/notifications", h.listNotifications)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency and reports the failing ones
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failing := gin.H{}
	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			failing[name] = err.Error()
		}
	}

	if len(failing) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failing,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
