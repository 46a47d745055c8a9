package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	feedhandler "github.com/quickbite/storefront-api/internal/handler/feed"
	"github.com/quickbite/storefront-api/internal/handler/health"
	messagehandler "github.com/quickbite/storefront-api/internal/handler/message"
	notificationhandler "github.com/quickbite/storefront-api/internal/handler/notification"
	orderhandler "github.com/quickbite/storefront-api/internal/handler/order"
	producthandler "github.com/quickbite/storefront-api/internal/handler/product"
	userhandler "github.com/quickbite/storefront-api/internal/handler/user"
	webhookhandler "github.com/quickbite/storefront-api/internal/handler/webhook"
	"github.com/quickbite/storefront-api/internal/middleware"
	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/pkg/metrics"
)

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
	Timeout    time.Duration
}

type Handlers struct {
	Health       *health.Handler
	Message      *messagehandler.Handler
	Notification *notificationhandler.Handler
	Order        *orderhandler.Handler
	Product      *producthandler.Handler
	User         *userhandler.Handler
	Webhook      *webhookhandler.Handler
	Feed         *feedhandler.Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	metrics  *metrics.Metrics
}

func New(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, config Config) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		metrics:  m,
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
		middleware.Validation(middleware.DefaultValidationConfig()),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.handlers.Health.RegisterRoutes(api)
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes: the catalog and the auth-collaborator webhook.
	r.handlers.Product.RegisterRoutes(api)
	r.handlers.Webhook.RegisterRoutes(api)
	r.handlers.Feed.RegisterPublicRoutes(api)

	// Authenticated routes.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	{
		r.handlers.User.RegisterRoutes(protected)
		r.handlers.Message.RegisterRoutes(protected)
		r.handlers.Notification.RegisterRoutes(protected)
		r.handlers.Order.RegisterRoutes(protected)
		r.handlers.Feed.RegisterRoutes(protected)
	}

	// Staff routes: admins, employees, and delivery people. Finer
	// splits happen in the services.
	staff := protected.Group("/staff")
	staff.Use(r.auth.RequireRole(model.RoleAdmin, model.RoleEmployee, model.RoleDelivery))
	{
		r.handlers.Order.RegisterStaffRoutes(staff)
		r.handlers.User.RegisterStaffRoutes(staff)
	}

	// Admin-only routes.
	admin := protected.Group("/admin")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))
	{
		r.handlers.Product.RegisterAdminRoutes(admin)
		r.handlers.User.RegisterAdminRoutes(admin)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		r.metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		r.metrics.HTTPLatency.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
