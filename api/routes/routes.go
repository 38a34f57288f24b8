package routes

import (
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/handlers"
	"github.com/printhub/printhub-backend/internal/metrics"
	"github.com/printhub/printhub-backend/internal/middleware"
	"github.com/printhub/printhub-backend/pkg/ratelimit"
	"go.uber.org/zap"
)

// HandlerDependencies groups the handlers wired into the router
type HandlerDependencies struct {
	AuthHandler         *handlers.AuthHandler
	UserHandler         *handlers.UserHandler
	ProductHandler      *handlers.ProductHandler
	OrderHandler        *handlers.OrderHandler
	PaymentHandler      *handlers.PaymentHandler
	SubscriptionHandler *handlers.SubscriptionHandler
	AdminHandler        *handlers.AdminHandler
	LocationHandler     *handlers.LocationHandler
	HealthHandler       *handlers.HealthHandler
	PageHandler         *handlers.PageHandler
}

// RouterOptions carries the cross-cutting pieces of the router
type RouterOptions struct {
	Authenticator  middleware.Authenticator
	CookieName     string
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// RateCounter backs the auth rate limit; nil disables it
	RateCounter ratelimit.Counter
	RateLimit   int
	RateWindow  time.Duration
	// Templates and Static enable the HTML pages when set
	Templates *template.Template
	Static    fs.FS
}

// SetupRouter sets up the router
func SetupRouter(deps HandlerDependencies, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.Metrics(opts.Metrics))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.SessionAuth(opts.Authenticator, opts.CookieName))

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/health", deps.HealthHandler.Health)

		api.GET("/products", deps.ProductHandler.ListProducts)
		api.GET("/products/:id", deps.ProductHandler.GetProduct)

		locations := api.Group("/locations")
		{
			locations.GET("", deps.LocationHandler.All)
			locations.GET("/countries", deps.LocationHandler.Countries)
			locations.GET("/countries/:country/states", deps.LocationHandler.States)
			locations.GET("/countries/:country/states/:state/cities", deps.LocationHandler.Cities)
		}

		auth := api.Group("/auth")
		auth.Use(middleware.RateLimit(opts.RateCounter, "auth", opts.RateLimit, opts.RateWindow, opts.Metrics, opts.Logger))
		{
			auth.POST("/register", deps.AuthHandler.Register)
			auth.POST("/login", deps.AuthHandler.Login)
			auth.POST("/verify-otp", deps.AuthHandler.VerifyOTP)
			auth.POST("/logout", deps.AuthHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), deps.AuthHandler.Me)
		}

		api.POST("/payments/webhook", deps.PaymentHandler.Webhook)

		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.POST("/orders", deps.OrderHandler.CreateOrder)
			protected.GET("/orders", deps.OrderHandler.ListMyOrders)
			protected.POST("/orders/verify", deps.OrderHandler.VerifyPayment)
			protected.GET("/orders/:id", deps.OrderHandler.GetMyOrder)

			protected.POST("/subscriptions", deps.SubscriptionHandler.CreateSubscription)
			protected.POST("/subscriptions/verify", deps.SubscriptionHandler.VerifySubscription)
			protected.GET("/subscriptions", deps.SubscriptionHandler.MySubscriptions)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/stats", deps.AdminHandler.Dashboard)
			admin.GET("/activity-logs", deps.AdminHandler.ListActivityLogs)

			products := admin.Group("/products")
			{
				products.GET("", deps.ProductHandler.ListProducts)
				products.POST("", deps.ProductHandler.CreateProduct)
				products.GET("/:id", deps.ProductHandler.GetProduct)
				products.PUT("/:id", deps.ProductHandler.UpdateProduct)
				products.DELETE("/:id", deps.ProductHandler.DeleteProduct)
			}

			users := admin.Group("/users")
			{
				users.GET("", deps.UserHandler.ListUsers)
				users.POST("", deps.UserHandler.CreateUser)
				users.GET("/:id", deps.UserHandler.GetUser)
				users.PUT("/:id", deps.UserHandler.UpdateUser)
				users.DELETE("/:id", deps.UserHandler.DeleteUser)
				users.POST("/:id/approve", deps.UserHandler.ApproveUser)
				users.GET("/:id/visiting-card", deps.UserHandler.VisitingCard)
			}

			orders := admin.Group("/orders")
			{
				orders.GET("", deps.OrderHandler.ListOrders)
				orders.GET("/:id", deps.OrderHandler.GetOrder)
				orders.PATCH("/:id/status", deps.OrderHandler.UpdateOrderStatus)
				orders.POST("/:id/refund", deps.OrderHandler.RefundOrder)
			}
		}
	}

	if opts.Templates != nil && deps.PageHandler != nil {
		router.SetHTMLTemplate(opts.Templates)
		if opts.Static != nil {
			router.StaticFS("/static", http.FS(opts.Static))
		}

		pages := deps.PageHandler
		router.GET("/", pages.Home)
		router.GET("/login", pages.Login)
		router.GET("/register", pages.Register)
		router.GET("/orders", middleware.PageAuth(), pages.Orders)
		router.GET("/admin", middleware.PageAdmin(), pages.Admin)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return router
}
