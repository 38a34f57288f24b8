package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/printhub/printhub-backend/api/routes"
	"github.com/printhub/printhub-backend/internal/config"
	"github.com/printhub/printhub-backend/internal/events"
	"github.com/printhub/printhub-backend/internal/handlers"
	"github.com/printhub/printhub-backend/internal/location"
	"github.com/printhub/printhub-backend/internal/logger"
	"github.com/printhub/printhub-backend/internal/metrics"
	mongorepo "github.com/printhub/printhub-backend/internal/repositories/mongodb"
	"github.com/printhub/printhub-backend/internal/services"
	"github.com/printhub/printhub-backend/pkg/jwt"
	"github.com/printhub/printhub-backend/pkg/mailer"
	"github.com/printhub/printhub-backend/pkg/mongodb"
	"github.com/printhub/printhub-backend/pkg/ratelimit"
	"github.com/printhub/printhub-backend/pkg/razorpay"
	"github.com/printhub/printhub-backend/pkg/storage"
	"github.com/printhub/printhub-backend/web"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("failed to create indexes", zap.Error(err))
	}

	userRepo := mongorepo.NewUserRepository(db)
	productRepo := mongorepo.NewProductRepository(db)
	orderRepo := mongorepo.NewOrderRepository(db)
	subscriptionRepo := mongorepo.NewSubscriptionRepository(db)
	activityRepo := mongorepo.NewActivityLogRepository(db)

	m := metrics.New()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		conn, err := events.Connect(cfg.NATS.URL, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer func() { _ = conn.Drain() }()
		natsPublisher, err := events.NewNATSPublisher(conn)
		if err != nil {
			log.Fatal("failed to create event publisher", zap.Error(err))
		}
		publisher = natsPublisher
	} else {
		log.Info("NATS_URL not set, domain events are disabled")
	}

	var rateCounter ratelimit.Counter
	if cfg.Redis.Addr != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// the limiter fails open, so a missing Redis only disables it
			log.Warn("redis unavailable, auth rate limiting disabled", zap.Error(err))
		} else {
			defer func() { _ = rdb.Close() }()
			rateCounter = ratelimit.NewRedisCounter(rdb, "printhub:ratelimit")
		}
	}

	var store storage.Store
	if cfg.Storage.AccessKey != "" {
		minioStore, err := storage.NewMinioStore(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		}, log)
		if err != nil {
			log.Fatal("failed to initialise object storage", zap.Error(err))
		}
		store = minioStore
	} else {
		log.Warn("storage credentials not set, visiting cards are kept in memory")
		store = storage.NewMemoryStore(cfg.Server.BaseURL + "/files")
	}

	var mail mailer.Mailer
	if cfg.SMTP.MockMailer {
		mail = mailer.NewMockMailer(log)
	} else {
		smtpMailer, err := mailer.NewSMTPMailer(mailer.Config{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			From:       cfg.SMTP.From,
			SenderName: cfg.SMTP.SenderName,
		}, log)
		if err != nil {
			log.Fatal("failed to initialise mailer", zap.Error(err))
		}
		mail = smtpMailer
	}

	gateway := razorpay.NewClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret,
		cfg.Razorpay.WebhookSecret, cfg.Razorpay.MockAPI)
	if cfg.Razorpay.MockAPI {
		log.Warn("razorpay mock mode is on, no real payments are taken")
	}

	sessionTTL := time.Duration(cfg.JWT.ExpiresIn) * time.Second
	tokens := jwt.NewSessionTokenService(cfg.JWT.Secret, sessionTTL)

	plans := make([]services.Plan, 0, len(cfg.Subscription.Plans))
	for _, p := range cfg.Subscription.Plans {
		plans = append(plans, services.Plan{Name: p.Name, Amount: p.Amount, DurationDays: p.DurationDays})
	}

	activityService := services.NewActivityLogService(activityRepo, log)
	authService := services.NewAuthService(userRepo, tokens, mail, store, activityService, publisher, m, log,
		services.AuthConfig{OTPTTL: cfg.OTP.TTL, MaxOTPAttempts: cfg.OTP.MaxAttempts})
	userService := services.NewUserService(userRepo, store, activityService, cfg.Storage.URLExpiry)
	productService := services.NewProductService(productRepo, activityService)
	orderService := services.NewOrderService(orderRepo, productRepo, gateway, activityService, publisher, m, log,
		services.OrderConfig{TaxRate: cfg.Tax.Rate, Currency: cfg.Currency, KeyID: cfg.Razorpay.KeyID})
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo, gateway, activityService, publisher, m, log,
		services.SubscriptionConfig{Plans: plans, Currency: cfg.Currency, KeyID: cfg.Razorpay.KeyID})
	webhookService := services.NewWebhookService(gateway, log, orderService, subscriptionService)
	statsService := services.NewStatsService(userRepo, productRepo, orderRepo)

	locations, err := location.Load()
	if err != nil {
		log.Fatal("failed to load location dataset", zap.Error(err))
	}

	templates, err := web.Templates()
	if err != nil {
		log.Fatal("failed to parse page templates", zap.Error(err))
	}

	handlerDeps := routes.HandlerDependencies{
		AuthHandler: handlers.NewAuthHandler(authService, handlers.CookieConfig{
			Name:   cfg.JWT.CookieName,
			MaxAge: cfg.JWT.ExpiresIn,
			Secure: cfg.IsProduction(),
		}),
		UserHandler:         handlers.NewUserHandler(userService),
		ProductHandler:      handlers.NewProductHandler(productService),
		OrderHandler:        handlers.NewOrderHandler(orderService),
		PaymentHandler:      handlers.NewPaymentHandler(webhookService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(subscriptionService),
		AdminHandler:        handlers.NewAdminHandler(activityService, statsService),
		LocationHandler:     handlers.NewLocationHandler(locations),
		HealthHandler:       handlers.NewHealthHandler(mongoClient),
		PageHandler:         handlers.NewPageHandler(productService, orderService, statsService, cfg.Razorpay.KeyID),
	}

	router := routes.SetupRouter(handlerDeps, routes.RouterOptions{
		Authenticator:  authService,
		CookieName:     cfg.JWT.CookieName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
		Metrics:        m,
		RateCounter:    rateCounter,
		RateLimit:      cfg.Redis.RateLimit,
		RateWindow:     cfg.Redis.RateWindow,
		Templates:      templates,
		Static:         web.Static(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout,
	}

	log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exiting")
}
