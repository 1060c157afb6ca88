package main

import (
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goattech/giftflow/internal/catalog"
	"github.com/goattech/giftflow/internal/gifts"
	"github.com/goattech/giftflow/internal/notifications"
	"github.com/goattech/giftflow/internal/orders"
	"github.com/goattech/giftflow/pkg/common"
	"github.com/goattech/giftflow/pkg/config"
	"github.com/goattech/giftflow/pkg/database"
	"github.com/goattech/giftflow/pkg/health"
	"github.com/goattech/giftflow/pkg/logger"
	"github.com/goattech/giftflow/pkg/middleware"
	"github.com/goattech/giftflow/pkg/ratelimit"
	"github.com/goattech/giftflow/pkg/redis"
	"github.com/goattech/giftflow/pkg/resilience"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load("gifts")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Sentry
	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     "gifts@" + serviceVersion,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Connect to PostgreSQL
	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)
	logger.Info("Connected to PostgreSQL database")

	// Run migrations
	if err := database.RunMigrations(&cfg.Database, "migrations"); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Repositories
	giftRepo := gifts.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	orderRepo := orders.NewRepository(pool, cfg.Orders.PaymentMethod)

	// Notification channels
	var emailClient notifications.EmailClientInterface
	if cfg.SMTP.Enabled {
		emailClient = notifications.NewEmailClient(&cfg.SMTP)
	}
	var smsClient notifications.SMSClientInterface
	if cfg.Twilio.Enabled {
		smsClient = notifications.NewTwilioClient(&cfg.Twilio)
	}

	notifier := notifications.NewService(emailClient, smsClient, giftRepo, cfg.Server.FrontendURL, cfg.Gifts.TTLDays)
	notifier.SetCircuitBreakers(
		resilience.NewCircuitBreaker(resilience.BuildSettings("smtp", 60, 30, 5, 2)),
		resilience.NewCircuitBreaker(resilience.BuildSettings("twilio", 60, 30, 5, 2)),
	)

	// Services
	orderService := orders.NewService(orderRepo)
	giftService := gifts.NewService(giftRepo, catalogRepo, orderService, notifier, cfg.Gifts)
	handler := gifts.NewHandler(giftService)

	// Verification rate limiter
	limiter := ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)

	// Claim reconciliation sweep
	reconciler := gifts.NewReconciler(giftService, cfg.Gifts.ReconcileInterval())
	reconciler.Start()
	defer reconciler.Stop()

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics("gifts"))
	if cfg.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheckWithDeps("gifts", serviceVersion, map[string]func() error{
		"postgres": health.DatabaseChecker(pool),
		"redis":    health.RedisChecker(redisClient.Client),
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, gifts.RouteMiddleware{
		Auth:        middleware.AuthMiddleware(cfg.JWT.Secret),
		VerifyLimit: limiter.Middleware(),
	}, 10*time.Second)

	// Start server
	addr := ":" + cfg.Server.Port
	logger.Info("Gift service starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
