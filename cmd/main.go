package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"freightdesk/internal/caching"
	"freightdesk/internal/config"
	"freightdesk/internal/handlers"
	"freightdesk/internal/jobs"
	"freightdesk/internal/jobs/background"
	"freightdesk/internal/middleware"
	"freightdesk/internal/models"
	"freightdesk/internal/repositories"
	"freightdesk/internal/services"
	"freightdesk/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	database.DB = pool
	defer database.ClosePool()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret, tokens will not survive a restart")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"
	documentBucket := os.Getenv("MINIO_BUCKET")
	if documentBucket == "" {
		documentBucket = "freightdesk-documents"
	}

	// Billing and queuing configuration
	billingCfg, err := config.LoadBillingConfig(os.Getenv("BILLING_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load billing config: %v", err)
	}
	if billingCfg.Queuing.RedisAddr == "" {
		billingCfg.Queuing.RedisAddr = redisAddr
	}

	// Object storage
	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background(), documentBucket); err != nil {
		log.Fatalf("Failed to ensure document bucket: %v", err)
	}

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	loadRepo := repositories.NewLoadRepo(pool)
	vehicleRepo := repositories.NewVehicleRepo(pool)
	expenseRepo := repositories.NewExpenseRepo(pool)
	dvirRepo := repositories.NewDVIRRepo(pool)
	referralRepo := repositories.NewReferralRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)
	notificationRepo := repositories.NewNotificationRepo(pool)
	auditLogRepo := repositories.NewAuditLogsRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Task distribution over asynq
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: billingCfg.Queuing.RedisAddr, Password: redisPassword})
	defer asynqClient.Close()
	distributor := jobs.NewDistributor(asynqClient)

	// Create services
	authSvc := services.NewAuthService(cacheSvc, jwtSecret, 900, 7*24*3600)
	userSvc := services.NewUserService(userRepo)
	tenantSvc := services.NewTenantService(tenantRepo)
	loadSvc := services.NewLoadService(loadRepo, userRepo, cacheSvc, distributor)
	vehicleSvc := services.NewVehicleService(vehicleRepo)
	expenseSvc := services.NewExpenseService(expenseRepo, distributor)
	dvirSvc := services.NewDVIRService(dvirRepo, vehicleRepo, userRepo, distributor)
	referralSvc := services.NewReferralService(referralRepo)
	notificationSvc := services.NewNotificationService(notificationRepo)
	auditSvc := services.NewAuditLogsService(auditLogRepo)
	stripeSvc := services.NewStripeService(billingCfg.Stripe.APIKey, billingCfg.Stripe.WebhookSecret, billingCfg.Stripe.APIBaseURL)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, userRepo, stripeSvc)
	rateConSvc := services.NewRateConService(loadRepo, tenantRepo, userRepo, storageSvc, documentBucket)

	// Background workers
	processor := jobs.NewProcessor(rateConSvc, notificationSvc, loadRepo)
	worker := jobs.NewWorker(billingCfg.Queuing, redisPassword, processor)
	worker.Start()
	defer worker.Shutdown()

	scheduler := background.NewJobScheduler(subscriptionSvc, loadRepo, distributor, billingCfg.Sweeps)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, userSvc)
	userHandlers := handlers.NewUserHandlers(userSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc)
	loadHandlers := handlers.NewLoadHandlers(loadSvc, rateConSvc, storageSvc, documentBucket)
	vehicleHandlers := handlers.NewVehicleHandlers(vehicleSvc)
	expenseHandlers := handlers.NewExpenseHandlers(expenseSvc)
	dvirHandlers := handlers.NewDVIRHandlers(dvirSvc)
	referralHandlers := handlers.NewReferralHandlers(referralSvc)
	notificationHandlers := handlers.NewNotificationHandlers(notificationSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	webhookHandlers := handlers.NewWebhookHandlers(stripeSvc, subscriptionSvc, cacheSvc)
	auditHandlers := handlers.NewAuditLogsHandlers(auditSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Stripe webhooks (signature-verified, no JWT)
	e.POST("/webhooks/stripe", webhookHandlers.StripeWebhook)

	v1 := e.Group("/v1")

	// Authentication and onboarding (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	v1.POST("/tenants", tenantHandlers.CreateTenant)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(jwtSecret))
	auditMw := middleware.NewAuditMiddleware(auditSvc)
	protected.Use(auditMw.AuditRequest())

	dispatch := middleware.RequireRoles(models.RoleAdmin, models.RoleDispatcher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	driverOnly := middleware.RequireRoles(models.RoleDriver)

	protected.POST("/auth/logout", authHandlers.Logout)
	protected.GET("/me", authHandlers.Me)

	// Tenant routes
	protected.GET("/tenant", tenantHandlers.GetTenant)
	protected.PUT("/tenant", tenantHandlers.UpdateTenant, adminOnly)

	// User routes
	protected.GET("/users", userHandlers.ListUsers, dispatch)
	protected.GET("/users/:id", userHandlers.GetUser, dispatch)
	protected.GET("/drivers/available", userHandlers.ListAvailableDrivers, dispatch)

	// Load routes
	protected.POST("/loads", loadHandlers.CreateLoad, dispatch)
	protected.GET("/loads", loadHandlers.ListLoads)
	protected.GET("/loads/:id", loadHandlers.GetLoad)
	protected.POST("/loads/:id/assign", loadHandlers.AssignDriver, dispatch)
	protected.POST("/loads/:id/status", loadHandlers.UpdateStatus, middleware.RequireRoles(models.RoleAdmin, models.RoleDispatcher, models.RoleDriver))
	protected.GET("/loads/:id/history", loadHandlers.GetStatusHistory)
	protected.POST("/loads/:id/documents", loadHandlers.UploadDocument)
	protected.GET("/loads/:id/documents", loadHandlers.ListDocuments)
	protected.GET("/loads/:id/rate-confirmation", loadHandlers.GetRateConfirmation, dispatch)

	// Vehicle routes
	protected.POST("/vehicles", vehicleHandlers.CreateVehicle, adminOnly)
	protected.GET("/vehicles", vehicleHandlers.ListVehicles)
	protected.GET("/vehicles/:id", vehicleHandlers.GetVehicle)
	protected.PUT("/vehicles/:id", vehicleHandlers.UpdateVehicle, adminOnly)

	// Expense routes
	protected.POST("/expenses", expenseHandlers.SubmitExpense, driverOnly)
	protected.GET("/expenses", expenseHandlers.ListExpenses)
	protected.GET("/expenses/:id", expenseHandlers.GetExpense)
	protected.POST("/expenses/:id/review", expenseHandlers.ReviewExpense, adminOnly)

	// DVIR routes
	protected.POST("/dvirs", dvirHandlers.SubmitReport, driverOnly)
	protected.GET("/dvirs", dvirHandlers.ListReports)
	protected.GET("/dvirs/:id", dvirHandlers.GetReport)

	// Referral routes
	protected.POST("/referrals/code", referralHandlers.GetOrCreateCode)
	protected.POST("/referrals/redeem", referralHandlers.Redeem)

	// Notification routes
	protected.GET("/notifications", notificationHandlers.ListNotifications)
	protected.POST("/notifications/:id/read", notificationHandlers.MarkRead)

	// Billing routes
	protected.GET("/subscription", subscriptionHandlers.GetSubscription, adminOnly)
	protected.DELETE("/subscription", subscriptionHandlers.CancelSubscription, adminOnly)

	// Admin routes
	protected.GET("/audit-logs", auditHandlers.ListAuditLogs, adminOnly)
	protected.GET("/metrics", healthHandlers.GetMetrics, adminOnly)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	go func() {
		log.Printf("freightdesk server v%s starting on port %d", version, port)
		if err := e.Start(fmt.Sprintf(":%d", port)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server exited: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
