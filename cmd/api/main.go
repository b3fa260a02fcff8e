package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral-backend/config"
	_ "referral-backend/docs" // Important for Swagger
	v1 "referral-backend/internal/delivery/http/v1"
	"referral-backend/internal/domain"
	"referral-backend/internal/repository/postgres"
	"referral-backend/internal/usecase"
	"referral-backend/internal/worker"
	"referral-backend/migrations"
	"referral-backend/pkg/analysis"
	"referral-backend/pkg/auth"
	"referral-backend/pkg/database"
	"referral-backend/pkg/email"
	"referral-backend/pkg/logger"
	"referral-backend/pkg/payment"
	"referral-backend/pkg/redis"
	"referral-backend/pkg/security"
	"referral-backend/pkg/storage"
	"referral-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Referral Marketplace API
// @version         1.0
// @description     Token-gated job referrals between job seekers and verified employees.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(cfg.Environment)
	secLogger := security.InitSecurityLogger("referral-backend", cfg.Environment)
	defer func() { _ = secLogger.Sync() }()
	logger.Log.Info("Starting referral backend", "port", cfg.Port, "env", cfg.Environment)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.RegisterWithGin()

	// 3. Setup Database
	if err := migrations.Up(cfg.DBUrl); err != nil {
		logger.Log.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}
	dbPool, err := database.NewPostgresConnection(cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Optional infrastructure
	if err := redis.Initialize(redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable, rate limiting falls back to memory", "error", err)
	}
	defer func() { _ = redis.Close() }()

	var store domain.ObjectStore
	s3Store, err := storage.NewS3Store(context.Background(), cfg)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Log.Warn("Object storage not configured - resume analysis and document archiving disabled")
	case err != nil:
		logger.Log.Error("Failed to initialise object storage", "error", err)
	default:
		store = s3Store
	}

	var analyzer domain.Analyzer
	gemini, err := analysis.NewGeminiClient(context.Background(), analysis.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: 60 * time.Second,
	})
	switch {
	case errors.Is(err, analysis.ErrNotConfigured):
		logger.Log.Warn("GEMINI_API_KEY not set - AI verification disabled")
	case err != nil:
		logger.Log.Error("Failed to initialise analysis client", "error", err)
	default:
		analyzer = gemini
	}

	razorpay := payment.NewRazorpayClient(payment.RazorpayConfig{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
		Timeout:   15 * time.Second,
	})

	mailer := email.NewSMTPMailer(cfg)
	if !mailer.IsConfigured() {
		logger.Log.Warn("SMTP not configured - notifications and referral forwards will fail")
	}
	dispatcher := email.NewDispatcher(mailer)

	// 5. Setup Repositories
	profileRepo := postgres.NewProfileRepository(dbPool)
	jobRepo := postgres.NewJobRepository(dbPool)
	applicationRepo := postgres.NewApplicationRepository(dbPool)
	proxyRepo := postgres.NewProxyEmailRepository(dbPool)
	forwardRepo := postgres.NewEmailForwardRepository(dbPool)
	transactionRepo := postgres.NewTransactionRepository(dbPool)

	// 6. Setup UseCases
	profileUC := usecase.NewProfileUsecase(profileRepo)
	jobUC := usecase.NewJobUsecase(jobRepo, profileRepo)
	applicationUC := usecase.NewApplicationUsecase(applicationRepo, jobRepo, profileRepo, dispatcher, analyzer, store,
		usecase.ApplicationSettings{
			EmailDomain:       cfg.PlatformEmailDomain,
			ResumeBucket:      cfg.ResumeBucket,
			StoragePublicBase: cfg.StoragePublicBaseURL,
		})
	verificationUC := usecase.NewVerificationUsecase(profileRepo, analyzer, store, cfg.DocumentBucket)
	paymentUC := usecase.NewPaymentUsecase(transactionRepo, profileRepo, razorpay)
	referralUC := usecase.NewReferralUsecase(proxyRepo, forwardRepo, mailer, cfg.ForwardMaxAttempts)
	adminUC := usecase.NewAdminUsecase(profileRepo, transactionRepo)

	checks := map[string]usecase.HealthCheck{
		"database": dbPool.Ping,
	}
	if redis.Client() != nil {
		checks["redis"] = redis.HealthCheck
	}
	if store != nil {
		checks["storage"] = func(ctx context.Context) error { return s3Store.HealthCheck(ctx, cfg.DocumentBucket) }
	}
	healthUC := usecase.NewHealthUsecase(checks)

	// 7. Background workers
	forwardWorker, err := worker.NewForwardRetryWorker(referralUC, cfg.ForwardRetrySchedule)
	if err != nil {
		logger.Log.Error("Invalid forward retry schedule", "schedule", cfg.ForwardRetrySchedule, "error", err)
		os.Exit(1)
	}
	forwardWorker.Start()

	// 8. Setup Auth Provider (JWKS)
	jwksURL := cfg.SupabaseUrl + "/auth/v1/.well-known/jwks.json"
	jwksProvider := auth.NewProvider(jwksURL)

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ProfileUC:      profileUC,
		JobUC:          jobUC,
		ApplicationUC:  applicationUC,
		VerificationUC: verificationUC,
		PaymentUC:      paymentUC,
		ReferralUC:     referralUC,
		AdminUC:        adminUC,
		HealthUC:       healthUC,
		JWKSProvider:   jwksProvider,
		Config:         cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	forwardWorker.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}
	if err := dispatcher.Close(ctx); err != nil {
		logger.Log.Warn("Pending notifications dropped", "error", err)
	}

	logger.Log.Info("Server exiting")
}
