package v1

import (
	"time"

	"referral-backend/config"
	"referral-backend/internal/delivery/http/middleware"
	"referral-backend/internal/domain"
	"referral-backend/internal/usecase"
	"referral-backend/pkg/auth"
	"referral-backend/pkg/metrics"
	"referral-backend/pkg/security"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type RouterDeps struct {
	ProfileUC      domain.ProfileUsecase
	JobUC          domain.JobUsecase
	ApplicationUC  domain.ApplicationUsecase
	VerificationUC domain.VerificationUsecase
	PaymentUC      domain.PaymentUsecase
	ReferralUC     domain.ReferralUsecase
	AdminUC        domain.AdminUsecase
	HealthUC       usecase.HealthUsecase
	JWKSProvider   *auth.Provider
	Config         *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()
	r.MaxMultipartMemory = 12 << 20

	accessLog := security.DefaultLogger().Zap()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL, cfg.Environment == "production")) // CORS must be first!
	r.Use(ginzap.RecoveryWithZap(accessLog, true))
	r.Use(middleware.RequestID())
	r.Use(ginzap.GinzapWithConfig(accessLog, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/metrics", "/v1/health"},
		Context: func(c *gin.Context) []zapcore.Field {
			fields := []zapcore.Field{zap.String("request_id", c.GetString("RequestID"))}
			if v := c.GetString(string(domain.KeyUserID)); v != "" {
				fields = append(fields, zap.String("user_id", v))
			}
			return fields
		},
	}))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(metrics.Middleware())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(cfg)))

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	NewHealthHandler(v1, deps.HealthUC)
	NewWebhookHandler(v1, deps.ReferralUC,
		middleware.RateLimitMiddleware(middleware.WebhookRateLimitConfig(cfg)),
		middleware.WebhookAuth(cfg.InboundWebhookSecret),
	)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWKSProvider, cfg))

	uploadLimit := middleware.RateLimitMiddleware(middleware.UploadRateLimitConfig(cfg))
	{
		NewProfileHandler(protected, deps.ProfileUC)
		NewJobHandler(v1, protected, deps.JobUC)
		NewApplicationHandler(protected, deps.ApplicationUC,
			middleware.RateLimitMiddleware(middleware.ApplyRateLimitConfig(cfg)), uploadLimit)
		NewVerificationHandler(protected, deps.VerificationUC, uploadLimit)
		NewPaymentHandler(v1, protected, deps.PaymentUC,
			middleware.RateLimitMiddleware(middleware.PaymentRateLimitConfig(cfg)))
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	NewAdminHandler(admin, deps.AdminUC)

	return r
}
