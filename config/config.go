package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	Environment       string
	DBUrl             string
	SupabaseUrl       string
	SupabaseJWTSecret string
	FrontendURL       string
	// SMTP Configuration
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitGlobalThreshold int
	RateLimitWebhookLimit    int
	RateLimitPaymentLimit    int
	// Referral / proxy email
	PlatformEmailDomain  string
	InboundWebhookSecret string
	ForwardRetrySchedule string
	ForwardMaxAttempts   int
	// Razorpay
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	// Gemini
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	// Object storage (S3-compatible)
	S3Endpoint           string
	S3Region             string
	S3AccessKeyID        string
	S3SecretAccessKey    string
	StoragePublicBaseURL string
	DocumentBucket       string
	ResumeBucket         string
	// Admin accounts are identity-provider users listed by email
	AdminEmails []string
}

func LoadConfig() (*Config, error) {
	// .env is only present locally; missing file is fine in production
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DBUrl:       getEnv("DATABASE_URL", ""),
		// Trim trailing slash to avoid double slashes (e.g. .co//auth)
		SupabaseUrl:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", getEnv("SUPABASE_JWT_KEY", "")),
		FrontendURL:       strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		// SMTP Configuration
		SMTPHost:      getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@referkaro.com"),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100),
		RateLimitWebhookLimit:    getEnvInt("RATE_LIMIT_WEBHOOK_THRESHOLD", 60),
		RateLimitPaymentLimit:    getEnvInt("RATE_LIMIT_PAYMENT_THRESHOLD", 20),
		// Referral / proxy email
		PlatformEmailDomain:  strings.ToLower(getEnv("PLATFORM_EMAIL_DOMAIN", "referkaro.com")),
		InboundWebhookSecret: getEnv("INBOUND_WEBHOOK_SECRET", ""),
		ForwardRetrySchedule: getEnv("FORWARD_RETRY_SCHEDULE", "@every 1m"),
		ForwardMaxAttempts:   getEnvInt("FORWARD_MAX_ATTEMPTS", 5),
		// Razorpay
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", getEnv("NEXT_PUBLIC_RAZORPAY_KEY_ID", "")),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayBaseURL:   strings.TrimRight(getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"), "/"),
		// Gemini
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", getEnv("GOOGLE_GEMINI_API_KEY", "")),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: strings.TrimRight(getEnv("GEMINI_BASE_URL", ""), "/"),
		// Object storage
		S3Endpoint:           strings.TrimRight(getEnv("S3_ENDPOINT", ""), "/"),
		S3Region:             getEnv("S3_REGION", "ap-south-1"),
		S3AccessKeyID:        getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:    getEnv("S3_SECRET_ACCESS_KEY", ""),
		StoragePublicBaseURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", ""), "/"),
		DocumentBucket:       getEnv("DOCUMENT_BUCKET", "verification-documents"),
		ResumeBucket:         getEnv("RESUME_BUCKET", "resumes"),
		AdminEmails:          getEnvList("ADMIN_EMAILS"),
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}
	if cfg.InboundWebhookSecret == "" {
		log.Println("WARNING: INBOUND_WEBHOOK_SECRET not configured. Inbound email webhook will reject all requests.")
	}
	if cfg.RazorpayKeySecret == "" {
		log.Println("WARNING: RAZORPAY_KEY_SECRET not configured. Payment verification will fail.")
	}

	return cfg, nil
}

// IsAdminEmail reports whether email belongs to a configured administrator.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, admin := range c.AdminEmails {
		if admin == email {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable into lowercased, trimmed entries
func getEnvList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
