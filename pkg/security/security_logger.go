package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventUnauthorizedAccess EventType = "unauthorized_access"
	EventForbiddenAccess    EventType = "forbidden_access"
	EventInvalidSignature   EventType = "invalid_payment_signature"
	EventWebhookRejected    EventType = "webhook_rejected"
	EventDuplicateReferral  EventType = "duplicate_referral_confirmation"
	EventProxyNotFound      EventType = "proxy_not_found"
	EventPaymentCredited    EventType = "payment_credited"
	EventAdminAction        EventType = "admin_action"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time      `json:"timestamp"`
	Service      string         `json:"service"`
	Environment  string         `json:"env"`
	Level        string         `json:"level"`
	Event        EventType      `json:"event"`
	SubjectType  string         `json:"subject_type,omitempty"`  // "email", "ip", "user_id", "order_id"
	SubjectValue string         `json:"subject_value,omitempty"` // Masked or hashed for PII
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// SecurityLogger provides structured logging for security events
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

var (
	defaultLogger *SecurityLogger
	defaultMu     sync.Mutex
)

// InitSecurityLogger builds the production zap logger and makes it the default.
func InitSecurityLogger(serviceName, environment string) *SecurityLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.MessageKey = "message"

	// Set output to stdout for container environments
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	sl := NewSecurityLogger(logger, serviceName, environment)
	defaultMu.Lock()
	defaultLogger = sl
	defaultMu.Unlock()
	return sl
}

// NewSecurityLogger wraps an existing zap logger.
func NewSecurityLogger(logger *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{zapLogger: logger, serviceName: serviceName, environment: environment}
}

// DefaultLogger returns the default security logger, or a no-op logger when
// InitSecurityLogger has not run.
func DefaultLogger() *SecurityLogger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		return NewSecurityLogger(zap.NewNop(), "referral-backend", "development")
	}
	return defaultLogger
}

// Zap exposes the underlying logger for HTTP access logging.
func (sl *SecurityLogger) Zap() *zap.Logger {
	return sl.zapLogger
}

// Log logs a security event
func (sl *SecurityLogger) Log(_ context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment

	level := zapcore.WarnLevel
	switch event.Event {
	case EventPaymentCredited, EventAdminAction:
		level = zapcore.InfoLevel
	case EventRateLimitTriggered, EventDuplicateReferral, EventProxyNotFound:
		level = zapcore.WarnLevel
	case EventInvalidSignature, EventWebhookRejected, EventUnauthorizedAccess, EventForbiddenAccess:
		level = zapcore.ErrorLevel
	}
	event.Level = level.String()

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)
}

// LogRateLimitTriggered logs when rate limiting is triggered
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]any{"endpoint": endpoint},
	})
}

// LogInvalidSignature records a payment verification with a bad signature.
func (sl *SecurityLogger) LogInvalidSignature(ctx context.Context, orderID, paymentID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventInvalidSignature,
		SubjectType:  "order_id",
		SubjectValue: orderID,
		Details:      map[string]any{"payment_id": paymentID},
	})
}

func (sl *SecurityLogger) LogWebhookRejected(ctx context.Context, ip, requestID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventWebhookRejected,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]any{"reason": reason},
	})
}

// LogDuplicateReferral records a repeated confirmation for an already referred application.
func (sl *SecurityLogger) LogDuplicateReferral(ctx context.Context, proxyAddress string, applicationID int64, sender string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventDuplicateReferral,
		SubjectType:  "email",
		SubjectValue: MaskEmail(proxyAddress),
		Details:      map[string]any{"application_id": applicationID, "sender": MaskEmail(sender)},
	})
}

func (sl *SecurityLogger) LogProxyNotFound(ctx context.Context, address, sender string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventProxyNotFound,
		SubjectType:  "email",
		SubjectValue: MaskEmail(address),
		Details:      map[string]any{"sender": MaskEmail(sender)},
	})
}

func (sl *SecurityLogger) LogPaymentCredited(ctx context.Context, userID, orderID string, tokens int) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventPaymentCredited,
		SubjectType:  "user_id",
		SubjectValue: userID,
		Details:      map[string]any{"order_id": orderID, "tokens": tokens},
	})
}

// LogAccessDenied records 401/403 outcomes from middleware and ownership checks.
func (sl *SecurityLogger) LogAccessDenied(ctx context.Context, event EventType, userID, ip, requestID, path string) {
	sl.Log(ctx, SecurityEvent{
		Event:        event,
		SubjectType:  "user_id",
		SubjectValue: userID,
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]any{"path": path},
	})
}

func (sl *SecurityLogger) LogAdminAction(ctx context.Context, adminID, action, targetID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventAdminAction,
		SubjectType:  "user_id",
		SubjectValue: adminID,
		Details:      map[string]any{"action": action, "target_id": targetID},
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}
