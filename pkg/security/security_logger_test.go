package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecurityLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewSecurityLogger(zap.New(core), "referral-backend", "test")
	ctx := context.Background()

	sl.LogInvalidSignature(ctx, "order_1", "pay_1")
	sl.LogDuplicateReferral(ctx, "ref-0a1b2c3d@referkaro.com", 7, "hr@acme.com")
	sl.LogPaymentCredited(ctx, "user-1", "order_1", 3)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, string(EventInvalidSignature), entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	assert.Equal(t, string(EventDuplicateReferral), entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "r***@referkaro.com", entries[1].ContextMap()["subject_value"])

	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, "test", entries[2].ContextMap()["env"])
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "***", MaskEmail("ab"))
	assert.Equal(t, "***@example.com", MaskEmail("a@example.com"))
}

func TestDefaultLogger_NoopBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		DefaultLogger().LogWebhookRejected(context.Background(), "1.2.3.4", "req", "missing signature")
	})
}
