package usecase_test

import (
	"context"
	"errors"
	"testing"

	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, msg domain.MailMessage) {
	m.Called(ctx, msg)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg domain.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Generate(ctx context.Context, prompt string, doc *domain.Document) (string, error) {
	args := m.Called(ctx, prompt, doc)
	return args.String(0), args.Error(1)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, bucket, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, bucket, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Get(ctx context.Context, bucket, key string) ([]byte, string, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

type MockPaymentProvider struct {
	mock.Mock
}

func (m *MockPaymentProvider) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	args := m.Called(ctx, amountMinor, currency, receipt)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) VerifySignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

func (m *MockPaymentProvider) KeyID() string {
	return "rzp_test_key"
}

// --- Helpers ---

// requireStatus asserts err is an AppError with the given HTTP code.
func requireStatus(t *testing.T, err error, code int) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, "message: %s", appErr.Message)
	return appErr
}

var (
	_ domain.Notifier        = (*MockNotifier)(nil)
	_ domain.Mailer          = (*MockMailer)(nil)
	_ domain.Analyzer        = (*MockAnalyzer)(nil)
	_ domain.ObjectStore     = (*MockObjectStore)(nil)
	_ domain.PaymentProvider = (*MockPaymentProvider)(nil)
)
