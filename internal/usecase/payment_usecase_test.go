package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"referral-backend/internal/domain"
	"referral-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPaymentFixture(t *testing.T) (*memStore, domain.PaymentUsecase, *MockPaymentProvider) {
	t.Helper()
	s := newMemStore()
	provider := new(MockPaymentProvider)
	uc := usecase.NewPaymentUsecase(s.Transactions(), s.Profiles(), provider)
	return s, uc, provider
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("Prices the order from the catalog", func(t *testing.T) {
		s, uc, provider := newPaymentFixture(t)
		s.addJobSeeker("seeker", "seeker@example.com", 0)
		provider.On("CreateOrder", mock.Anything, int64(29900), "INR", mock.AnythingOfType("string")).
			Return("order_pro", nil)

		order, err := uc.CreateOrder(ctx, "seeker", domain.CreateOrderInput{PlanID: "pro"})

		require.NoError(t, err)
		assert.Equal(t, "order_pro", order.OrderID)
		assert.Equal(t, int64(29900), order.Amount)
		assert.Equal(t, 10, order.Tokens)
		assert.Equal(t, "rzp_test_key", order.KeyID)
		assert.Equal(t, domain.TransactionStatusPending, s.Transactions().status("order_pro"))
		assert.Equal(t, 0, s.balance("seeker"), "tokens are only credited on verification")
	})

	t.Run("Mismatched client amount is rejected", func(t *testing.T) {
		s, uc, provider := newPaymentFixture(t)
		s.addJobSeeker("seeker", "seeker@example.com", 0)

		_, err := uc.CreateOrder(ctx, "seeker", domain.CreateOrderInput{PlanID: "starter", Amount: 1, Tokens: 3})

		requireStatus(t, err, http.StatusBadRequest)
		provider.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown plan is rejected", func(t *testing.T) {
		s, uc, _ := newPaymentFixture(t)
		s.addJobSeeker("seeker", "seeker@example.com", 0)

		_, err := uc.CreateOrder(ctx, "seeker", domain.CreateOrderInput{PlanID: "enterprise"})

		requireStatus(t, err, http.StatusBadRequest)
		assert.True(t, errors.Is(err, domain.ErrUnknownPlan))
	})

	t.Run("Employees cannot buy tokens", func(t *testing.T) {
		s, uc, _ := newPaymentFixture(t)
		s.addEmployee("emp", "emp@acme.com", "Acme", true)

		_, err := uc.CreateOrder(ctx, "emp", domain.CreateOrderInput{PlanID: "starter"})

		requireStatus(t, err, http.StatusForbidden)
	})

	t.Run("Provider failure records nothing", func(t *testing.T) {
		s, uc, provider := newPaymentFixture(t)
		s.addJobSeeker("seeker", "seeker@example.com", 0)
		provider.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("gateway down"))

		_, err := uc.CreateOrder(ctx, "seeker", domain.CreateOrderInput{PlanID: "starter"})

		requireStatus(t, err, http.StatusBadGateway)
		txns, _ := s.Transactions().List(ctx)
		assert.Empty(t, txns)
	})
}

// pendingOrder seeds a seeker with a pending starter order.
func pendingOrder(t *testing.T, s *memStore, balance int) {
	t.Helper()
	s.addJobSeeker("seeker", "seeker@example.com", balance)
	require.NoError(t, s.Transactions().Create(context.Background(), &domain.Transaction{
		UserID: "seeker", PlanID: "starter", Amount: 99, TokensAdded: 3,
		Status: domain.TransactionStatusPending, ProviderOrderID: "order_1",
	}))
}

func TestVerifyPayment(t *testing.T) {
	ctx := context.Background()
	valid := domain.VerifyPaymentInput{OrderID: "order_1", PaymentID: "pay_1", Signature: "good"}

	t.Run("Valid signature credits the plan tokens", func(t *testing.T) {
		s, uc, provider := newPaymentFixture(t)
		pendingOrder(t, s, 1)
		provider.On("VerifySignature", "order_1", "pay_1", "good").Return(true)

		result, err := uc.VerifyPayment(ctx, valid)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.AlreadyProcessed)
		assert.Equal(t, 3, result.TokensAdded)
		require.NotNil(t, result.TokenBalance)
		assert.Equal(t, 4, *result.TokenBalance)
		assert.Equal(t, domain.TransactionStatusSuccess, s.Transactions().status("order_1"))
	})

	t.Run("Second verification credits nothing", func(t *testing.T) {
		s, uc, provider := newPaymentFixture(t)
		pendingOrder(t, s, 0)
		provider.On("VerifySignature", "order_1", "pay_1", "good").Return(true)

		_, err := uc.VerifyPayment(ctx, valid)
		require.NoError(t, err)
		again, err := uc.VerifyPayment(ctx, valid)

		require.NoError(t, err)
		assert.True(t, again.Success)
		assert.True(t, again.AlreadyProcessed)
		assert.Equal(t, 3, s.balance("seeker"))
	})

	t.Run("Concurrent verifications credit once", func(t *testing.T) {
		s, uc, provider := newPaymentFixture(t)
		pendingOrder(t, s, 0)
		provider.On("VerifySignature", "order_1", "pay_1", "good").Return(true)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = uc.VerifyPayment(ctx, valid)
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, s.balance("seeker"))
	})

	t.Run("Tampered signature mutates nothing", func(t *testing.T) {
		s, uc, provider := newPaymentFixture(t)
		pendingOrder(t, s, 2)
		provider.On("VerifySignature", "order_1", "pay_1", "tampered").Return(false)

		_, err := uc.VerifyPayment(ctx, domain.VerifyPaymentInput{OrderID: "order_1", PaymentID: "pay_1", Signature: "tampered"})

		requireStatus(t, err, http.StatusBadRequest)
		assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
		assert.Equal(t, 2, s.balance("seeker"))
		assert.Equal(t, domain.TransactionStatusPending, s.Transactions().status("order_1"))
	})

	t.Run("Unknown order is not found", func(t *testing.T) {
		_, uc, provider := newPaymentFixture(t)
		provider.On("VerifySignature", "order_x", "pay_1", "good").Return(true)

		_, err := uc.VerifyPayment(ctx, domain.VerifyPaymentInput{OrderID: "order_x", PaymentID: "pay_1", Signature: "good"})

		requireStatus(t, err, http.StatusNotFound)
	})

	t.Run("Missing fields are rejected before signature check", func(t *testing.T) {
		_, uc, provider := newPaymentFixture(t)

		_, err := uc.VerifyPayment(ctx, domain.VerifyPaymentInput{OrderID: "order_1"})

		requireStatus(t, err, http.StatusBadRequest)
		provider.AssertNotCalled(t, "VerifySignature", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Plans are served as a copy", func(t *testing.T) {
		_, uc, _ := newPaymentFixture(t)

		plans := uc.ListPlans()
		plans[0].Tokens = 1000

		assert.Equal(t, 3, uc.ListPlans()[0].Tokens)
	})
}
