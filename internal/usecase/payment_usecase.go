package usecase

import (
	"context"
	"errors"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/logger"
	"referral-backend/pkg/metrics"
	"referral-backend/pkg/security"

	"github.com/google/uuid"
)

type paymentUsecase struct {
	transactionRepo domain.TransactionRepository
	profileRepo     domain.ProfileRepository
	provider        domain.PaymentProvider
	logger          *security.SecurityLogger
}

func NewPaymentUsecase(
	transactionRepo domain.TransactionRepository,
	profileRepo domain.ProfileRepository,
	provider domain.PaymentProvider,
) domain.PaymentUsecase {
	return &paymentUsecase{
		transactionRepo: transactionRepo,
		profileRepo:     profileRepo,
		provider:        provider,
		logger:          security.DefaultLogger(),
	}
}

func (u *paymentUsecase) ListPlans() []domain.Plan {
	plans := make([]domain.Plan, len(domain.Plans))
	copy(plans, domain.Plans)
	return plans
}

// CreateOrder prices the purchase from the server-side catalog and records a
// pending transaction. Tokens are credited only by VerifyPayment.
func (u *paymentUsecase) CreateOrder(ctx context.Context, userID string, input domain.CreateOrderInput) (*domain.OrderResult, error) {
	seeker, err := loadJobSeeker(ctx, u.profileRepo, userID, "purchase tokens")
	if err != nil {
		return nil, err
	}
	if err := seeker.CanPurchase(); err != nil {
		return nil, capabilityError(err)
	}

	plan, ok := domain.FindPlan(input.PlanID)
	if !ok {
		return nil, apperror.Wrap(apperror.BadRequest("Unknown plan"), domain.ErrUnknownPlan)
	}
	if (input.Amount != 0 && input.Amount != plan.Price) || (input.Tokens != 0 && input.Tokens != plan.Tokens) {
		return nil, apperror.BadRequest("Amount or token count does not match the selected plan")
	}

	receipt := "receipt_" + uuid.NewString()
	start := time.Now()
	orderID, err := u.provider.CreateOrder(ctx, plan.Price*100, domain.PaymentCurrency, receipt)
	metrics.ObserveExternalCall("payment", start, err)
	if err != nil {
		return nil, apperror.BadGateway("Failed to create payment order", err)
	}

	now := time.Now()
	txn := &domain.Transaction{
		UserID:          userID,
		PlanID:          plan.ID,
		Amount:          plan.Price,
		TokensAdded:     plan.Tokens,
		Status:          domain.TransactionStatusPending,
		ProviderOrderID: orderID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.transactionRepo.Create(ctx, txn); err != nil {
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("payment order created", "user_id", userID, "plan", plan.ID, "order_id", orderID)
	return &domain.OrderResult{
		OrderID:  orderID,
		KeyID:    u.provider.KeyID(),
		Amount:   plan.Price * 100,
		Currency: domain.PaymentCurrency,
		Tokens:   plan.Tokens,
	}, nil
}

// VerifyPayment checks the provider signature and credits tokens exactly once.
func (u *paymentUsecase) VerifyPayment(ctx context.Context, input domain.VerifyPaymentInput) (*domain.VerifyPaymentResult, error) {
	if input.OrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, apperror.BadRequest("Missing payment details")
	}

	if !u.provider.VerifySignature(input.OrderID, input.PaymentID, input.Signature) {
		u.logger.LogInvalidSignature(ctx, input.OrderID, input.PaymentID)
		metrics.RecordPaymentVerification("invalid_signature")
		return nil, apperror.Wrap(apperror.BadRequest("Invalid signature"), domain.ErrInvalidSignature)
	}

	credit, err := u.transactionRepo.CompleteAndCredit(ctx, input.OrderID, input.PaymentID)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.RecordPaymentVerification("unknown_order")
		return nil, apperror.NotFound("Transaction not found")
	}
	if err != nil {
		metrics.RecordPaymentVerification("error")
		return nil, apperror.Internal(err)
	}

	if credit.AlreadyProcessed {
		metrics.RecordPaymentVerification("already_processed")
		return &domain.VerifyPaymentResult{Success: true, AlreadyProcessed: true, TokenBalance: credit.TokenBalance}, nil
	}

	metrics.RecordPaymentVerification("credited")
	metrics.RecordTokensCredited(credit.TokensAdded)
	u.logger.LogPaymentCredited(ctx, credit.UserID, input.OrderID, credit.TokensAdded)
	return &domain.VerifyPaymentResult{
		Success:      true,
		TokensAdded:  credit.TokensAdded,
		TokenBalance: credit.TokenBalance,
	}, nil
}
