package domain

import (
	"context"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
)

// PaymentCurrency is the only currency plans are sold in.
const PaymentCurrency = "INR"

// Transaction records one token purchase through the payment provider.
type Transaction struct {
	ID                int64             `json:"id"`
	UserID            string            `json:"user_id"`
	PlanID            string            `json:"plan_id"`
	Amount            int64             `json:"amount"` // Major currency units
	TokensAdded       int               `json:"tokens_added"`
	Status            TransactionStatus `json:"status"`
	ProviderOrderID   string            `json:"provider_order_id"`
	ProviderPaymentID *string           `json:"provider_payment_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Plan is a purchasable token bundle.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Tokens      int    `json:"tokens"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Popular     bool   `json:"popular"`
}

var Plans = []Plan{
	{ID: "starter", Name: "Starter Pack", Tokens: 3, Price: 99, Description: "Perfect for trying out the platform."},
	{ID: "pro", Name: "Pro Pack", Tokens: 10, Price: 299, Description: "Best value for serious job seekers.", Popular: true},
}

func FindPlan(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

type CreateOrderInput struct {
	PlanID string `json:"planId" binding:"required,plan_id"`
	Amount int64  `json:"amount" binding:"omitempty,min=1"`
	Tokens int    `json:"tokens" binding:"omitempty,min=1"`
}

type OrderResult struct {
	OrderID  string `json:"orderId"`
	KeyID    string `json:"keyId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Tokens   int    `json:"tokens"`
}

type VerifyPaymentInput struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

type VerifyPaymentResult struct {
	Success          bool `json:"success"`
	AlreadyProcessed bool `json:"already_processed"`
	TokensAdded      int  `json:"tokens_added"`
	TokenBalance     *int `json:"token_balance,omitempty"`
}

// CreditResult describes the outcome of completing a transaction.
type CreditResult struct {
	UserID           string
	TokensAdded      int
	AlreadyProcessed bool
	TokenBalance     *int
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) error
	// CompleteAndCredit marks the transaction successful and credits tokens in one
	// database transaction. A second call reports AlreadyProcessed and credits nothing.
	CompleteAndCredit(ctx context.Context, orderID, paymentID string) (*CreditResult, error)
	List(ctx context.Context) ([]Transaction, error)
}

// PaymentProvider is the external order/payment processor.
type PaymentProvider interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

type PaymentUsecase interface {
	ListPlans() []Plan
	CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*OrderResult, error)
	VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*VerifyPaymentResult, error)
}
