package usecase_test

import (
	"context"
	"testing"

	"referral-backend/internal/domain"
	"referral-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestReferralLifecycle walks one application from purchase to confirmed referral.
func TestReferralLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return()
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	provider := new(MockPaymentProvider)
	provider.On("CreateOrder", mock.Anything, int64(9900), "INR", mock.Anything).Return("order_abc", nil)
	provider.On("VerifySignature", "order_abc", "pay_abc", "sig").Return(true)

	profiles := usecase.NewProfileUsecase(s.Profiles())
	payments := usecase.NewPaymentUsecase(s.Transactions(), s.Profiles(), provider)
	applications := usecase.NewApplicationUsecase(s.Applications(), s.Jobs(), s.Profiles(), notifier, nil, nil,
		usecase.ApplicationSettings{EmailDomain: testEmailDomain})
	referrals := usecase.NewReferralUsecase(s.Proxies(), s.Forwards(), mailer, 5)

	// Onboard both sides
	_, err := profiles.Onboard(ctx, "seeker", "seeker@example.com", domain.OnboardInput{Role: "job_seeker"})
	require.NoError(t, err)
	s.addEmployee("emp", "emp@acme.com", "Acme", true)
	job := s.addJob("emp", true)

	// Buy the starter pack
	order, err := payments.CreateOrder(ctx, "seeker", domain.CreateOrderInput{PlanID: "starter"})
	require.NoError(t, err)
	paid, err := payments.VerifyPayment(ctx, domain.VerifyPaymentInput{OrderID: order.OrderID, PaymentID: "pay_abc", Signature: "sig"})
	require.NoError(t, err)
	require.Equal(t, 3, *paid.TokenBalance)

	// Apply
	app, err := applications.Apply(ctx, "seeker", job.ID, applyInput())
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)
	assert.Equal(t, 2, s.balance("seeker"))

	// Accept
	review, err := applications.Review(ctx, "emp", app.ID, domain.ApplicationStatusAccepted)
	require.NoError(t, err)
	require.NotNil(t, review.ProxyEmail)
	assert.Regexp(t, proxyPattern, *review.ProxyEmail)

	mine, err := applications.ListMyApplications(ctx, "seeker")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.ApplicationStatusAccepted, mine[0].Status)

	// Company replies to the proxy
	inbound, err := referrals.HandleInboundMessage(ctx, domain.InboundMessage{
		To:      *review.ProxyEmail,
		From:    "talent@acme.com",
		Subject: "You have been referred",
		Text:    "Referral ID 8841",
	})
	require.NoError(t, err)
	assert.Equal(t, app.ID, inbound.ApplicationID)
	assert.Equal(t, "seeker@example.com", inbound.ForwardedTo)
	assert.Equal(t, domain.ApplicationStatusReferred, s.appStatus(app.ID))
	assert.Equal(t, 2, s.balance("seeker"))

	mailer.AssertNumberOfCalls(t, "Send", 1)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}
