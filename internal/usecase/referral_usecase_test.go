package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"referral-backend/internal/domain"
	"referral-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// acceptedApplication seeds an application in accepted state with its proxy.
func acceptedApplication(t *testing.T, s *memStore) (*domain.Application, string) {
	t.Helper()
	ctx := context.Background()
	s.addEmployee("emp", "emp@acme.com", "Acme", true)
	s.addJobSeeker("seeker", "seeker@example.com", 1)
	job := s.addJob("emp", true)

	app := &domain.Application{JobID: job.ID, JobSeekerID: "seeker", Status: domain.ApplicationStatusPending}
	_, err := s.Applications().CreateWithTokenDebit(ctx, app)
	require.NoError(t, err)

	address := "ref-abcdef12@" + testEmailDomain
	require.NoError(t, s.Applications().AcceptWithProxy(ctx, app.ID,
		&domain.ProxyEmail{ProxyAddress: address, RealEmail: "seeker@example.com"}))
	return app, address
}

func newReferralFixture(t *testing.T) (*memStore, domain.ReferralUsecase, *MockMailer) {
	t.Helper()
	s := newMemStore()
	mailer := new(MockMailer)
	return s, usecase.NewReferralUsecase(s.Proxies(), s.Forwards(), mailer, 3), mailer
}

func TestHandleInboundMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("Confirms the referral and forwards to the candidate", func(t *testing.T) {
		s, uc, mailer := newReferralFixture(t)
		app, address := acceptedApplication(t, s)
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(m domain.MailMessage) bool {
			return m.To == "seeker@example.com" && strings.HasPrefix(m.Subject, "Fwd: ")
		})).Return(nil).Once()

		result, err := uc.HandleInboundMessage(ctx, domain.InboundMessage{
			To:      "Referral Desk <" + strings.ToUpper(address) + ">",
			From:    "hr@acme.com",
			Subject: "Referral submitted",
			Text:    "We have referred you internally.",
		})

		require.NoError(t, err)
		assert.Equal(t, app.ID, result.ApplicationID)
		assert.Equal(t, "seeker@example.com", result.ForwardedTo)
		assert.Equal(t, domain.ForwardStatusSent, result.ForwardStatus)
		assert.False(t, result.Duplicate)
		assert.Equal(t, domain.ApplicationStatusReferred, s.appStatus(app.ID))
		mailer.AssertExpectations(t)
	})

	t.Run("Repeated message is acknowledged without a second forward", func(t *testing.T) {
		s, uc, mailer := newReferralFixture(t)
		app, address := acceptedApplication(t, s)
		mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

		_, err := uc.HandleInboundMessage(ctx, domain.InboundMessage{To: address, From: "hr@acme.com"})
		require.NoError(t, err)
		again, err := uc.HandleInboundMessage(ctx, domain.InboundMessage{To: address, From: "hr@acme.com"})

		require.NoError(t, err)
		assert.True(t, again.Duplicate)
		assert.Empty(t, again.ForwardedTo)
		assert.Equal(t, domain.ApplicationStatusReferred, s.appStatus(app.ID))
		_, _, forwards := s.counts()
		assert.Equal(t, 1, forwards)
		mailer.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("Unknown alias changes nothing", func(t *testing.T) {
		s, uc, mailer := newReferralFixture(t)
		app, _ := acceptedApplication(t, s)

		_, err := uc.HandleInboundMessage(ctx, domain.InboundMessage{To: "ref-00000000@" + testEmailDomain})

		requireStatus(t, err, http.StatusNotFound)
		assert.True(t, errors.Is(err, domain.ErrProxyNotFound))
		assert.Equal(t, domain.ApplicationStatusAccepted, s.appStatus(app.ID))
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Empty recipient is rejected", func(t *testing.T) {
		_, uc, _ := newReferralFixture(t)

		_, err := uc.HandleInboundMessage(ctx, domain.InboundMessage{To: "   "})

		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("Failed delivery is recorded and the referral still stands", func(t *testing.T) {
		s, uc, mailer := newReferralFixture(t)
		app, address := acceptedApplication(t, s)
		mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp unavailable"))

		result, err := uc.HandleInboundMessage(ctx, domain.InboundMessage{To: address, From: "hr@acme.com"})

		require.NoError(t, err)
		assert.Equal(t, domain.ForwardStatusFailed, result.ForwardStatus)
		assert.Equal(t, domain.ApplicationStatusReferred, s.appStatus(app.ID))
		retryable, _ := s.Forwards().ListRetryable(ctx, 3, 10)
		require.Len(t, retryable, 1)
		assert.Equal(t, 1, retryable[0].Attempts)
		require.NotNil(t, retryable[0].LastError)
		assert.Contains(t, *retryable[0].LastError, "smtp unavailable")
	})
}

func TestRetryFailedForwards(t *testing.T) {
	ctx := context.Background()

	t.Run("Redelivers failed forwards", func(t *testing.T) {
		s, uc, mailer := newReferralFixture(t)
		_, address := acceptedApplication(t, s)
		mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("temporary")).Once()
		mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

		result, err := uc.HandleInboundMessage(ctx, domain.InboundMessage{To: address, From: "hr@acme.com"})
		require.NoError(t, err)
		require.Equal(t, domain.ForwardStatusFailed, result.ForwardStatus)

		sent, err := uc.RetryFailedForwards(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		retryable, _ := s.Forwards().ListRetryable(ctx, 3, 10)
		assert.Empty(t, retryable)
	})

	t.Run("Gives up after the attempt limit", func(t *testing.T) {
		s, uc, mailer := newReferralFixture(t)
		_, address := acceptedApplication(t, s)
		mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("mailbox full"))

		_, err := uc.HandleInboundMessage(ctx, domain.InboundMessage{To: address, From: "hr@acme.com"})
		require.NoError(t, err)
		for range 5 {
			_, err := uc.RetryFailedForwards(ctx)
			require.NoError(t, err)
		}

		mailer.AssertNumberOfCalls(t, "Send", 3)
	})
}
