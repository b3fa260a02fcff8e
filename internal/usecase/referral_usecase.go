package usecase

import (
	"context"
	"errors"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/email"
	"referral-backend/pkg/logger"
	"referral-backend/pkg/metrics"
	"referral-backend/pkg/security"
)

const (
	forwardSendTimeout = 30 * time.Second
	forwardRetryBatch  = 50
)

type referralUsecase struct {
	proxyRepo   domain.ProxyEmailRepository
	forwardRepo domain.EmailForwardRepository
	mailer      domain.Mailer
	maxAttempts int
	logger      *security.SecurityLogger
}

func NewReferralUsecase(
	proxyRepo domain.ProxyEmailRepository,
	forwardRepo domain.EmailForwardRepository,
	mailer domain.Mailer,
	maxAttempts int,
) domain.ReferralUsecase {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &referralUsecase{
		proxyRepo:   proxyRepo,
		forwardRepo: forwardRepo,
		mailer:      mailer,
		maxAttempts: maxAttempts,
		logger:      security.DefaultLogger(),
	}
}

// HandleInboundMessage confirms a referral from a message addressed to a proxy
// alias and forwards it to the candidate. A repeated confirmation changes nothing.
func (u *referralUsecase) HandleInboundMessage(ctx context.Context, msg domain.InboundMessage) (*domain.InboundResult, error) {
	address := domain.NormalizeAddress(msg.To)
	if address == "" {
		return nil, apperror.BadRequest("Recipient address is required")
	}

	// 1. Resolve the alias
	proxy, err := u.proxyRepo.GetActiveByAddress(ctx, address)
	if errors.Is(err, domain.ErrProxyNotFound) {
		u.logger.LogProxyNotFound(ctx, address, msg.From)
		return nil, apperror.Wrap(apperror.NotFound("Proxy email not found"), err)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	// 2. accepted → referred and record the forward, atomically
	fwd := &domain.EmailForward{
		Recipient: proxy.RealEmail,
		Sender:    domain.NormalizeAddress(msg.From),
		Subject:   msg.Subject,
		Body:      msg.Text,
	}
	outcome, err := u.proxyRepo.ConfirmReferral(ctx, proxy, fwd)
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return nil, apperror.Wrap(apperror.Conflict("Application is not awaiting a referral"), err)
	case errors.Is(err, domain.ErrNotFound):
		return nil, apperror.NotFound("Application not found")
	case err != nil:
		return nil, apperror.Internal(err)
	}

	result := &domain.InboundResult{ApplicationID: proxy.ApplicationID}
	if outcome == domain.ConfirmationDuplicate {
		u.logger.LogDuplicateReferral(ctx, proxy.ProxyAddress, proxy.ApplicationID, msg.From)
		metrics.RecordApplicationEvent("duplicate_confirmation")
		result.Duplicate = true
		return result, nil
	}

	metrics.RecordApplicationEvent(string(domain.ApplicationStatusReferred))
	logger.Log.Info("referral confirmed", "application_id", proxy.ApplicationID, "forward_id", fwd.ID)

	// 3. Forward to the candidate; failure is recorded and retried later
	result.ForwardedTo = proxy.RealEmail
	result.ForwardStatus = u.deliver(ctx, *fwd)
	return result, nil
}

// RetryFailedForwards redelivers failed or abandoned forwards and returns how
// many were sent.
func (u *referralUsecase) RetryFailedForwards(ctx context.Context) (int, error) {
	forwards, err := u.forwardRepo.ListRetryable(ctx, u.maxAttempts, forwardRetryBatch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, fwd := range forwards {
		if ctx.Err() != nil {
			break
		}
		if u.deliver(ctx, fwd) == domain.ForwardStatusSent {
			sent++
		}
	}
	if len(forwards) > 0 {
		logger.Log.Info("forward retry pass finished", "candidates", len(forwards), "sent", sent)
	}
	return sent, nil
}

func (u *referralUsecase) deliver(ctx context.Context, fwd domain.EmailForward) domain.ForwardStatus {
	msg, err := email.ForwardMessage(fwd.Recipient, email.ForwardEmailData{
		OriginalFrom: fwd.Sender,
		Subject:      fwd.Subject,
		Body:         fwd.Body,
	})
	if err == nil {
		sendCtx, cancel := context.WithTimeout(ctx, forwardSendTimeout)
		err = u.mailer.Send(sendCtx, msg)
		cancel()
	}

	if err != nil {
		logger.Log.Warn("referral forward failed", "forward_id", fwd.ID, "attempt", fwd.Attempts+1, "error", err)
		if markErr := u.forwardRepo.MarkFailed(ctx, fwd.ID, err.Error()); markErr != nil {
			logger.Log.Error("failed to record forward failure", "forward_id", fwd.ID, "error", markErr)
		}
		metrics.RecordForward(string(domain.ForwardStatusFailed))
		return domain.ForwardStatusFailed
	}

	if markErr := u.forwardRepo.MarkSent(ctx, fwd.ID); markErr != nil {
		logger.Log.Error("failed to record forward delivery", "forward_id", fwd.ID, "error", markErr)
	}
	metrics.RecordForward(string(domain.ForwardStatusSent))
	return domain.ForwardStatusSent
}
