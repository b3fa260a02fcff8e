package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/logger"

	"github.com/robfig/cron/v3"
)

const retryPassTimeout = 2 * time.Minute

// ForwardRetryWorker periodically redelivers referral forwards that failed.
type ForwardRetryWorker struct {
	cron     *cron.Cron
	referral domain.ReferralUsecase
	running  sync.Mutex
}

// NewForwardRetryWorker registers the retry pass on schedule (standard cron
// syntax or descriptors such as "@every 1m").
func NewForwardRetryWorker(referral domain.ReferralUsecase, schedule string) (*ForwardRetryWorker, error) {
	w := &ForwardRetryWorker{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		referral: referral,
	}
	if _, err := w.cron.AddFunc(schedule, w.runOnce); err != nil {
		return nil, fmt.Errorf("invalid forward retry schedule %q: %w", schedule, err)
	}
	return w, nil
}

func (w *ForwardRetryWorker) Start() {
	w.cron.Start()
	logger.Log.Info("forward retry worker started")
}

// Stop waits for a running pass to finish or ctx to expire.
func (w *ForwardRetryWorker) Stop(ctx context.Context) {
	select {
	case <-w.cron.Stop().Done():
	case <-ctx.Done():
		logger.Log.Warn("forward retry worker stop timed out")
	}
}

// runOnce skips the tick if the previous pass is still running.
func (w *ForwardRetryWorker) runOnce() {
	if !w.running.TryLock() {
		return
	}
	defer w.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), retryPassTimeout)
	defer cancel()

	if _, err := w.referral.RetryFailedForwards(ctx); err != nil {
		logger.Log.Error("forward retry pass failed", "error", err)
	}
}
