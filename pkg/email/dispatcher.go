package email

import (
	"context"
	"sync"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/logger"
)

const sendTimeout = 30 * time.Second

// Dispatcher sends notifications in the background. Failures are logged and
// never reported to the caller.
type Dispatcher struct {
	mailer domain.Mailer
	wg     sync.WaitGroup
}

func NewDispatcher(mailer domain.Mailer) *Dispatcher {
	return &Dispatcher{mailer: mailer}
}

func (d *Dispatcher) Notify(ctx context.Context, msg domain.MailMessage) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// The request context is cancelled once the response is written.
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()

		if err := d.mailer.Send(sendCtx, msg); err != nil {
			logger.Log.Warn("notification delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
			return
		}
		logger.Log.Debug("notification delivered", "to", msg.To, "subject", msg.Subject)
	}()
}

// Close waits for in-flight notifications or until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
