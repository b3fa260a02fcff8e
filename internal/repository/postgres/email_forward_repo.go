package postgres

import (
	"context"

	"referral-backend/internal/domain"
	"referral-backend/pkg/database"
)

type emailForwardRepo struct {
	db database.DB
}

func NewEmailForwardRepository(db database.DB) domain.EmailForwardRepository {
	return &emailForwardRepo{db: db}
}

func (r *emailForwardRepo) MarkSent(ctx context.Context, id int64) error {
	return r.mark(ctx, id, domain.ForwardStatusSent, nil)
}

func (r *emailForwardRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	return r.mark(ctx, id, domain.ForwardStatusFailed, &reason)
}

func (r *emailForwardRepo) mark(ctx context.Context, id int64, status domain.ForwardStatus, reason *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE email_forwards
		SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = NOW()
		WHERE id = $1`, id, status, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListRetryable returns failed forwards and pending ones abandoned mid-send.
func (r *emailForwardRepo) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]domain.EmailForward, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, proxy_email_id, application_id, recipient, sender, subject, body, status,
		       attempts, last_error, created_at, updated_at
		FROM email_forwards
		WHERE attempts < $1
		  AND (status = 'failed' OR (status = 'pending' AND updated_at < NOW() - INTERVAL '5 minutes'))
		ORDER BY updated_at ASC
		LIMIT $2`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	forwards := []domain.EmailForward{}
	for rows.Next() {
		var f domain.EmailForward
		if err := rows.Scan(&f.ID, &f.ProxyEmailID, &f.ApplicationID, &f.Recipient, &f.Sender, &f.Subject,
			&f.Body, &f.Status, &f.Attempts, &f.LastError, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		forwards = append(forwards, f)
	}
	return forwards, rows.Err()
}
