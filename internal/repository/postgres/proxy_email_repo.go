package postgres

import (
	"context"
	"errors"
	"fmt"

	"referral-backend/internal/domain"
	"referral-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type proxyEmailRepo struct {
	db database.DB
}

func NewProxyEmailRepository(db database.DB) domain.ProxyEmailRepository {
	return &proxyEmailRepo{db: db}
}

const proxyEmailColumns = `id, application_id, proxy_address, real_email, is_active, created_at`

func scanProxyEmail(row pgx.Row) (*domain.ProxyEmail, error) {
	var p domain.ProxyEmail
	err := row.Scan(&p.ID, &p.ApplicationID, &p.ProxyAddress, &p.RealEmail, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProxyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proxyEmailRepo) GetActiveByAddress(ctx context.Context, address string) (*domain.ProxyEmail, error) {
	return scanProxyEmail(r.db.QueryRow(ctx,
		`SELECT `+proxyEmailColumns+` FROM proxy_emails WHERE proxy_address = $1 AND is_active = true`, address))
}

func (r *proxyEmailRepo) GetByApplicationID(ctx context.Context, applicationID int64) (*domain.ProxyEmail, error) {
	return scanProxyEmail(r.db.QueryRow(ctx,
		`SELECT `+proxyEmailColumns+` FROM proxy_emails WHERE application_id = $1`, applicationID))
}

func (r *proxyEmailRepo) ConfirmReferral(ctx context.Context, proxy *domain.ProxyEmail, fwd *domain.EmailForward) (domain.ConfirmationOutcome, error) {
	var outcome domain.ConfirmationOutcome
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE applications SET status = $1, updated_at = NOW()
			WHERE id = $2 AND status = $3`,
			domain.ApplicationStatusReferred, proxy.ApplicationID, domain.ApplicationStatusAccepted)
		if err != nil {
			return fmt.Errorf("confirm referral: %w", err)
		}

		if tag.RowsAffected() == 0 {
			var current domain.ApplicationStatus
			err := tx.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1`, proxy.ApplicationID).Scan(&current)
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
			if current == domain.ApplicationStatusReferred {
				outcome = domain.ConfirmationDuplicate
				return nil
			}
			return domain.ErrInvalidTransition
		}

		fwd.ProxyEmailID = proxy.ID
		fwd.ApplicationID = proxy.ApplicationID
		fwd.Status = domain.ForwardStatusPending
		err = tx.QueryRow(ctx, `
			INSERT INTO email_forwards (proxy_email_id, application_id, recipient, sender, subject, body, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, attempts, created_at, updated_at`,
			fwd.ProxyEmailID, fwd.ApplicationID, fwd.Recipient, fwd.Sender, fwd.Subject, fwd.Body, fwd.Status,
		).Scan(&fwd.ID, &fwd.Attempts, &fwd.CreatedAt, &fwd.UpdatedAt)
		if err != nil {
			return fmt.Errorf("record forward: %w", err)
		}
		outcome = domain.ConfirmationApplied
		return nil
	})
	if err != nil {
		return 0, err
	}
	return outcome, nil
}
