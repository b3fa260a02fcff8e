package postgres

import (
	"context"
	"errors"
	"fmt"

	"referral-backend/internal/domain"
	"referral-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type applicationRepo struct {
	db database.DB
}

func NewApplicationRepository(db database.DB) domain.ApplicationRepository {
	return &applicationRepo{db: db}
}

const applicationColumns = `a.id, a.job_id, a.job_seeker_id, a.employee_id, a.cover_letter, a.linkedin_url,
	a.portfolio_url, a.resume_url, a.status, a.created_at, a.updated_at`

func applicationDest(app *domain.Application) []any {
	return []any{
		&app.ID, &app.JobID, &app.JobSeekerID, &app.EmployeeID, &app.CoverLetter, &app.LinkedinURL,
		&app.PortfolioURL, &app.ResumeURL, &app.Status, &app.CreatedAt, &app.UpdatedAt,
	}
}

// CheckExists checks if an application already exists for this job and job seeker
func (r *applicationRepo) CheckExists(ctx context.Context, jobID int64, jobSeekerID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM applications WHERE job_id = $1 AND job_seeker_id = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, jobID, jobSeekerID).Scan(&exists)
	return exists, err
}

func (r *applicationRepo) CreateWithTokenDebit(ctx context.Context, app *domain.Application) (int, error) {
	var remaining int
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE profiles
			SET token_balance = token_balance - 1, updated_at = NOW()
			WHERE id = $1 AND role = 'job_seeker' AND token_balance >= 1
			RETURNING token_balance`, app.JobSeekerID).Scan(&remaining)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInsufficientTokens
		}
		if err != nil {
			return fmt.Errorf("debit token: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO applications (job_id, job_seeker_id, employee_id, cover_letter, linkedin_url,
			                          portfolio_url, resume_url, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (job_id, job_seeker_id) DO NOTHING
			RETURNING id`,
			app.JobID, app.JobSeekerID, app.EmployeeID, app.CoverLetter, app.LinkedinURL,
			app.PortfolioURL, app.ResumeURL, app.Status, app.CreatedAt, app.UpdatedAt,
		).Scan(&app.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDuplicateApplication
		}
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *applicationRepo) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	var app domain.Application
	err := r.db.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.id = $1`, id).
		Scan(applicationDest(&app)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetReviewTarget joins the owning job (source of truth for authorization), the
// seeker's contact address and any proxy already issued.
func (r *applicationRepo) GetReviewTarget(ctx context.Context, id int64) (*domain.ReviewTarget, error) {
	var t domain.ReviewTarget
	app := &t.Application
	dest := append(applicationDest(app), &t.JobEmployeeID, &t.SeekerEmail, &t.ProxyAddress,
		&app.JobRoleTitle, &app.JobCompany, &app.CandidateName)
	err := r.db.QueryRow(ctx, `
		SELECT `+applicationColumns+`, j.employee_id, p.email, pe.proxy_address,
		       j.role_title, j.company, p.full_name
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		LEFT JOIN profiles p ON p.id = a.job_seeker_id
		LEFT JOIN proxy_emails pe ON pe.application_id = a.id
		WHERE a.id = $1`, id).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Application.ProxyEmail = t.ProxyAddress
	return &t, nil
}

func (r *applicationRepo) AcceptWithProxy(ctx context.Context, id int64, proxy *domain.ProxyEmail) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := updateStatusFrom(ctx, tx, id, domain.ApplicationStatusPending, domain.ApplicationStatusAccepted); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO proxy_emails (application_id, proxy_address, real_email, is_active)
			VALUES ($1, $2, $3, true)
			RETURNING id, created_at`,
			id, proxy.ProxyAddress, proxy.RealEmail,
		).Scan(&proxy.ID, &proxy.CreatedAt)
		switch {
		case database.IsUniqueViolation(err, "proxy_emails_proxy_address_key"):
			return domain.ErrAliasTaken
		case database.IsUniqueViolation(err, "proxy_emails_application_id_key"):
			return domain.ErrInvalidTransition
		case err != nil:
			return fmt.Errorf("insert proxy email: %w", err)
		}
		proxy.ApplicationID = id
		proxy.IsActive = true
		return nil
	})
}

func (r *applicationRepo) UpdateStatusFrom(ctx context.Context, id int64, from, to domain.ApplicationStatus) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return updateStatusFrom(ctx, tx, id, from, to)
	})
}

// updateStatusFrom is the compare-and-set used for every status change.
func updateStatusFrom(ctx context.Context, tx pgx.Tx, id int64, from, to domain.ApplicationStatus) error {
	if !from.CanTransitionTo(to) {
		return domain.ErrInvalidTransition
	}
	tag, err := tx.Exec(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidTransition
}

func (r *applicationRepo) ListByJobSeeker(ctx context.Context, jobSeekerID string) ([]domain.Application, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+applicationColumns+`, j.role_title, j.company, pe.proxy_address
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		LEFT JOIN proxy_emails pe ON pe.application_id = a.id
		WHERE a.job_seeker_id = $1
		ORDER BY a.created_at DESC`, jobSeekerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		var app domain.Application
		dest := append(applicationDest(&app), &app.JobRoleTitle, &app.JobCompany, &app.ProxyEmail)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (r *applicationRepo) ListByJob(ctx context.Context, jobID int64) ([]domain.Application, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+applicationColumns+`, p.full_name, pe.proxy_address
		FROM applications a
		LEFT JOIN profiles p ON p.id = a.job_seeker_id
		LEFT JOIN proxy_emails pe ON pe.application_id = a.id
		WHERE a.job_id = $1
		ORDER BY a.created_at DESC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		var app domain.Application
		dest := append(applicationDest(&app), &app.CandidateName, &app.ProxyEmail)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
