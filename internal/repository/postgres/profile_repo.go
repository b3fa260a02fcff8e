package postgres

import (
	"context"
	"errors"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type profileRepo struct {
	db database.DB
}

func NewProfileRepository(db database.DB) domain.ProfileRepository {
	return &profileRepo{db: db}
}

const profileColumns = `id, email, full_name, company, role, token_balance, verification_status, is_verified,
	verification_score, verification_feedback, verification_document_url, is_banned, ban_reason,
	has_accepted_terms, terms_accepted_at, created_at, updated_at`

func scanProfile(row pgx.Row, p *domain.Profile) error {
	return row.Scan(
		&p.ID, &p.Email, &p.FullName, &p.Company, &p.Role, &p.TokenBalance, &p.VerificationStatus, &p.IsVerified,
		&p.VerificationScore, &p.VerificationFeedback, &p.VerificationDocumentURL, &p.IsBanned, &p.BanReason,
		&p.HasAcceptedTerms, &p.TermsAcceptedAt, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *profileRepo) Create(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profiles (id, email, full_name, role, token_balance, verification_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.Email, p.FullName, p.Role, p.TokenBalance, p.VerificationStatus, p.CreatedAt, p.UpdatedAt,
	)
	if database.IsUniqueViolation(err, "profiles_pkey") {
		return domain.ErrAlreadyOnboarded
	}
	return err
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AcceptTerms stamps the first acceptance only.
func (r *profileRepo) AcceptTerms(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET has_accepted_terms = true,
		    terms_accepted_at = COALESCE(terms_accepted_at, $2),
		    updated_at = $2
		WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) UpdateVerification(ctx context.Context, id string, u domain.VerificationUpdate) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET verification_status = $2,
		    is_verified = $3,
		    verification_score = $4,
		    verification_feedback = $5,
		    full_name = $6,
		    company = $7,
		    verification_document_url = COALESCE($8, verification_document_url),
		    updated_at = NOW()
		WHERE id = $1`,
		id, u.Status, u.IsVerified, u.Score, u.Feedback, u.FullName, u.Company, u.DocumentURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) SetVerificationDecision(ctx context.Context, id string, status domain.VerificationStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles
		SET verification_status = $2,
		    is_verified = $3,
		    updated_at = NOW()
		WHERE id = $1`,
		id, status, status == domain.VerificationStatusVerified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *profileRepo) ListByVerificationStatus(ctx context.Context, status domain.VerificationStatus) ([]domain.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE verification_status = $1 ORDER BY updated_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		var p domain.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profileRepo) Ban(ctx context.Context, id string, reason string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET is_banned = true, ban_reason = $2, updated_at = NOW() WHERE id = $1`, id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
