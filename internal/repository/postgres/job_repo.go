package postgres

import (
	"context"
	"errors"

	"referral-backend/internal/domain"
	"referral-backend/pkg/database"

	"github.com/jackc/pgx/v5"
)

type jobRepo struct {
	db database.DB
}

func NewJobRepository(db database.DB) domain.JobRepository {
	return &jobRepo{db: db}
}

const jobColumns = `id, employee_id, company, role_title, department, location, job_type,
	experience_level, description, requirements, job_url, referral_fee, is_active, created_at, updated_at`

func scanJob(row pgx.Row, job *domain.Job) error {
	return row.Scan(
		&job.ID, &job.EmployeeID, &job.Company, &job.RoleTitle, &job.Department, &job.Location, &job.JobType,
		&job.ExperienceLevel, &job.Description, &job.Requirements, &job.JobURL, &job.ReferralFee, &job.IsActive,
		&job.CreatedAt, &job.UpdatedAt,
	)
}

func (r *jobRepo) Create(ctx context.Context, job *domain.Job) error {
	query := `INSERT INTO jobs (employee_id, company, role_title, department, location, job_type, experience_level,
	              description, requirements, job_url, referral_fee, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	return r.db.QueryRow(ctx, query,
		job.EmployeeID, job.Company, job.RoleTitle, job.Department, job.Location, job.JobType, job.ExperienceLevel,
		job.Description, job.Requirements, job.JobURL, job.ReferralFee, job.IsActive, job.CreatedAt, job.UpdatedAt,
	).Scan(&job.ID)
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id), &job)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListActive only ever returns active jobs; the filter is not caller controlled.
func (r *jobRepo) ListActive(ctx context.Context, limit, offset int) ([]domain.Job, int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE is_active = true ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE is_active = true`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (r *jobRepo) ListByEmployee(ctx context.Context, employeeID string) ([]domain.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE employee_id = $1 ORDER BY created_at DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func (r *jobRepo) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE jobs SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collectJobs(rows pgx.Rows) ([]domain.Job, error) {
	defer rows.Close()
	jobs := []domain.Job{}
	for rows.Next() {
		var job domain.Job
		if err := scanJob(rows, &job); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
