package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type jobUsecase struct {
	jobRepo     domain.JobRepository
	profileRepo domain.ProfileRepository
}

func NewJobUsecase(jobRepo domain.JobRepository, profileRepo domain.ProfileRepository) domain.JobUsecase {
	return &jobUsecase{
		jobRepo:     jobRepo,
		profileRepo: profileRepo,
	}
}

func (u *jobUsecase) CreateJob(ctx context.Context, employeeID string, input domain.CreateJobInput) (*domain.Job, error) {
	employee, err := loadEmployee(ctx, u.profileRepo, employeeID, "post jobs")
	if err != nil {
		return nil, err
	}
	if err := employee.CanPostJobs(); err != nil {
		return nil, capabilityError(err)
	}

	// Company comes from the verified profile, never from the request
	company := employee.Profile().Company
	if company == nil || *company == "" {
		return nil, apperror.BadRequest("Complete employment verification to set your company")
	}

	now := time.Now()
	job := &domain.Job{
		EmployeeID:      employeeID,
		Company:         *company,
		RoleTitle:       strings.TrimSpace(input.RoleTitle),
		Department:      optional(input.Department),
		Location:        strings.TrimSpace(input.Location),
		JobType:         input.JobType,
		ExperienceLevel: input.ExperienceLevel,
		Description:     input.Description,
		Requirements:    optional(input.Requirements),
		JobURL:          optional(input.JobURL),
		ReferralFee:     domain.DefaultReferralFee,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.jobRepo.Create(ctx, job); err != nil {
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("job posted", "job_id", job.ID, "employee_id", employeeID)
	return job, nil
}

func (u *jobUsecase) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := u.jobRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("Job not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return job, nil
}

func (u *jobUsecase) ListActiveJobs(ctx context.Context, page, pageSize int) ([]domain.Job, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	jobs, total, err := u.jobRepo.ListActive(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return jobs, total, nil
}

func (u *jobUsecase) ListMyJobs(ctx context.Context, employeeID string) ([]domain.Job, error) {
	if _, err := loadEmployee(ctx, u.profileRepo, employeeID, "manage jobs"); err != nil {
		return nil, err
	}
	jobs, err := u.jobRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return jobs, nil
}

// SetJobActive toggles a listing. Jobs are never hard-deleted.
func (u *jobUsecase) SetJobActive(ctx context.Context, employeeID string, jobID int64, active bool) (*domain.Job, error) {
	employee, err := loadEmployee(ctx, u.profileRepo, employeeID, "manage jobs")
	if err != nil {
		return nil, err
	}

	job, err := u.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !employee.Owns(job) {
		return nil, apperror.Forbidden("You do not have permission to modify this job")
	}

	if job.IsActive == active {
		return job, nil
	}
	if err := u.jobRepo.SetActive(ctx, jobID, active); err != nil {
		return nil, apperror.Internal(err)
	}
	job.IsActive = active
	job.UpdatedAt = time.Now()
	return job, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
