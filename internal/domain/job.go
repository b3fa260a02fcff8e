package domain

import (
	"context"
	"time"
)

// DefaultReferralFee is the fee (INR) shown on every listing.
const DefaultReferralFee = 500

type Job struct {
	ID              int64     `json:"id"`
	EmployeeID      string    `json:"employee_id"`
	Company         string    `json:"company"`
	RoleTitle       string    `json:"role_title"`
	Department      *string   `json:"department,omitempty"`
	Location        string    `json:"location"`
	JobType         string    `json:"job_type"`
	ExperienceLevel string    `json:"experience_level"`
	Description     string    `json:"description"`
	Requirements    *string   `json:"requirements,omitempty"`
	JobURL          *string   `json:"job_url,omitempty"`
	ReferralFee     int       `json:"referral_fee"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateJobInput struct {
	RoleTitle       string `json:"role_title" binding:"required,max=150,no_emoji"`
	Department      string `json:"department" binding:"max=100"`
	Location        string `json:"location" binding:"required,max=150"`
	JobType         string `json:"job_type" binding:"required,oneof=full-time part-time contract internship"`
	ExperienceLevel string `json:"experience_level" binding:"required,max=50"`
	Description     string `json:"description" binding:"required,max=10000"`
	Requirements    string `json:"requirements" binding:"max=10000"`
	JobURL          string `json:"job_url" binding:"omitempty,url"`
}

// PaginatedResult for list responses
type PaginatedResult[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func NewPaginatedResult[T any](data []T, total int64, page, pageSize int) PaginatedResult[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if data == nil {
		data = []T{}
	}
	return PaginatedResult[T]{Data: data, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}

type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id int64) (*Job, error)
	ListActive(ctx context.Context, limit, offset int) ([]Job, int64, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Job, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type JobUsecase interface {
	CreateJob(ctx context.Context, employeeID string, input CreateJobInput) (*Job, error)
	GetJob(ctx context.Context, id int64) (*Job, error)
	ListActiveJobs(ctx context.Context, page, pageSize int) ([]Job, int64, error)
	ListMyJobs(ctx context.Context, employeeID string) ([]Job, error)
	SetJobActive(ctx context.Context, employeeID string, jobID int64, active bool) (*Job, error)
}
