package domain

import (
	"context"
	"fmt"
	"time"
)

type ApplicationStatus string

// Application status flow: pending → accepted / rejected, accepted → referred
const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
	ApplicationStatusReferred ApplicationStatus = "referred"
)

// CanTransitionTo reports whether next is a legal successor of s.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	switch s {
	case ApplicationStatusPending:
		return next == ApplicationStatusAccepted || next == ApplicationStatusRejected
	case ApplicationStatusAccepted:
		return next == ApplicationStatusReferred
	default:
		return false
	}
}

func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusReferred
}

// ParseReviewDecision accepts only the two outcomes an employee may choose.
func ParseReviewDecision(raw string) (ApplicationStatus, error) {
	switch ApplicationStatus(raw) {
	case ApplicationStatusAccepted, ApplicationStatusRejected:
		return ApplicationStatus(raw), nil
	}
	return "", fmt.Errorf("invalid decision %q: must be accepted or rejected", raw)
}

// Application represents a job seeker's token-backed application to a job
type Application struct {
	ID           int64             `json:"id"`
	JobID        int64             `json:"job_id"`
	JobSeekerID  string            `json:"job_seeker_id"`
	EmployeeID   string            `json:"employee_id"` // Copied from the job for listings, never trusted for auth
	CoverLetter  string            `json:"cover_letter"`
	LinkedinURL  *string           `json:"linkedin_url,omitempty"`
	PortfolioURL *string           `json:"portfolio_url,omitempty"`
	ResumeURL    *string           `json:"resume_url,omitempty"`
	Status       ApplicationStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	// Joined data for list responses
	JobRoleTitle  *string `json:"job_role_title,omitempty"`
	JobCompany    *string `json:"job_company,omitempty"`
	CandidateName *string `json:"candidate_name,omitempty"`
	ProxyEmail    *string `json:"proxy_email,omitempty"`
}

// ReviewTarget is an application joined with the owning job and the seeker's
// contact address, as needed by the review workflow.
type ReviewTarget struct {
	Application   Application
	JobEmployeeID string
	SeekerEmail   *string
	ProxyAddress  *string
}

type ApplyInput struct {
	CoverLetter  string `json:"cover_letter" binding:"required,max=5000"`
	LinkedinURL  string `json:"linkedin_url" binding:"omitempty,url"`
	PortfolioURL string `json:"portfolio_url" binding:"omitempty,url"`
	ResumeURL    string `json:"resume_url" binding:"omitempty,max=500"`
}

type ReviewResult struct {
	ApplicationID int64             `json:"application_id"`
	Status        ApplicationStatus `json:"status"`
	ProxyEmail    *string           `json:"proxy_email"`
}

// ResumeAnalysis is the AI match report between a resume and a job.
type ResumeAnalysis struct {
	Score   int      `json:"score"`
	Pros    []string `json:"pros"`
	Cons    []string `json:"cons"`
	Summary string   `json:"summary"`
}

// ApplicationRepository defines data access methods for applications
type ApplicationRepository interface {
	CheckExists(ctx context.Context, jobID int64, jobSeekerID string) (bool, error)
	// CreateWithTokenDebit debits one token and inserts the application atomically.
	// Returns ErrInsufficientTokens or ErrDuplicateApplication without side effects.
	CreateWithTokenDebit(ctx context.Context, app *Application) (remaining int, err error)
	GetByID(ctx context.Context, id int64) (*Application, error)
	GetReviewTarget(ctx context.Context, id int64) (*ReviewTarget, error)
	// AcceptWithProxy moves pending → accepted and registers the proxy in one transaction.
	AcceptWithProxy(ctx context.Context, id int64, proxy *ProxyEmail) error
	// UpdateStatusFrom is a guarded update; ErrInvalidTransition when current != from.
	UpdateStatusFrom(ctx context.Context, id int64, from, to ApplicationStatus) error
	ListByJobSeeker(ctx context.Context, jobSeekerID string) ([]Application, error)
	ListByJob(ctx context.Context, jobID int64) ([]Application, error)
}

// ApplicationUsecase defines business logic for applications
type ApplicationUsecase interface {
	// Job seeker operations
	Apply(ctx context.Context, jobSeekerID string, jobID int64, input ApplyInput) (*Application, error)
	ListMyApplications(ctx context.Context, jobSeekerID string) ([]Application, error)

	// Employee operations
	ListJobApplications(ctx context.Context, employeeID string, jobID int64) ([]Application, error)
	Review(ctx context.Context, reviewerID string, applicationID int64, decision ApplicationStatus) (*ReviewResult, error)
	AnalyzeResume(ctx context.Context, reviewerID string, applicationID int64) (*ResumeAnalysis, error)
}
