package domain

import (
	"context"
	"fmt"
	"time"
)

// Role is the closed set of account kinds. It is chosen once at onboarding.
type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployee  Role = "employee"
)

func (r Role) IsValid() bool {
	return r == RoleJobSeeker || r == RoleEmployee
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q: must be job_seeker or employee", raw)
	}
	return r, nil
}

// Profile is the account record shared by both roles.
type Profile struct {
	ID                      string             `json:"id"` // Identity provider subject
	Email                   string             `json:"email"`
	FullName                *string            `json:"full_name,omitempty"`
	Company                 *string            `json:"company,omitempty"`
	Role                    Role               `json:"role"`
	TokenBalance            *int               `json:"token_balance"` // job_seeker only
	VerificationStatus      VerificationStatus `json:"verification_status"`
	IsVerified              bool               `json:"is_verified"`
	VerificationScore       *int               `json:"verification_score,omitempty"`
	VerificationFeedback    *string            `json:"verification_feedback,omitempty"`
	VerificationDocumentURL *string            `json:"verification_document_url,omitempty"`
	IsBanned                bool               `json:"is_banned"`
	BanReason               *string            `json:"ban_reason,omitempty"`
	HasAcceptedTerms        bool               `json:"has_accepted_terms"`
	TermsAcceptedAt         *time.Time         `json:"terms_accepted_at,omitempty"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

// JobSeeker exposes the operations only a job_seeker profile supports.
type JobSeeker struct {
	p *Profile
}

// Employee exposes the operations only an employee profile supports.
type Employee struct {
	p *Profile
}

// AsJobSeeker returns the job seeker view, or false for any other role.
func (p *Profile) AsJobSeeker() (JobSeeker, bool) {
	if p == nil || p.Role != RoleJobSeeker {
		return JobSeeker{}, false
	}
	return JobSeeker{p: p}, true
}

// AsEmployee returns the employee view, or false for any other role.
func (p *Profile) AsEmployee() (Employee, bool) {
	if p == nil || p.Role != RoleEmployee {
		return Employee{}, false
	}
	return Employee{p: p}, true
}

func (s JobSeeker) Profile() *Profile { return s.p }

// Balance treats a missing balance as zero.
func (s JobSeeker) Balance() int {
	if s.p.TokenBalance == nil {
		return 0
	}
	return *s.p.TokenBalance
}

// CanApply checks ban state and that at least one token is available.
func (s JobSeeker) CanApply() error {
	if s.p.IsBanned {
		return ErrAccountBanned
	}
	if s.Balance() < 1 {
		return ErrInsufficientTokens
	}
	return nil
}

func (s JobSeeker) CanPurchase() error {
	if s.p.IsBanned {
		return ErrAccountBanned
	}
	return nil
}

func (e Employee) Profile() *Profile { return e.p }

// CanPostJobs requires a verified, non-banned employee.
func (e Employee) CanPostJobs() error {
	if e.p.IsBanned {
		return ErrAccountBanned
	}
	if !e.p.IsVerified {
		return ErrNotVerified
	}
	return nil
}

// CanReview allows a non-banned employee to act on applications for jobs they own.
func (e Employee) CanReview(job *Job) error {
	if e.p.IsBanned {
		return ErrAccountBanned
	}
	if !e.Owns(job) {
		return ErrWrongRole
	}
	return nil
}

func (e Employee) CanVerify() error {
	if e.p.IsBanned {
		return ErrAccountBanned
	}
	return nil
}

// Owns reports whether the job was posted by this employee.
func (e Employee) Owns(job *Job) bool {
	return job != nil && job.EmployeeID == e.p.ID
}

// OnboardInput is submitted once, right after the first sign-in.
type OnboardInput struct {
	Role     string `json:"role" binding:"required,oneof=job_seeker employee"`
	FullName string `json:"full_name" binding:"omitempty,max=120,valid_name"`
}

// VerificationUpdate is written after an automated employment check.
type VerificationUpdate struct {
	Status      VerificationStatus
	IsVerified  bool
	Score       int
	Feedback    string
	FullName    string
	Company     string
	DocumentURL *string
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	AcceptTerms(ctx context.Context, id string, at time.Time) error
	UpdateVerification(ctx context.Context, id string, update VerificationUpdate) error
	SetVerificationDecision(ctx context.Context, id string, status VerificationStatus) error
	ListByVerificationStatus(ctx context.Context, status VerificationStatus) ([]Profile, error)
	Ban(ctx context.Context, id string, reason string) error
}

type ProfileUsecase interface {
	Onboard(ctx context.Context, userID, email string, input OnboardInput) (*Profile, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	AcceptTerms(ctx context.Context, userID string) (*Profile, error)
}
