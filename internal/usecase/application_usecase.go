package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/analysis"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/email"
	"referral-backend/pkg/logger"
	"referral-backend/pkg/metrics"
	"referral-backend/pkg/security"
	"referral-backend/pkg/storage"
)

// maxAliasAttempts bounds regeneration after a proxy alias collision.
const maxAliasAttempts = 3

// ApplicationSettings carries the configuration the application workflow needs.
type ApplicationSettings struct {
	EmailDomain       string
	ResumeBucket      string
	StoragePublicBase string
}

type applicationUsecase struct {
	applicationRepo domain.ApplicationRepository
	jobRepo         domain.JobRepository
	profileRepo     domain.ProfileRepository
	notifier        domain.Notifier
	analyzer        domain.Analyzer
	store           domain.ObjectStore
	settings        ApplicationSettings
	logger          *security.SecurityLogger
	newAlias        func(domain string) (string, error)
}

// NewApplicationUsecase creates a new application usecase
func NewApplicationUsecase(
	appRepo domain.ApplicationRepository,
	jobRepo domain.JobRepository,
	profileRepo domain.ProfileRepository,
	notifier domain.Notifier,
	analyzer domain.Analyzer,
	store domain.ObjectStore,
	settings ApplicationSettings,
) domain.ApplicationUsecase {
	return &applicationUsecase{
		applicationRepo: appRepo,
		jobRepo:         jobRepo,
		profileRepo:     profileRepo,
		notifier:        notifier,
		analyzer:        analyzer,
		store:           store,
		settings:        settings,
		logger:          security.DefaultLogger(),
		newAlias:        domain.GenerateProxyAddress,
	}
}

// Apply spends one token and creates a pending application in a single transaction.
func (uc *applicationUsecase) Apply(ctx context.Context, jobSeekerID string, jobID int64, input domain.ApplyInput) (*domain.Application, error) {
	// 1. Caller must be a job seeker with at least one token
	seeker, err := loadJobSeeker(ctx, uc.profileRepo, jobSeekerID, "apply to jobs")
	if err != nil {
		return nil, err
	}
	if err := seeker.CanApply(); err != nil {
		return nil, capabilityError(err)
	}
	if input.ResumeURL != "" {
		if _, ok := uc.resumeKey(jobSeekerID, input.ResumeURL); !ok {
			return nil, apperror.Wrap(apperror.BadRequest("Resume must be a file you uploaded"), domain.ErrForeignResume)
		}
	}

	// 2. Validate job exists and is active
	job, err := uc.jobRepo.GetByID(ctx, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("Job not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !job.IsActive {
		return nil, apperror.Wrap(apperror.BadRequest("Cannot apply to inactive job"), domain.ErrJobInactive)
	}

	// 3. Check for duplicate application
	exists, err := uc.applicationRepo.CheckExists(ctx, jobID, jobSeekerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if exists {
		return nil, apperror.Wrap(apperror.Conflict("You have already applied to this job"), domain.ErrDuplicateApplication)
	}

	// 4. Debit and insert atomically; the store re-checks both conditions
	now := time.Now()
	app := &domain.Application{
		JobID:        jobID,
		JobSeekerID:  jobSeekerID,
		EmployeeID:   job.EmployeeID,
		CoverLetter:  strings.TrimSpace(input.CoverLetter),
		LinkedinURL:  optional(input.LinkedinURL),
		PortfolioURL: optional(input.PortfolioURL),
		ResumeURL:    optional(input.ResumeURL),
		Status:       domain.ApplicationStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	remaining, err := uc.applicationRepo.CreateWithTokenDebit(ctx, app)
	switch {
	case errors.Is(err, domain.ErrInsufficientTokens):
		return nil, capabilityError(err)
	case errors.Is(err, domain.ErrDuplicateApplication):
		return nil, apperror.Wrap(apperror.Conflict("You have already applied to this job"), err)
	case err != nil:
		return nil, apperror.New(http.StatusInternalServerError, "Failed to create application", err)
	}

	metrics.RecordApplicationEvent("applied")
	metrics.RecordTokensDebited(1)
	logger.Log.Info("application created",
		"application_id", app.ID, "job_id", jobID, "job_seeker_id", jobSeekerID, "tokens_remaining", remaining)

	app.JobRoleTitle = &job.RoleTitle
	app.JobCompany = &job.Company
	return app, nil
}

func (uc *applicationUsecase) ListMyApplications(ctx context.Context, jobSeekerID string) ([]domain.Application, error) {
	if _, err := loadJobSeeker(ctx, uc.profileRepo, jobSeekerID, "view their applications"); err != nil {
		return nil, err
	}
	apps, err := uc.applicationRepo.ListByJobSeeker(ctx, jobSeekerID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return apps, nil
}

func (uc *applicationUsecase) ListJobApplications(ctx context.Context, employeeID string, jobID int64) ([]domain.Application, error) {
	employee, err := loadEmployee(ctx, uc.profileRepo, employeeID, "view applicants")
	if err != nil {
		return nil, err
	}

	job, err := uc.jobRepo.GetByID(ctx, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("Job not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !employee.Owns(job) {
		return nil, apperror.Forbidden("You do not have permission to view applications for this job")
	}

	apps, err := uc.applicationRepo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return apps, nil
}

// Review accepts or rejects a pending application. Repeating the same decision
// returns the current state without side effects.
func (uc *applicationUsecase) Review(ctx context.Context, reviewerID string, applicationID int64, decision domain.ApplicationStatus) (*domain.ReviewResult, error) {
	if decision != domain.ApplicationStatusAccepted && decision != domain.ApplicationStatusRejected {
		return nil, apperror.BadRequest("Decision must be accepted or rejected")
	}

	// 1. Reviewer must be an employee in good standing
	employee, err := loadEmployee(ctx, uc.profileRepo, reviewerID, "review applications")
	if err != nil {
		return nil, err
	}

	// 2. Load application joined with its job; the job row decides ownership
	target, err := uc.loadReviewTarget(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := employee.CanReview(&domain.Job{EmployeeID: target.JobEmployeeID}); err != nil {
		if errors.Is(err, domain.ErrWrongRole) {
			uc.logger.LogAccessDenied(ctx, security.EventForbiddenAccess, reviewerID, "", "",
				fmt.Sprintf("application:%d:review", applicationID))
			return nil, apperror.Forbidden("You do not have permission to review this application")
		}
		return nil, capabilityError(err)
	}

	// 3. Idempotence and transition guard
	if result, done := reviewOutcome(target, decision); done {
		return result, nil
	}
	if !target.Application.Status.CanTransitionTo(decision) {
		return nil, apperror.Wrap(apperror.Conflict(
			fmt.Sprintf("Application is already %s", target.Application.Status)), domain.ErrInvalidTransition)
	}

	// 4. Apply the decision
	var result *domain.ReviewResult
	if decision == domain.ApplicationStatusAccepted {
		result, err = uc.accept(ctx, target)
	} else {
		result, err = uc.reject(ctx, target)
	}
	if err != nil {
		return nil, err
	}

	// 5. Notify the candidate; never affects the outcome
	uc.notifyDecision(ctx, target, result)
	metrics.RecordApplicationEvent(string(result.Status))
	logger.Log.Info("application reviewed",
		"application_id", applicationID, "reviewer_id", reviewerID, "status", result.Status)
	return result, nil
}

func (uc *applicationUsecase) loadReviewTarget(ctx context.Context, applicationID int64) (*domain.ReviewTarget, error) {
	target, err := uc.applicationRepo.GetReviewTarget(ctx, applicationID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound("Application not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return target, nil
}

// reviewOutcome reports the existing result when decision is already applied.
func reviewOutcome(target *domain.ReviewTarget, decision domain.ApplicationStatus) (*domain.ReviewResult, bool) {
	if target.Application.Status != decision {
		return nil, false
	}
	result := &domain.ReviewResult{ApplicationID: target.Application.ID, Status: decision}
	if decision == domain.ApplicationStatusAccepted {
		result.ProxyEmail = target.ProxyAddress
	}
	return result, true
}

func (uc *applicationUsecase) accept(ctx context.Context, target *domain.ReviewTarget) (*domain.ReviewResult, error) {
	if target.SeekerEmail == nil || *target.SeekerEmail == "" {
		return nil, apperror.Wrap(apperror.NotFound("Job seeker profile not found, cannot generate proxy email"),
			domain.ErrProxyGenerationBlocked)
	}

	appID := target.Application.ID
	for attempt := 1; attempt <= maxAliasAttempts; attempt++ {
		address, err := uc.newAlias(uc.settings.EmailDomain)
		if err != nil {
			return nil, apperror.Internal(err)
		}

		proxy := &domain.ProxyEmail{ProxyAddress: address, RealEmail: *target.SeekerEmail}
		err = uc.applicationRepo.AcceptWithProxy(ctx, appID, proxy)
		switch {
		case err == nil:
			return &domain.ReviewResult{ApplicationID: appID, Status: domain.ApplicationStatusAccepted, ProxyEmail: &address}, nil
		case errors.Is(err, domain.ErrAliasTaken):
			logger.Log.Warn("proxy alias collision, regenerating", "application_id", appID, "attempt", attempt)
			continue
		case errors.Is(err, domain.ErrInvalidTransition):
			return uc.afterLostRace(ctx, appID, domain.ApplicationStatusAccepted)
		case errors.Is(err, domain.ErrNotFound):
			return nil, apperror.NotFound("Application not found")
		default:
			return nil, apperror.Internal(err)
		}
	}
	return nil, apperror.Internal(fmt.Errorf("application %d: %w after %d attempts", appID, domain.ErrAliasTaken, maxAliasAttempts))
}

func (uc *applicationUsecase) reject(ctx context.Context, target *domain.ReviewTarget) (*domain.ReviewResult, error) {
	appID := target.Application.ID
	err := uc.applicationRepo.UpdateStatusFrom(ctx, appID, domain.ApplicationStatusPending, domain.ApplicationStatusRejected)
	switch {
	case err == nil:
		return &domain.ReviewResult{ApplicationID: appID, Status: domain.ApplicationStatusRejected}, nil
	case errors.Is(err, domain.ErrInvalidTransition):
		return uc.afterLostRace(ctx, appID, domain.ApplicationStatusRejected)
	case errors.Is(err, domain.ErrNotFound):
		return nil, apperror.NotFound("Application not found")
	}
	return nil, apperror.Internal(err)
}

// afterLostRace handles a guarded update that found the status already changed
// by a concurrent reviewer.
func (uc *applicationUsecase) afterLostRace(ctx context.Context, appID int64, decision domain.ApplicationStatus) (*domain.ReviewResult, error) {
	target, err := uc.loadReviewTarget(ctx, appID)
	if err != nil {
		return nil, err
	}
	if result, done := reviewOutcome(target, decision); done {
		return result, nil
	}
	return nil, apperror.Wrap(apperror.Conflict(
		fmt.Sprintf("Application is already %s", target.Application.Status)), domain.ErrInvalidTransition)
}

func (uc *applicationUsecase) notifyDecision(ctx context.Context, target *domain.ReviewTarget, result *domain.ReviewResult) {
	if uc.notifier == nil || target.SeekerEmail == nil {
		return
	}
	data := email.DecisionEmailData{
		CandidateName: deref(target.Application.CandidateName),
		RoleTitle:     deref(target.Application.JobRoleTitle),
		Company:       deref(target.Application.JobCompany),
		ProxyEmail:    deref(result.ProxyEmail),
	}
	msg, err := email.DecisionMessage(*target.SeekerEmail, result.Status, data)
	if err != nil {
		logger.Log.Warn("failed to build decision email", "application_id", result.ApplicationID, "error", err)
		return
	}
	uc.notifier.Notify(ctx, msg)
}

const resumeAnalysisPrompt = `You are an expert technical recruiter. Compare the attached resume with the job below.

Job title: %s
Company: %s
Experience level: %s
Description:
%s
Requirements:
%s

Respond with strict JSON only, no markdown, using exactly this shape:
{"score": <integer 0-100>, "pros": [<strings>], "cons": [<strings>], "summary": "<two sentences>"}`

// AnalyzeResume scores the applicant's resume against the job for the owning employee.
func (uc *applicationUsecase) AnalyzeResume(ctx context.Context, reviewerID string, applicationID int64) (*domain.ResumeAnalysis, error) {
	employee, err := loadEmployee(ctx, uc.profileRepo, reviewerID, "analyze resumes")
	if err != nil {
		return nil, err
	}

	target, err := uc.loadReviewTarget(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := employee.CanReview(&domain.Job{EmployeeID: target.JobEmployeeID}); err != nil {
		if errors.Is(err, domain.ErrWrongRole) {
			return nil, apperror.Forbidden("You do not have permission to analyze this application")
		}
		return nil, capabilityError(err)
	}

	resumeURL := deref(target.Application.ResumeURL)
	if resumeURL == "" {
		return nil, apperror.BadRequest("This application has no resume")
	}
	if uc.analyzer == nil || uc.store == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "Resume analysis is not available", nil)
	}

	job, err := uc.jobRepo.GetByID(ctx, target.Application.JobID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	key, ok := uc.resumeKey(target.Application.JobSeekerID, resumeURL)
	if !ok {
		uc.logger.LogAccessDenied(ctx, security.EventForbiddenAccess, reviewerID, "", "", "resume:"+key)
		return nil, apperror.Wrap(apperror.Forbidden("Resume does not belong to this applicant"), domain.ErrForeignResume)
	}

	start := time.Now()
	data, contentType, err := uc.store.Get(ctx, uc.settings.ResumeBucket, key)
	metrics.ObserveExternalCall("storage", start, err)
	if err != nil {
		return nil, apperror.BadGateway("Failed to download resume", err)
	}
	if contentType == "" {
		contentType = "application/pdf"
	}

	prompt := fmt.Sprintf(resumeAnalysisPrompt,
		job.RoleTitle, job.Company, job.ExperienceLevel, job.Description, deref(job.Requirements))

	start = time.Now()
	text, err := uc.analyzer.Generate(ctx, prompt, &domain.Document{ContentType: contentType, Data: data})
	metrics.ObserveExternalCall("analysis", start, err)
	if err != nil {
		return nil, apperror.BadGateway("Resume analysis failed", err)
	}

	var result domain.ResumeAnalysis
	if err := analysis.DecodeJSON(text, &result); err != nil {
		return nil, apperror.BadGateway("Failed to parse analysis response", err)
	}
	result.Score = min(max(result.Score, 0), 100)
	if result.Pros == nil {
		result.Pros = []string{}
	}
	if result.Cons == nil {
		result.Cons = []string{}
	}
	return &result, nil
}

// resumeKey resolves a resume reference to its object key. Resumes live under
// "{jobSeekerID}/", so anything outside that prefix is rejected.
func (uc *applicationUsecase) resumeKey(jobSeekerID, raw string) (string, bool) {
	key := storage.KeyFromURL(uc.settings.StoragePublicBase, uc.settings.ResumeBucket, raw)
	if jobSeekerID == "" || path.Clean(key) != key {
		return key, false
	}
	return key, strings.HasPrefix(key, jobSeekerID+"/")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
