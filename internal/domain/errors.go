package domain

import "errors"

// Sentinel errors returned by repositories and external clients. Usecases
// translate them into apperror values; errors.Is still matches through the wrap.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrAlreadyOnboarded       = errors.New("profile already exists")
	ErrWrongRole              = errors.New("operation not allowed for this role")
	ErrAccountBanned          = errors.New("account is banned")
	ErrNotVerified            = errors.New("account is not verified")
	ErrJobInactive            = errors.New("job is not accepting applications")
	ErrInsufficientTokens     = errors.New("insufficient tokens")
	ErrDuplicateApplication   = errors.New("application already exists for this job")
	ErrInvalidTransition      = errors.New("invalid application status transition")
	ErrProxyGenerationBlocked = errors.New("job seeker profile not found, cannot generate proxy")
	ErrAliasTaken             = errors.New("proxy alias already in use")
	ErrProxyNotFound          = errors.New("proxy email not found")
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrAnalysisParse          = errors.New("analysis response is not valid JSON")
	ErrUnknownPlan            = errors.New("unknown token plan")
	ErrForeignResume          = errors.New("resume does not belong to the applicant")
)
