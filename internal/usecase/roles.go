package usecase

import (
	"context"
	"errors"
	"net/http"

	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"
)

var errProfileMissing = apperror.NotFound("Profile not found. Complete onboarding first.")

func loadProfile(ctx context.Context, repo domain.ProfileRepository, userID string) (*domain.Profile, error) {
	profile, err := repo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Wrap(errProfileMissing, err)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return profile, nil
}

// loadJobSeeker returns the job seeker view or a 403 for any other role.
func loadJobSeeker(ctx context.Context, repo domain.ProfileRepository, userID, action string) (domain.JobSeeker, error) {
	profile, err := loadProfile(ctx, repo, userID)
	if err != nil {
		return domain.JobSeeker{}, err
	}
	seeker, ok := profile.AsJobSeeker()
	if !ok {
		return domain.JobSeeker{}, apperror.New(http.StatusForbidden, "Only job seekers can "+action, domain.ErrWrongRole)
	}
	return seeker, nil
}

// loadEmployee returns the employee view or a 403 for any other role.
func loadEmployee(ctx context.Context, repo domain.ProfileRepository, userID, action string) (domain.Employee, error) {
	profile, err := loadProfile(ctx, repo, userID)
	if err != nil {
		return domain.Employee{}, err
	}
	employee, ok := profile.AsEmployee()
	if !ok {
		return domain.Employee{}, apperror.New(http.StatusForbidden, "Only employees can "+action, domain.ErrWrongRole)
	}
	return employee, nil
}

// capabilityError maps a failed capability check to its HTTP error.
func capabilityError(err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountBanned):
		return apperror.New(http.StatusForbidden, "Your account has been suspended", err)
	case errors.Is(err, domain.ErrNotVerified):
		return apperror.New(http.StatusForbidden, "Verify your employment before posting jobs", err)
	case errors.Is(err, domain.ErrInsufficientTokens):
		return apperror.New(http.StatusBadRequest, "Insufficient tokens. Please purchase more tokens to apply.", err)
	case errors.Is(err, domain.ErrWrongRole):
		return apperror.New(http.StatusForbidden, "You do not have permission to perform this action", err)
	}
	return apperror.Internal(err)
}
