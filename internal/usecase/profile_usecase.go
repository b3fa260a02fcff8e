package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/logger"
)

type profileUsecase struct {
	profileRepo domain.ProfileRepository
}

func NewProfileUsecase(profileRepo domain.ProfileRepository) domain.ProfileUsecase {
	return &profileUsecase{profileRepo: profileRepo}
}

// Onboard creates the profile once. The role cannot be changed afterwards.
func (u *profileUsecase) Onboard(ctx context.Context, userID, email string, input domain.OnboardInput) (*domain.Profile, error) {
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}
	if strings.TrimSpace(email) == "" {
		return nil, apperror.BadRequest("Account email is required")
	}

	existing, err := u.profileRepo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}
	if existing != nil {
		return nil, apperror.New(http.StatusConflict, "Role already selected", domain.ErrAlreadyOnboarded)
	}

	now := time.Now()
	profile := &domain.Profile{
		ID:                 userID,
		Email:              strings.ToLower(strings.TrimSpace(email)),
		Role:               role,
		VerificationStatus: domain.VerificationStatusUnverified,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if name := strings.TrimSpace(input.FullName); name != "" {
		profile.FullName = &name
	}
	if role == domain.RoleJobSeeker {
		zero := 0
		profile.TokenBalance = &zero
	}

	if err := u.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrAlreadyOnboarded) {
			return nil, apperror.New(http.StatusConflict, "Role already selected", err)
		}
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("profile onboarded", "user_id", userID, "role", role)
	return profile, nil
}

func (u *profileUsecase) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return loadProfile(ctx, u.profileRepo, userID)
}

func (u *profileUsecase) AcceptTerms(ctx context.Context, userID string) (*domain.Profile, error) {
	if err := u.profileRepo.AcceptTerms(ctx, userID, time.Now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.Wrap(errProfileMissing, err)
		}
		return nil, apperror.Internal(err)
	}
	return loadProfile(ctx, u.profileRepo, userID)
}
