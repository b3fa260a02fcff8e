package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"referral-backend/internal/domain"
	"referral-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboard(t *testing.T) {
	ctx := context.Background()

	t.Run("Job seeker starts with zero tokens", func(t *testing.T) {
		s := newMemStore()
		uc := usecase.NewProfileUsecase(s.Profiles())

		p, err := uc.Onboard(ctx, "u1", " Seeker@Example.com ", domain.OnboardInput{Role: "job_seeker", FullName: "Asha"})

		require.NoError(t, err)
		assert.Equal(t, domain.RoleJobSeeker, p.Role)
		assert.Equal(t, "seeker@example.com", p.Email)
		require.NotNil(t, p.TokenBalance)
		assert.Equal(t, 0, *p.TokenBalance)
	})

	t.Run("Employee has no balance", func(t *testing.T) {
		s := newMemStore()
		uc := usecase.NewProfileUsecase(s.Profiles())

		p, err := uc.Onboard(ctx, "u2", "emp@acme.com", domain.OnboardInput{Role: "employee"})

		require.NoError(t, err)
		assert.Nil(t, p.TokenBalance)
		assert.Equal(t, domain.VerificationStatusUnverified, p.VerificationStatus)
	})

	t.Run("Role cannot be chosen twice", func(t *testing.T) {
		s := newMemStore()
		uc := usecase.NewProfileUsecase(s.Profiles())
		_, err := uc.Onboard(ctx, "u1", "a@b.com", domain.OnboardInput{Role: "job_seeker"})
		require.NoError(t, err)

		_, err = uc.Onboard(ctx, "u1", "a@b.com", domain.OnboardInput{Role: "employee"})

		requireStatus(t, err, http.StatusConflict)
		p, _ := s.Profiles().GetByID(ctx, "u1")
		assert.Equal(t, domain.RoleJobSeeker, p.Role)
	})

	t.Run("Unknown role is rejected", func(t *testing.T) {
		uc := usecase.NewProfileUsecase(newMemStore().Profiles())

		_, err := uc.Onboard(ctx, "u1", "a@b.com", domain.OnboardInput{Role: "admin"})

		requireStatus(t, err, http.StatusBadRequest)
	})
}

func TestAcceptTerms(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.addJobSeeker("seeker", "seeker@example.com", 0)
	uc := usecase.NewProfileUsecase(s.Profiles())

	first, err := uc.AcceptTerms(ctx, "seeker")
	require.NoError(t, err)
	second, err := uc.AcceptTerms(ctx, "seeker")
	require.NoError(t, err)

	assert.True(t, second.HasAcceptedTerms)
	assert.Equal(t, first.TermsAcceptedAt, second.TermsAcceptedAt)

	_, err = uc.AcceptTerms(ctx, "nobody")
	requireStatus(t, err, http.StatusNotFound)
}
