package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/logger"
	"referral-backend/pkg/security"

	"github.com/xuri/excelize/v2"
)

type adminUsecase struct {
	profileRepo     domain.ProfileRepository
	transactionRepo domain.TransactionRepository
	logger          *security.SecurityLogger
}

func NewAdminUsecase(profileRepo domain.ProfileRepository, transactionRepo domain.TransactionRepository) domain.AdminUsecase {
	return &adminUsecase{
		profileRepo:     profileRepo,
		transactionRepo: transactionRepo,
		logger:          security.DefaultLogger(),
	}
}

func (u *adminUsecase) ListPendingVerifications(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := u.profileRepo.ListByVerificationStatus(ctx, domain.VerificationStatusPending)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return profiles, nil
}

// ResolveVerification is the only path that sets a profile to rejected.
func (u *adminUsecase) ResolveVerification(ctx context.Context, profileID string, action domain.VerificationAction) (*domain.Profile, error) {
	var status domain.VerificationStatus
	switch action {
	case domain.VerificationActionVerify:
		status = domain.VerificationStatusVerified
	case domain.VerificationActionReject:
		status = domain.VerificationStatusRejected
	default:
		return nil, apperror.BadRequest("Action must be verify or reject")
	}

	profile, err := loadProfile(ctx, u.profileRepo, profileID)
	if err != nil {
		return nil, err
	}
	if _, ok := profile.AsEmployee(); !ok {
		return nil, apperror.BadRequest("Only employee profiles can be verified")
	}

	if err := u.profileRepo.SetVerificationDecision(ctx, profileID, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.Wrap(errProfileMissing, err)
		}
		return nil, apperror.Internal(err)
	}

	profile.VerificationStatus = status
	profile.IsVerified = status == domain.VerificationStatusVerified
	u.logger.LogAdminAction(ctx, adminFromContext(ctx), "verification_"+string(action), profileID)
	logger.Log.Info("verification resolved", "profile_id", profileID, "status", status)
	return profile, nil
}

func (u *adminUsecase) BanUser(ctx context.Context, profileID, reason string) (*domain.Profile, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.BadRequest("Ban reason is required")
	}

	profile, err := loadProfile(ctx, u.profileRepo, profileID)
	if err != nil {
		return nil, err
	}
	if err := u.profileRepo.Ban(ctx, profileID, reason); err != nil {
		return nil, apperror.Internal(err)
	}

	profile.IsBanned = true
	profile.BanReason = &reason
	u.logger.LogAdminAction(ctx, adminFromContext(ctx), "ban", profileID)
	return profile, nil
}

var transactionExportHeaders = []string{
	"ID", "User ID", "Plan", "Amount (INR)", "Tokens", "Status", "Order ID", "Payment ID", "Created At", "Updated At",
}

// ExportTransactions renders the full ledger as an xlsx workbook.
func (u *adminUsecase) ExportTransactions(ctx context.Context) ([]byte, error) {
	txns, err := u.transactionRepo.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, apperror.Internal(err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"0F766E"}, Pattern: 1},
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	for i, h := range transactionExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, t := range txns {
		row := []any{
			t.ID, t.UserID, t.PlanID, t.Amount, t.TokensAdded, string(t.Status), t.ProviderOrderID,
			deref(t.ProviderPaymentID), t.CreatedAt.Format("2006-01-02 15:04:05"), t.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, apperror.Internal(fmt.Errorf("write %s: %w", cell, err))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return buf.Bytes(), nil
}

func adminFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(domain.KeyUserID).(string); ok {
		return id
	}
	return ""
}
