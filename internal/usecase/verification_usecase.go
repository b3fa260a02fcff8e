package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"referral-backend/internal/domain"
	"referral-backend/pkg/analysis"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/logger"
	"referral-backend/pkg/metrics"
	"referral-backend/pkg/storage"
)

const employmentPrompt = `You are a strict Background Verification officer. Analyze the attached employment document
(offer letter, payslip, employee ID card or similar) and compare it with the claimed details.

Claimed name: %s
Claimed company: %s
Claimed role: %s

Check that the document looks authentic, that the name matches the claimed name and that the company
matches the claimed company. Minor formatting differences are acceptable.

Respond with strict JSON only, no markdown, using exactly this shape:
{"is_verified": <boolean>, "confidence_score": <number 0-100>, "extracted_name": "<string>", "extracted_company": "<string>", "reasoning": "<short explanation>"}`

type verificationUsecase struct {
	profileRepo    domain.ProfileRepository
	analyzer       domain.Analyzer
	store          domain.ObjectStore
	documentBucket string
}

func NewVerificationUsecase(
	profileRepo domain.ProfileRepository,
	analyzer domain.Analyzer,
	store domain.ObjectStore,
	documentBucket string,
) domain.VerificationUsecase {
	return &verificationUsecase{
		profileRepo:    profileRepo,
		analyzer:       analyzer,
		store:          store,
		documentBucket: documentBucket,
	}
}

// VerifyEmployment runs the automated document check. It only ever decides
// verified or pending; rejection is a manual administrator action.
func (u *verificationUsecase) VerifyEmployment(ctx context.Context, accountID string, input domain.VerifyEmploymentInput) (*domain.VerificationResult, error) {
	employee, err := loadEmployee(ctx, u.profileRepo, accountID, "verify employment")
	if err != nil {
		return nil, err
	}
	if err := employee.CanVerify(); err != nil {
		return nil, capabilityError(err)
	}
	if len(input.Document.Data) == 0 {
		return nil, apperror.BadRequest("Verification document is required")
	}
	if u.analyzer == nil {
		return nil, apperror.New(http.StatusServiceUnavailable, "Employment verification is not available", nil)
	}

	// 1. Store the document; failure only drops the URL
	documentURL := u.storeDocument(ctx, accountID, input.Document)

	// 2. Ask the analysis capability for a structured verdict
	prompt := fmt.Sprintf(employmentPrompt, input.ClaimedName, input.ClaimedCompany, input.ClaimedRole)
	start := time.Now()
	text, err := u.analyzer.Generate(ctx, prompt, &input.Document)
	metrics.ObserveExternalCall("analysis", start, err)
	if err != nil {
		return nil, apperror.BadGateway("Verification service failed", err)
	}

	var verdict domain.EmploymentAnalysis
	if err := analysis.DecodeJSON(text, &verdict); err != nil {
		logger.Log.Warn("unparseable verification response", "account_id", accountID, "error", err)
		return nil, apperror.BadGateway("Failed to parse verification response", err)
	}

	// 3. Apply the decision policy and persist unconditionally
	status := verdict.Decide()
	update := domain.VerificationUpdate{
		Status:      status,
		IsVerified:  status == domain.VerificationStatusVerified,
		Score:       verdict.Score(),
		Feedback:    verdict.Reasoning,
		FullName:    strings.TrimSpace(input.ClaimedName),
		Company:     strings.TrimSpace(input.ClaimedCompany),
		DocumentURL: documentURL,
	}
	if err := u.profileRepo.UpdateVerification(ctx, accountID, update); err != nil {
		return nil, apperror.Internal(err)
	}

	metrics.RecordVerificationDecision(string(status))
	logger.Log.Info("employment verification processed",
		"account_id", accountID, "status", status, "score", update.Score)

	result := &domain.VerificationResult{
		Status:      status,
		Score:       update.Score,
		Feedback:    verdict.Reasoning,
		DocumentURL: documentURL,
	}
	if status == domain.VerificationStatusVerified {
		result.Message = "Employment verified successfully"
	} else {
		result.Message = "Verification submitted for manual review"
	}
	return result, nil
}

func (u *verificationUsecase) storeDocument(ctx context.Context, accountID string, doc domain.Document) *string {
	if u.store == nil {
		return nil
	}

	data, contentType, ext := doc.Data, doc.ContentType, storage.Extension(doc.Filename, doc.ContentType)
	if storage.IsImage(contentType) {
		compressed, err := storage.CompressImage(data, storage.MaxImageDimension, storage.JPEGQuality)
		if err != nil {
			logger.Log.Warn("image compression failed, storing original", "account_id", accountID, "error", err)
		} else {
			data, contentType, ext = compressed, "image/jpeg", "jpg"
		}
	}

	key := fmt.Sprintf("%s/%d.%s", accountID, time.Now().UnixMilli(), ext)
	start := time.Now()
	url, err := u.store.Put(ctx, u.documentBucket, key, contentType, data)
	metrics.ObserveExternalCall("storage", start, err)
	if err != nil {
		logger.Log.Warn("verification document upload failed", "account_id", accountID, "error", err)
		return nil
	}
	return &url
}
