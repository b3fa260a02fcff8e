package domain

import (
	"context"
	"math"
)

type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "unverified"
	VerificationStatusPending    VerificationStatus = "pending"
	VerificationStatusVerified   VerificationStatus = "verified"
	VerificationStatusRejected   VerificationStatus = "rejected"
)

// AutoVerifyThreshold is the minimum confidence for automatic verification.
const AutoVerifyThreshold = 90

// EmploymentAnalysis is the strict JSON verdict requested from the analysis model.
type EmploymentAnalysis struct {
	IsVerified       bool    `json:"is_verified"`
	ConfidenceScore  float64 `json:"confidence_score"`
	ExtractedName    string  `json:"extracted_name"`
	ExtractedCompany string  `json:"extracted_company"`
	Reasoning        string  `json:"reasoning"`
}

// Decide never returns rejected: low confidence goes to manual review.
func (a EmploymentAnalysis) Decide() VerificationStatus {
	if a.IsVerified && a.ConfidenceScore >= AutoVerifyThreshold {
		return VerificationStatusVerified
	}
	return VerificationStatusPending
}

// Score truncates so a stored score of 90 always means the threshold was met.
func (a EmploymentAnalysis) Score() int {
	return min(max(int(math.Floor(a.ConfidenceScore)), 0), 100)
}

// Document is an uploaded file held in memory.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

type VerifyEmploymentInput struct {
	ClaimedName    string   `form:"fullName" binding:"required,max=120,valid_name"`
	ClaimedCompany string   `form:"company" binding:"required,max=120"`
	ClaimedRole    string   `form:"role" binding:"max=120"`
	Document       Document `form:"-"`
}

type VerificationResult struct {
	Status      VerificationStatus `json:"status"`
	Score       int                `json:"score"`
	Feedback    string             `json:"feedback"`
	DocumentURL *string            `json:"document_url,omitempty"`
	Message     string             `json:"message"`
}

// Analyzer is the multimodal analysis capability. It returns free text that is
// expected to contain one JSON object.
type Analyzer interface {
	Generate(ctx context.Context, prompt string, attachment *Document) (string, error)
}

// ObjectStore persists uploaded documents.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, bucket, key string) ([]byte, string, error)
}

type VerificationUsecase interface {
	VerifyEmployment(ctx context.Context, accountID string, input VerifyEmploymentInput) (*VerificationResult, error)
}

// VerificationAction is an administrator's manual decision.
type VerificationAction string

const (
	VerificationActionVerify VerificationAction = "verify"
	VerificationActionReject VerificationAction = "reject"
)

type AdminUsecase interface {
	ListPendingVerifications(ctx context.Context) ([]Profile, error)
	ResolveVerification(ctx context.Context, profileID string, action VerificationAction) (*Profile, error)
	BanUser(ctx context.Context, profileID, reason string) (*Profile, error)
	ExportTransactions(ctx context.Context) ([]byte, error)
}
