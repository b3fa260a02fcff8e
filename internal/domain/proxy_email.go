package domain

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	proxyAliasPrefix   = "ref-"
	proxyAliasAlphabet = "0123456789abcdef"
	proxyAliasLength   = 8
)

var proxyAliasPattern = regexp.MustCompile(`^ref-[0-9a-f]{8}@`)

// GenerateProxyAddress returns a fresh alias of the form ref-<8 hex>@domain.
func GenerateProxyAddress(domain string) (string, error) {
	id, err := gonanoid.Generate(proxyAliasAlphabet, proxyAliasLength)
	if err != nil {
		return "", fmt.Errorf("generate proxy alias: %w", err)
	}
	return proxyAliasPrefix + id + "@" + strings.ToLower(domain), nil
}

// IsProxyAddress reports whether addr has the alias shape for domain.
func IsProxyAddress(addr, domain string) bool {
	addr = NormalizeAddress(addr)
	return proxyAliasPattern.MatchString(addr) && strings.HasSuffix(addr, "@"+strings.ToLower(domain))
}

// NormalizeAddress extracts the bare address from forms like "Name <addr>"
// and lowercases it.
func NormalizeAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if parsed, err := mail.ParseAddress(raw); err == nil {
		return strings.ToLower(parsed.Address)
	}
	if i := strings.LastIndex(raw, "<"); i >= 0 {
		if j := strings.Index(raw[i:], ">"); j > 0 {
			raw = raw[i+1 : i+j]
		}
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// ProxyEmail maps a generated alias to the candidate's real address for one application.
type ProxyEmail struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	ProxyAddress  string    `json:"proxy_address"`
	RealEmail     string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

type ForwardStatus string

const (
	ForwardStatusPending ForwardStatus = "pending"
	ForwardStatusSent    ForwardStatus = "sent"
	ForwardStatusFailed  ForwardStatus = "failed"
)

// EmailForward records delivery of an inbound referral message to the candidate.
type EmailForward struct {
	ID            int64         `json:"id"`
	ProxyEmailID  int64         `json:"proxy_email_id"`
	ApplicationID int64         `json:"application_id"`
	Recipient     string        `json:"recipient"`
	Sender        string        `json:"sender"`
	Subject       string        `json:"subject"`
	Body          string        `json:"-"`
	Status        ForwardStatus `json:"status"`
	Attempts      int           `json:"attempts"`
	LastError     *string       `json:"last_error,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// InboundMessage is the payload posted by the mail-receiving provider.
type InboundMessage struct {
	To      string `json:"to" binding:"required"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type InboundResult struct {
	ApplicationID int64         `json:"application_id"`
	ForwardedTo   string        `json:"forwarded_to"`
	Duplicate     bool          `json:"duplicate"`
	ForwardStatus ForwardStatus `json:"forward_status,omitempty"`
}

// ConfirmationOutcome tells whether a referral confirmation changed state.
type ConfirmationOutcome int

const (
	ConfirmationApplied ConfirmationOutcome = iota + 1
	ConfirmationDuplicate
)

type ProxyEmailRepository interface {
	GetActiveByAddress(ctx context.Context, address string) (*ProxyEmail, error)
	GetByApplicationID(ctx context.Context, applicationID int64) (*ProxyEmail, error)
	// ConfirmReferral moves accepted → referred and records fwd in one transaction.
	// An already referred application yields ConfirmationDuplicate and no writes.
	ConfirmReferral(ctx context.Context, proxy *ProxyEmail, fwd *EmailForward) (ConfirmationOutcome, error)
}

type EmailForwardRepository interface {
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]EmailForward, error)
}

type ReferralUsecase interface {
	HandleInboundMessage(ctx context.Context, msg InboundMessage) (*InboundResult, error)
	RetryFailedForwards(ctx context.Context) (int, error)
}
