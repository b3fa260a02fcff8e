package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// ErrNotConfigured is returned when key id or secret is missing.
var ErrNotConfigured = errors.New("payment provider not configured")

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// RazorpayClient mints orders and verifies checkout signatures.
type RazorpayClient struct {
	cfg        RazorpayConfig
	httpClient *http.Client
}

func NewRazorpayClient(cfg RazorpayConfig) *RazorpayClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com"
	}
	return &RazorpayClient{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

func (c *RazorpayClient) KeyID() string {
	return c.cfg.KeyID
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder creates an order for amountMinor (paise) and returns its id.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	if c.cfg.KeyID == "" || c.cfg.KeySecret == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(orderRequest{Amount: amountMinor, Currency: currency, Receipt: receipt})
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build order request: %w", err)
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read razorpay response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("razorpay returned %d: %s", resp.StatusCode, gjson.GetBytes(raw, "error.description").String())
	}

	id := gjson.GetBytes(raw, "id").String()
	if id == "" {
		return "", errors.New("razorpay response missing order id")
	}
	return id, nil
}

// VerifySignature checks the checkout signature in constant time.
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) bool {
	if c.cfg.KeySecret == "" {
		return false
	}
	return VerifySignature(c.cfg.KeySecret, orderID, paymentID, signature)
}

// Sign returns hex(HMAC-SHA256(secret, orderID|paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
