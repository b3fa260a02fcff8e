package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	WebhookSignatureHeader = "X-Webhook-Signature"
	maxWebhookBody         = 1 << 20
)

// SignWebhookBody returns the hex HMAC-SHA256 of body. Senders put it in
// X-Webhook-Signature, optionally prefixed with "sha256=".
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookAuth rejects inbound webhooks whose body is not signed with secret.
// An empty secret rejects everything.
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reject := func(reason string) {
			security.DefaultLogger().LogWebhookRejected(c.Request.Context(), c.ClientIP(), c.GetString("RequestID"), reason)
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid webhook signature")
		}

		if secret == "" {
			reject("secret_not_configured")
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			response.AbortWithError(c, http.StatusBadRequest, "Failed to read request body")
			return
		}
		if len(body) > maxWebhookBody {
			response.AbortWithError(c, http.StatusRequestEntityTooLarge, "Webhook body too large")
			return
		}

		given := strings.TrimPrefix(strings.TrimSpace(c.GetHeader(WebhookSignatureHeader)), "sha256=")
		provided, err := hex.DecodeString(given)
		if given == "" || err != nil {
			reject("missing_signature")
			return
		}
		expected, _ := hex.DecodeString(SignWebhookBody(secret, body))
		if !hmac.Equal(provided, expected) {
			reject("signature_mismatch")
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
