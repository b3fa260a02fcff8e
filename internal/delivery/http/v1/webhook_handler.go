package v1

import (
	"net/http"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	referralUC domain.ReferralUsecase
}

// NewWebhookHandler mounts the inbound email webhook behind the given guards
// (signature check, rate limit).
func NewWebhookHandler(public *gin.RouterGroup, referralUC domain.ReferralUsecase, guards ...gin.HandlerFunc) {
	handler := &WebhookHandler{referralUC: referralUC}
	public.POST("/webhooks/inbound-email", append(guards, handler.InboundEmail)...)
}

// InboundEmail godoc
// @Summary      Inbound email to a proxy address
// @Description  Confirms the referral and forwards the message to the candidate.
// @Description  Requires X-Webhook-Signature: hex HMAC-SHA256 of the raw body.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Signature  header    string                 true  "Body signature"
// @Param        body                 body      domain.InboundMessage  true  "Parsed email"
// @Success      200                  {object}  response.Response{data=domain.InboundResult}
// @Failure      401                  {object}  response.Response
// @Failure      404                  {object}  response.Response
// @Router       /webhooks/inbound-email [post]
func (h *WebhookHandler) InboundEmail(c *gin.Context) {
	var msg domain.InboundMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		validationFailed(c, err)
		return
	}

	result, err := h.referralUC.HandleInboundMessage(c.Request.Context(), msg)
	if err != nil {
		_ = c.Error(err)
		return
	}
	message := "Referral confirmed"
	if result.Duplicate {
		message = "Referral already confirmed"
	}
	response.Success(c, http.StatusOK, message, result)
}
