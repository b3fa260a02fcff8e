package v1

import (
	"net/http"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentUC domain.PaymentUsecase
}

// NewPaymentHandler registers plan listing, order creation and verification.
// Verification is public: the provider signature authenticates it.
func NewPaymentHandler(public, protected *gin.RouterGroup, paymentUC domain.PaymentUsecase, verifyLimit gin.HandlerFunc) {
	handler := &PaymentHandler{paymentUC: paymentUC}

	public.GET("/plans", handler.ListPlans)
	public.POST("/payments/verify", verifyLimit, handler.Verify)
	protected.POST("/payments/orders", handler.CreateOrder)
}

// ListPlans godoc
// @Summary      Token plans
// @Tags         payments
// @Produce      json
// @Success      200  {object}  response.Response{data=[]domain.Plan}
// @Router       /plans [get]
func (h *PaymentHandler) ListPlans(c *gin.Context) {
	response.Success(c, http.StatusOK, "Token plans", h.paymentUC.ListPlans())
}

// CreateOrder godoc
// @Summary      Create a payment order
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body  body      domain.CreateOrderInput  true  "Plan"
// @Success      201   {object}  response.Response{data=domain.OrderResult}
// @Failure      400   {object}  response.Response
// @Failure      502   {object}  response.Response
// @Router       /payments/orders [post]
// @Security     BearerAuth
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var input domain.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationFailed(c, err)
		return
	}

	order, err := h.paymentUC.CreateOrder(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Order created", order)
}

// Verify godoc
// @Summary      Verify a payment and credit tokens
// @Description  Idempotent: a repeated call for a processed order credits nothing
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body  body      domain.VerifyPaymentInput  true  "Checkout result"
// @Success      200   {object}  response.Response{data=domain.VerifyPaymentResult}
// @Failure      400   {object}  response.Response "Invalid signature"
// @Failure      404   {object}  response.Response
// @Router       /payments/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	var input domain.VerifyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationFailed(c, err)
		return
	}

	result, err := h.paymentUC.VerifyPayment(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	message := "Payment verified"
	if result.AlreadyProcessed {
		message = "Payment already processed"
	}
	response.Success(c, http.StatusOK, message, result)
}
