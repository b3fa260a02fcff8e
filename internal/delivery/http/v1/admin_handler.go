package v1

import (
	"fmt"
	"net/http"
	"time"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	adminUC domain.AdminUsecase
}

// NewAdminHandler expects an admin-only group.
func NewAdminHandler(admin *gin.RouterGroup, adminUC domain.AdminUsecase) {
	handler := &AdminHandler{adminUC: adminUC}

	admin.GET("/verifications", handler.ListPending)
	admin.POST("/profiles/:id/verification", handler.ResolveVerification)
	admin.POST("/profiles/:id/ban", handler.Ban)
	admin.GET("/transactions/export", handler.ExportTransactions)
}

type resolveVerificationRequest struct {
	Action string `json:"action" binding:"required,oneof=verify reject"`
}

type banRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListPending godoc
// @Summary      Verifications awaiting review
// @Tags         admin
// @Produce      json
// @Success      200  {object}  response.Response{data=[]domain.Profile}
// @Failure      403  {object}  response.Response
// @Router       /admin/verifications [get]
// @Security     BearerAuth
func (h *AdminHandler) ListPending(c *gin.Context) {
	profiles, err := h.adminUC.ListPendingVerifications(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Pending verifications", profiles)
}

// ResolveVerification godoc
// @Summary      Verify or reject an employee
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "Profile ID"
// @Param        body  body      resolveVerificationRequest  true  "Decision"
// @Success      200   {object}  response.Response{data=domain.Profile}
// @Router       /admin/profiles/{id}/verification [post]
// @Security     BearerAuth
func (h *AdminHandler) ResolveVerification(c *gin.Context) {
	var req resolveVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	profile, err := h.adminUC.ResolveVerification(c.Request.Context(), c.Param("id"), domain.VerificationAction(req.Action))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Verification updated", profile)
}

// Ban godoc
// @Summary      Ban an account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string      true  "Profile ID"
// @Param        body  body      banRequest  true  "Reason"
// @Success      200   {object}  response.Response{data=domain.Profile}
// @Router       /admin/profiles/{id}/ban [post]
// @Security     BearerAuth
func (h *AdminHandler) Ban(c *gin.Context) {
	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	profile, err := h.adminUC.BanUser(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Account banned", profile)
}

// ExportTransactions godoc
// @Summary      Export the payment ledger
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    binary
// @Router       /admin/transactions/export [get]
// @Security     BearerAuth
func (h *AdminHandler) ExportTransactions(c *gin.Context) {
	data, err := h.adminUC.ExportTransactions(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
