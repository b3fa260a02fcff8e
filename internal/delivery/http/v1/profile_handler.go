package v1

import (
	"net/http"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUC domain.ProfileUsecase
}

func NewProfileHandler(protected *gin.RouterGroup, profileUC domain.ProfileUsecase) {
	handler := &ProfileHandler{profileUC: profileUC}

	protected.POST("/onboarding", handler.Onboard)
	protected.GET("/me", handler.Me)
	protected.POST("/me/terms", handler.AcceptTerms)
}

// Onboard godoc
// @Summary      Choose account role
// @Description  Creates the profile once, right after the first sign-in. The role cannot change later.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      domain.OnboardInput  true  "Role selection"
// @Success      201   {object}  response.Response{data=domain.Profile}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /onboarding [post]
// @Security     BearerAuth
func (h *ProfileHandler) Onboard(c *gin.Context) {
	var input domain.OnboardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationFailed(c, err)
		return
	}

	email := c.GetString(string(domain.KeyUserEmail))
	profile, err := h.profileUC.Onboard(c.Request.Context(), currentUserID(c), email, input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Profile created", profile)
}

// Me godoc
// @Summary      Current profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.Profile}
// @Failure      404  {object}  response.Response
// @Router       /me [get]
// @Security     BearerAuth
func (h *ProfileHandler) Me(c *gin.Context) {
	profile, err := h.profileUC.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile", profile)
}

// AcceptTerms godoc
// @Summary      Accept terms of service
// @Tags         profile
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.Profile}
// @Router       /me/terms [post]
// @Security     BearerAuth
func (h *ProfileHandler) AcceptTerms(c *gin.Context) {
	profile, err := h.profileUC.AcceptTerms(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Terms accepted", profile)
}
