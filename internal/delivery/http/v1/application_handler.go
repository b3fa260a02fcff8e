package v1

import (
	"net/http"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applicationUC domain.ApplicationUsecase
}

// NewApplicationHandler registers application routes. apply and analysis get
// their own per-account limiters.
func NewApplicationHandler(protected *gin.RouterGroup, applicationUC domain.ApplicationUsecase, applyLimit, analysisLimit gin.HandlerFunc) {
	handler := &ApplicationHandler{applicationUC: applicationUC}

	protected.POST("/jobs/:id/apply", applyLimit, handler.Apply)
	protected.GET("/jobs/:id/applications", handler.ListForJob)
	protected.GET("/applications/me", handler.ListMine)
	protected.POST("/applications/:id/review", handler.Review)
	protected.POST("/applications/:id/analysis", analysisLimit, handler.Analyze)
}

type reviewRequest struct {
	Decision string `json:"status" binding:"required,oneof=accepted rejected"`
}

// Apply godoc
// @Summary      Apply to a job
// @Description  Spends one token and creates a pending application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "Job ID"
// @Param        body  body      domain.ApplyInput  true  "Application"
// @Success      201   {object}  response.Response{data=domain.Application}
// @Failure      400   {object}  response.Response "Insufficient tokens or inactive job"
// @Failure      409   {object}  response.Response "Already applied"
// @Router       /jobs/{id}/apply [post]
// @Security     BearerAuth
func (h *ApplicationHandler) Apply(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input domain.ApplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationFailed(c, err)
		return
	}

	app, err := h.applicationUC.Apply(c.Request.Context(), currentUserID(c), jobID, input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Application submitted", app)
}

// ListMine godoc
// @Summary      My applications
// @Tags         applications
// @Produce      json
// @Success      200  {object}  response.Response{data=[]domain.Application}
// @Router       /applications/me [get]
// @Security     BearerAuth
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	apps, err := h.applicationUC.ListMyApplications(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "My applications", apps)
}

// ListForJob godoc
// @Summary      Applicants for a job
// @Tags         applications
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  response.Response{data=[]domain.Application}
// @Failure      403  {object}  response.Response
// @Router       /jobs/{id}/applications [get]
// @Security     BearerAuth
func (h *ApplicationHandler) ListForJob(c *gin.Context) {
	jobID, ok := pathID(c, "id")
	if !ok {
		return
	}
	apps, err := h.applicationUC.ListJobApplications(c.Request.Context(), currentUserID(c), jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job applications", apps)
}

// Review godoc
// @Summary      Accept or reject an application
// @Description  Accepting issues a proxy email address the referrer writes to
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id    path      int            true  "Application ID"
// @Param        body  body      reviewRequest  true  "Decision"
// @Success      200   {object}  response.Response{data=domain.ReviewResult}
// @Failure      403   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /applications/{id}/review [post]
// @Security     BearerAuth
func (h *ApplicationHandler) Review(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}
	decision, err := domain.ParseReviewDecision(req.Decision)
	if err != nil {
		validationFailed(c, err)
		return
	}

	result, err := h.applicationUC.Review(c.Request.Context(), currentUserID(c), id, decision)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Application "+string(result.Status), result)
}

// Analyze godoc
// @Summary      AI resume match
// @Tags         applications
// @Produce      json
// @Param        id   path      int  true  "Application ID"
// @Success      200  {object}  response.Response{data=domain.ResumeAnalysis}
// @Failure      502  {object}  response.Response
// @Router       /applications/{id}/analysis [post]
// @Security     BearerAuth
func (h *ApplicationHandler) Analyze(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.applicationUC.AnalyzeResume(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Resume analysis", result)
}
