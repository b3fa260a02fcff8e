package v1

import (
	"net/http"
	"strconv"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobUC domain.JobUsecase
}

func NewJobHandler(public *gin.RouterGroup, protected *gin.RouterGroup, jobUC domain.JobUsecase) {
	handler := &JobHandler{jobUC: jobUC}

	// Public listing only ever returns active jobs
	public.GET("/jobs", handler.List)
	public.GET("/jobs/:id", handler.GetDetails)

	protected.POST("/jobs", handler.Create)
	protected.PATCH("/jobs/:id/active", handler.SetActive)
	protected.GET("/employees/jobs", handler.ListMine)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// Create godoc
// @Summary      Post a job
// @Description  Verified employees post a referral opening for their own company
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job  body      domain.CreateJobInput  true  "Job"
// @Success      201  {object}  response.Response{data=domain.Job}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /jobs [post]
// @Security     BearerAuth
func (h *JobHandler) Create(c *gin.Context) {
	var input domain.CreateJobInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationFailed(c, err)
		return
	}

	job, err := h.jobUC.CreateJob(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Job created", job)
}

// List godoc
// @Summary      List active jobs
// @Tags         jobs
// @Produce      json
// @Param        page       query     int  false  "Page number"
// @Param        page_size  query     int  false  "Page size"
// @Success      200        {object}  response.Response{data=domain.PaginatedResult[domain.Job]}
// @Router       /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	jobs, total, err := h.jobUC.ListActiveJobs(c.Request.Context(), page, pageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, pageSize = max(page, 1), min(max(pageSize, 1), 100)
	response.Success(c, http.StatusOK, "Job list", domain.NewPaginatedResult(jobs, total, page, pageSize))
}

// GetDetails godoc
// @Summary      Job details
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  response.Response{data=domain.Job}
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetDetails(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	job, err := h.jobUC.GetJob(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job details", job)
}

// SetActive godoc
// @Summary      Open or close a job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id    path      int               true  "Job ID"
// @Param        body  body      setActiveRequest  true  "New state"
// @Success      200   {object}  response.Response{data=domain.Job}
// @Failure      403   {object}  response.Response
// @Router       /jobs/{id}/active [patch]
// @Security     BearerAuth
func (h *JobHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	job, err := h.jobUC.SetJobActive(c.Request.Context(), currentUserID(c), id, *req.IsActive)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job updated", job)
}

// ListMine godoc
// @Summary      Jobs posted by the current employee
// @Tags         jobs
// @Produce      json
// @Success      200  {object}  response.Response{data=[]domain.Job}
// @Router       /employees/jobs [get]
// @Security     BearerAuth
func (h *JobHandler) ListMine(c *gin.Context) {
	jobs, err := h.jobUC.ListMyJobs(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "My jobs", jobs)
}
