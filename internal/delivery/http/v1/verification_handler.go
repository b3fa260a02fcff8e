package v1

import (
	"io"
	"net/http"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verificationUC domain.VerificationUsecase
}

func NewVerificationHandler(protected *gin.RouterGroup, uc domain.VerificationUsecase, uploadLimit gin.HandlerFunc) {
	handler := &VerificationHandler{verificationUC: uc}
	protected.POST("/verification/employment", uploadLimit, handler.VerifyEmployment)
}

// VerifyEmployment godoc
// @Summary      Verify employment
// @Description  Upload an offer letter, payslip or ID card. High-confidence matches are verified
// @Description  immediately; everything else waits for manual review.
// @Tags         verification
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName  formData  string  true   "Name on the document"
// @Param        company   formData  string  true   "Employer"
// @Param        role      formData  string  false  "Job title"
// @Param        document  formData  file    true   "PDF, JPG, PNG or WebP, max 10 MB (also accepted as \"file\")"
// @Success      200       {object}  response.Response{data=domain.VerificationResult}
// @Failure      400       {object}  response.Response
// @Failure      502       {object}  response.Response
// @Router       /verification/employment [post]
// @Security     BearerAuth
func (h *VerificationHandler) VerifyEmployment(c *gin.Context) {
	var input domain.VerifyEmploymentInput
	if err := c.ShouldBind(&input); err != nil {
		validationFailed(c, err)
		return
	}

	header, err := c.FormFile("document")
	if err != nil {
		header, err = c.FormFile("file")
	}
	if err != nil {
		_ = c.Error(apperror.BadRequest("Verification document is required"))
		return
	}
	if header.Size > security.MaxDocumentSize {
		_ = c.Error(apperror.New(http.StatusRequestEntityTooLarge, "Document must be 10 MB or smaller", nil))
		return
	}

	file, err := header.Open()
	if err != nil {
		_ = c.Error(apperror.BadRequest("Failed to read document"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, security.MaxDocumentSize+1))
	if err != nil {
		_ = c.Error(apperror.BadRequest("Failed to read document"))
		return
	}

	check, err := security.ValidateDocument(header.Filename, data)
	if err != nil {
		_ = c.Error(apperror.BadRequest(err.Error()))
		return
	}
	input.Document = domain.Document{Filename: header.Filename, ContentType: check.ContentType, Data: data}

	result, err := h.verificationUC.VerifyEmployment(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, result.Message, result)
}
