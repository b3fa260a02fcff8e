package v1

import (
	"net/http"
	"strconv"

	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"
	"referral-backend/pkg/apperror"
	"referral-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

func currentUserID(c *gin.Context) string {
	return c.GetString(string(domain.KeyUserID))
}

// pathID parses a positive integer path parameter or records a 400.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(apperror.BadRequest("Invalid ID format"))
		return 0, false
	}
	return id, true
}

// validationFailed renders binding errors as a list of readable messages.
func validationFailed(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, "Validation failed", validation.FormatValidationErrors(err))
}
