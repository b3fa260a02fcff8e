package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/v1/jobs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/jobs/:id", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/jobs/42", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/jobs/:id", "200")))
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(tokens.WithLabelValues("credit"))
	RecordTokensCredited(10)
	assert.Equal(t, before+10, testutil.ToFloat64(tokens.WithLabelValues("credit")))

	RecordPaymentVerification("credited")
	assert.GreaterOrEqual(t, testutil.ToFloat64(payments.WithLabelValues("credited")), 1.0)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	RecordApplicationEvent("applied")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "referral_applications_events_total"))
}
