package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type validatorStub struct{}

func (validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "hod-token":
		return &models.JWTClaims{UserID: "u-hod", Role: models.RoleHOD, DepartmentID: "cs"}, nil
	case "faculty-token":
		return &models.JWTClaims{UserID: "u-fac", Role: models.RoleFaculty}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newTestEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/users/:id", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": Claims(c).UserID})
	})...)
	return r
}

func perform(r http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	r := newTestEngine(JWT(validatorStub{}))

	assert.Equal(t, http.StatusUnauthorized, perform(r, "/users/u-hod", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "/users/u-hod", "Token hod-token").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "/users/u-hod", "Bearer expired").Code)

	w := perform(r, "/users/u-hod", "Bearer hod-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u-hod"}`, w.Body.String())
}

func TestRBACMiddleware(t *testing.T) {
	r := newTestEngine(JWT(validatorStub{}), RBAC(string(models.RoleHOD)))

	assert.Equal(t, http.StatusOK, perform(r, "/users/other", "Bearer hod-token").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "/users/other", "Bearer faculty-token").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "/users/u-fac", "Bearer faculty-token").Code, "matching the path id grants nothing")

	strict := newTestEngine(JWT(validatorStub{}), RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, perform(strict, "/users/u-hod", "Bearer hod-token").Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	r := newTestEngine(RBAC(string(models.RoleAdmin)))
	assert.Equal(t, http.StatusUnauthorized, perform(r, "/users/u-hod", "").Code)
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(nil))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := perform(r, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestResponseMetaWarnings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var captured map[string]interface{}
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		AddWarnings(c)
		AddWarnings(c, "first")
		AddWarnings(c, "second")
		captured = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	perform(r, "/", "")
	require.NotNil(t, captured)
	assert.Equal(t, []string{"first", "second"}, captured["warnings"])
	assert.Contains(t, captured, "processing_time_ms")
}

func TestMetricsMiddlewareLabelsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/timetables/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, "/health", "")
	perform(r, "/timetables/tt-1", "")
	perform(r, "/timetables/tt-2", "")
	perform(r, "/nowhere", "")

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `path="/timetables/:id"`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, `path="/health"`)
}
