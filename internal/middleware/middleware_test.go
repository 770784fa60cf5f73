package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
)

type fakeValidator map[string]*models.JWTClaims

func (f fakeValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var testTokens = fakeValidator{
	"admin-token":   {UserID: "admin-1", Role: models.RoleAdmin},
	"student-token": {UserID: "student-1", Role: models.RoleStudent},
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAndRequireRoles(t *testing.T) {
	r := gin.New()
	r.GET("/admin", JWT(testTokens), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.UserID)
	})

	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/admin", "forged").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/admin", "student-token").Code)

	rec := perform(r, http.MethodGet, "/admin", "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin-1", rec.Body.String())
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(testTokens), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token admin-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid authorization header")
}

func TestOptionalJWT(t *testing.T) {
	r := gin.New()
	r.GET("/lessons", OptionalJWT(testTokens), func(c *gin.Context) {
		if claims, ok := CurrentUser(c); ok {
			c.String(http.StatusOK, string(claims.Role))
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	assert.Equal(t, "anonymous", perform(r, http.MethodGet, "/lessons", "").Body.String())
	assert.Equal(t, "anonymous", perform(r, http.MethodGet, "/lessons", "forged").Body.String())
	assert.Equal(t, "STUDENT", perform(r, http.MethodGet, "/lessons", "student-token").Body.String())
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/contact", RateLimit("contact", 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/contact", "").Code)
	assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/contact", "").Code)
	rec := perform(r, http.MethodPost, "/contact", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.POST("/contact", RateLimit("contact", 0, time.Minute), func(c *gin.Context) { c.Status(http.StatusCreated) })
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusCreated, perform(r, http.MethodPost, "/contact", "").Code)
	}
}

type recordingObserver struct {
	paths []string
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.paths = append(r.paths, method+" "+path)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/courses/python", "")
	perform(r, http.MethodGet, "/nowhere", "")
	assert.Equal(t, []string{"GET /courses/:id", "GET unmatched"}, observer.paths)
}

func TestResponseMeta(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/courses", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})
	r.GET("/plain", func(c *gin.Context) {
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})

	perform(r, http.MethodGet, "/courses", "")
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")

	perform(r, http.MethodGet, "/plain", "")
	assert.Nil(t, meta)
}
