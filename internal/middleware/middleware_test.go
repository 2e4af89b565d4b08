package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inkwell/internal/model"
	"inkwell/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newIdentityRouter(resolver *IdentityResolver) (*gin.Engine, *model.Identity) {
	gin.SetMode(gin.TestMode)
	got := &model.Identity{}

	r := gin.New()
	r.Use(resolver.Middleware())
	r.GET("/who", func(c *gin.Context) {
		*got = resolver.Resolve(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/staff", RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, got
}

func TestResolveMintsSessionCookie(t *testing.T) {
	r, got := newIdentityRouter(NewIdentityResolver(testSecret, "sessionid", 3600, false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/who", nil))

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, got.IsAuthenticated())
	assert.Len(t, got.SessionKey, 32)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sessionid", cookies[0].Name)
	assert.Equal(t, got.SessionKey, cookies[0].Value)
}

func TestResolveReusesExistingSession(t *testing.T) {
	r, got := newIdentityRouter(NewIdentityResolver(testSecret, "sessionid", 3600, false))

	req := httptest.NewRequest("GET", "/who", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "abc123"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc123", got.SessionKey)
	assert.Empty(t, w.Result().Cookies())
}

func TestBearerTokenWinsOverSession(t *testing.T) {
	r, got := newIdentityRouter(NewIdentityResolver(testSecret, "sessionid", 3600, false))
	token, err := util.GenerateToken(5, "ana", false, testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/who", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "abc123"})
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, uint(5), got.UserID)
	assert.Empty(t, got.SessionKey)
	assert.Equal(t, "user:5", got.Key())
}

func TestRequireStaff(t *testing.T) {
	r, _ := newIdentityRouter(NewIdentityResolver(testSecret, "sessionid", 3600, false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/staff", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	reader, _ := util.GenerateToken(5, "ana", false, testSecret, time.Hour)
	req := httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+reader)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	staff, _ := util.GenerateToken(6, "ed", true, testSecret, time.Hour)
	req = httptest.NewRequest("GET", "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(1, 2).Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRecoveryReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
