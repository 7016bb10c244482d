package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const secret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, subject, issuer string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		userID, _ := middleware.GetUserIDFromContext(c)
		c.String(http.StatusOK, userID)
	})
	return r
}

func get(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(middleware.AuthMiddleware(secret, "identity"))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + signToken(t, "staff-1", "identity", time.Now().Add(time.Hour)), http.StatusOK, "staff-1"},
		{"missing header", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Bearer {token}"},
		{"expired", "Bearer " + signToken(t, "staff-1", "identity", time.Now().Add(-time.Minute)), http.StatusUnauthorized, "expired"},
		{"wrong issuer", "Bearer " + signToken(t, "staff-1", "someone-else", time.Now().Add(time.Hour)), http.StatusUnauthorized, "Invalid token"},
		{"no subject", "Bearer " + signToken(t, "", "identity", time.Now().Add(time.Hour)), http.StatusUnauthorized, "Invalid token claims"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestStructuredLoggingMiddleware_RequestID(t *testing.T) {
	r := newRouter()

	w := get(r, "")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestRateLimit_PerUser(t *testing.T) {
	rate := limiter.Rate{Period: time.Minute, Limit: 2}
	r := newRouter(
		middleware.AuthMiddleware(secret, ""),
		middleware.RateLimit(limiter.New(memory.NewStore(), rate)),
	)
	alice := "Bearer " + signToken(t, "alice", "", time.Now().Add(time.Hour))
	bob := "Bearer " + signToken(t, "bob", "", time.Now().Add(time.Hour))

	assert.Equal(t, http.StatusOK, get(r, alice).Code)
	w := get(r, alice)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, alice).Code)

	assert.Equal(t, http.StatusOK, get(r, bob).Code, "limits are kept per user")
}
