package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/ex-server/internal/pkg/apperror"
)

type stubAuth struct {
	userID uuid.UUID
	err    error
	admin  bool
	gotTok string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	s.gotTok = token
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return s.userID, nil
}

func (s *stubAuth) IsAdmin(context.Context, uuid.UUID) bool {
	return s.admin
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.MustGet(ContextUserIDKey)})
	})...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		header     string
		auth       *stubAuth
		wantStatus int
		wantBody   string
		wantToken  string
	}{
		{
			name:       "valid bearer",
			header:     "Bearer abc.def.ghi",
			auth:       &stubAuth{userID: userID},
			wantStatus: http.StatusOK,
			wantBody:   userID.String(),
			wantToken:  "abc.def.ghi",
		},
		{
			name:       "missing header",
			auth:       &stubAuth{err: apperror.ErrAccessTokenMissing},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Access token is missing",
		},
		{
			name:       "not a bearer scheme",
			header:     "Basic dXNlcjpwYXNz",
			auth:       &stubAuth{err: apperror.ErrAccessTokenMissing},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer broken",
			auth:       &stubAuth{err: apperror.ErrInvalidToken},
			wantStatus: http.StatusForbidden,
			wantBody:   "Invalid token",
			wantToken:  "broken",
		},
		{
			name:       "user gone",
			header:     "Bearer orphan",
			auth:       &stubAuth{err: apperror.ErrTokenUserGone},
			wantStatus: http.StatusNotFound,
			wantBody:   "Invalid token",
			wantToken:  "orphan",
		},
		{
			name:       "store failure is masked",
			header:     "Bearer tok",
			auth:       &stubAuth{err: errors.New("connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   internalErrorMessage,
			wantToken:  "tok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(AuthMiddleware(tt.auth))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, tt.wantToken, tt.auth.gotTok)
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func TestAdminOnly(t *testing.T) {
	userID := uuid.New()

	t.Run("admin passes", func(t *testing.T) {
		auth := &stubAuth{userID: userID, admin: true}
		r := newRouter(AuthMiddleware(auth), AdminOnly(auth))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non admin is rejected", func(t *testing.T) {
		auth := &stubAuth{userID: userID}
		r := newRouter(AuthMiddleware(auth), AdminOnly(auth))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	})

	t.Run("no authenticated user", func(t *testing.T) {
		r := newRouter(AdminOnly(&stubAuth{admin: true}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestErrorHandler_RendersAttachedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) { _ = c.Error(apperror.ErrUserNotFound) })
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("sql: no rows")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := NewRateLimitStore(nil)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RateLimitMiddleware(store, 2, 10*time.Minute))
	r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	second := send()
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := send()
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.JSONEq(t, `{"error":"Too many attempts from this IP, please try again after 10 minutes"}`, third.Body.String())
}

func TestHumanPeriod(t *testing.T) {
	assert.Equal(t, "1 minute", humanPeriod(time.Minute))
	assert.Equal(t, "10 minutes", humanPeriod(10*time.Minute))
	assert.Equal(t, "30s", humanPeriod(30*time.Second))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/health", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))
}
