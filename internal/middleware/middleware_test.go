package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tripmate/internal/models"
	"tripmate/internal/utils"
	"tripmate/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	user *models.User
	err  error
}

func (s *stubAuth) ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error) {
	return nil, s.err
}

func (s *stubAuth) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	if token != "good" {
		return nil, fmt.Errorf("%w: bad token", utils.ErrUnauthorized)
	}
	return s.user, s.err
}

func newAuthRouter(auth *stubAuth) *gin.Engine {
	router := gin.New()
	router.GET("/me", AuthRequired(auth), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": user.Email, "user_id": c.GetString(ContextUserIDKey)})
	})
	return router
}

func TestAuthRequired(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Email: "ana@example.com"}

	tests := []struct {
		name   string
		header string
		err    error
		status int
	}{
		{"valid token", "Bearer good", nil, http.StatusOK},
		{"missing header", "", nil, http.StatusUnauthorized},
		{"not bearer", "Basic good", nil, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", nil, http.StatusUnauthorized},
		{"rejected token", "Bearer bad", nil, http.StatusUnauthorized},
		{"storage down", "Bearer good", fmt.Errorf("%w: ping", utils.ErrStorage), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthRouter(&stubAuth{user: user, err: tt.err})
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), user.ID.Hex())
			} else {
				assert.NotContains(t, w.Body.String(), "ping")
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) {
		id, _ := c.Request.Context().Value(logger.RequestIDKey).(string)
		c.String(http.StatusOK, id)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://app.example.com"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryMiddleware(logger.Discard()))
	router.GET("/", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, w.Body.String(), "kaboom")
}
