package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/infrastructure/memory"
	"github.com/oksasatya/tourhub-api/pkg/apperror"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
	"github.com/oksasatya/tourhub-api/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type body struct {
	Status    string          `json:"status"`
	RequestID string          `json:"request_id"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

type authFixture struct {
	auth   *application.AuthService
	users  *memory.UserRepository
	logger *logrus.Logger
	hook   *test.Hook
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	users := memory.NewUserRepository()
	tokens := helpers.NewJWTManager("test-secret", time.Hour, 10*time.Minute)
	hasher := helpers.NewPasswordHasher(bcrypt.MinCost, 2)
	auth := application.NewAuthService(users, tokens, hasher, nil, validation.New(), logger, "http://localhost/reset")
	return &authFixture{auth: auth, users: users, logger: logger, hook: hook}
}

func (f *authFixture) user(t *testing.T, id string, role entity.Role) (*entity.User, string) {
	t.Helper()
	u := &entity.User{Name: "Test " + id, Email: id + "@example.com", Role: role, Active: true}
	u.ID = id
	u.Normalize()
	require.NoError(t, f.users.Insert(context.Background(), u))
	token, _, err := f.auth.Tokens.Issue(id)
	require.NoError(t, err)
	return u, token
}

func (f *authFixture) engine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(f.logger))
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"id": CurrentUser(c).ID}})
	})
	r.GET("/guarded", handlers...)
	r.NoRoute(NoRoute())
	return r
}

func TestProtectCarriers(t *testing.T) {
	f := newAuthFixture(t)
	_, token := f.user(t, "u1", entity.RoleUser)
	r := f.engine(Protect(f.auth))

	t.Run("bearer header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"u1"}`, string(decode(t, w).Data))
	})

	t.Run("cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.AddCookie(&http.Cookie{Name: helpers.TokenCookie, Value: token})
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		b := decode(t, w)
		assert.Equal(t, "fail", b.Status)
		assert.Equal(t, "You are not logged in! Please log in to get access.", b.Message)
		assert.Equal(t, w.Header().Get(RequestIDHeader), b.RequestID)
	})

	t.Run("logged out cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.AddCookie(&http.Cookie{Name: helpers.TokenCookie, Value: "loggedout"})
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRestrictTo(t *testing.T) {
	f := newAuthFixture(t)
	_, userToken := f.user(t, "u1", entity.RoleUser)
	_, adminToken := f.user(t, "a1", entity.RoleAdmin)
	r := f.engine(Protect(f.auth), RestrictTo(f.auth, entity.RoleAdmin))

	call := func(token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		return w
	}

	w := call(userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You do not have permission to perform this action", decode(t, w).Message)

	assert.Equal(t, http.StatusOK, call(adminToken).Code)
}

func TestErrorHandlerHidesUnexpected(t *testing.T) {
	f := newAuthFixture(t)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(f.logger))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: relation users does not exist"))
	})
	r.GET("/config", func(c *gin.Context) {
		_ = c.Error(apperror.Config("missing secret", nil))
	})
	r.GET("/validation", func(c *gin.Context) {
		_ = c.Error(apperror.Validation("Invalid input data", map[string]string{"name": "is required"}))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	b := decode(t, w)
	assert.Equal(t, "error", b.Status)
	assert.Equal(t, "Something went very wrong!", b.Message)
	assert.NotContains(t, w.Body.String(), "pq:")
	require.NotNil(t, f.hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, f.hook.LastEntry().Level)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/config", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "missing secret")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/validation", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"details":{"name":"is required"}`)
}

func TestNoRoute(t *testing.T) {
	f := newAuthFixture(t)
	r := f.engine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Can't find /api/v1/nothing on this server!", decode(t, w).Message)
}

func TestRequestIDReusesValidHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestIDKey)) })

	const incoming = "3f2c6a53-8f3e-4c1a-9b0e-0d6f6f3c2b11"
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
}

func TestRealIPAndRateLimitPassThrough(t *testing.T) {
	r := gin.New()
	r.Use(RealIP(), RateLimit(nil, 1, time.Minute, KeyByIP(), nil))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "203.0.113.7", w.Body.String())
	}
}

func TestKeyFuncs(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
	c.Set(CtxRealIPKey, "198.51.100.2")

	assert.Equal(t, "rl:ip:198.51.100.2", KeyByIP()(c))
	assert.Equal(t, "rl:path:/api/v1/users/login:ip:198.51.100.2", KeyByIPAndPath()(c))
	assert.Equal(t, "rl:user:anon:ip:198.51.100.2", KeyByUserID()(c))
	c.Set(CtxUserIDKey, "u1")
	assert.Equal(t, "rl:user:u1", KeyByUserID()(c))
	assert.False(t, AllowPrivateIP()(c))
	c.Set(CtxRealIPKey, "10.1.2.3")
	assert.True(t, AllowPrivateIP()(c))
}
