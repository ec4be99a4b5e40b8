package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
)

// Gin context keys.
const (
	CtxUserKey      = "user"
	CtxUserIDKey    = "userID"
	CtxRequestIDKey = "request_id"
	CtxRealIPKey    = "real_ip"
)

// CurrentUser returns the principal attached by Protect, or nil.
func CurrentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxUserKey); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}

// SetUser attaches the principal for the rest of the chain.
func SetUser(c *gin.Context, u *entity.User) {
	c.Set(CtxUserKey, u)
	c.Set(CtxUserIDKey, u.ID)
}

// TokenFromRequest reads the credential from an "Authorization: Bearer"
// header, falling back to the session cookie.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if v, err := c.Cookie(helpers.TokenCookie); err == nil {
		return v
	}
	return ""
}

// Protect authenticates the request and attaches the principal.
func Protect(auth *application.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := auth.Authenticate(c.Request.Context(), TokenFromRequest(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		SetUser(c, u)
		c.Next()
	}
}

// RestrictTo lets through principals holding one of roles. It must run
// after Protect.
func RestrictTo(auth *application.AuthService, roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authorize(CurrentUser(c), roles...); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
