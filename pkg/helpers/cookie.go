package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenCookie is the HTTP-only cookie carrying the session token.
const TokenCookie = "jwt"

// loggedOutValue replaces the token on logout. It is not a valid token.
const loggedOutValue = "loggedout"

type Manager struct {
	Domain string
	Secure bool
	// TTL is the cookie lifetime; zero follows the token expiry.
	TTL time.Duration
}

func NewCookie(domain string, secure bool, ttl time.Duration) *Manager {
	return &Manager{Domain: domain, Secure: secure, TTL: ttl}
}

// SetToken stores token in the session cookie until exp, or for TTL when set.
func (m *Manager) SetToken(c *gin.Context, token string, exp time.Time) {
	if m.TTL > 0 {
		exp = time.Now().Add(m.TTL)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, token, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
}

// ClearToken overwrites the session cookie with a dummy value that expires in
// ten seconds. The token itself stays valid until its own expiry.
func (m *Manager) ClearToken(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, loggedOutValue, 10, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
