package helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oksasatya/tourhub-api/pkg/apperror"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// resetTokenBytes gives 256 bits of entropy per reset ticket.
const resetTokenBytes = 32

// TokenTimePrecision is the resolution of iat and exp in issued tokens.
// Password changes are compared against iat at this resolution.
const TokenTimePrecision = time.Millisecond

func init() {
	jwt.TimePrecision = TokenTimePrecision
}

// JWTManager issues and verifies session tokens and password reset tickets.
type JWTManager struct {
	Secret   []byte
	TTL      time.Duration
	ResetTTL time.Duration
	// Now is the clock used for issuing and verifying; defaults to time.Now.
	Now func() time.Time
}

func NewJWTManager(secret string, ttl, resetTTL time.Duration) *JWTManager {
	return &JWTManager{
		Secret:   []byte(secret),
		TTL:      ttl,
		ResetTTL: resetTTL,
		Now:      time.Now,
	}
}

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns the token issue time (zero if absent).
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

func (m *JWTManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Issue signs a token for userID that expires after the configured TTL.
func (m *JWTManager) Issue(userID string) (string, time.Time, error) {
	if len(m.Secret) == 0 {
		return "", time.Time{}, apperror.Config("jwt signing secret is not configured", nil)
	}
	now := m.now()
	exp := now.Add(m.TTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Verify parses tokenStr and returns its claims. It only ever returns
// ErrInvalidToken or ErrTokenExpired.
func (m *JWTManager) Verify(tokenStr string) (*Claims, error) {
	if len(m.Secret) == 0 {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !tkn.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueResetTicket returns a random reset value for the user, its digest for
// storage, and the ticket expiry.
func (m *JWTManager) IssueResetTicket() (plain, digest string, expiresAt time.Time, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", time.Time{}, err
	}
	plain = hex.EncodeToString(b)
	ttl := m.ResetTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return plain, DigestResetToken(plain), m.now().Add(ttl), nil
}

// DigestResetToken is the unsalted SHA-256 hex digest stored for reset tickets.
func DigestResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
