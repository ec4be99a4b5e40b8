package entity

import (
	"strings"
	"time"
)

// User is the principal. PasswordHash and the reset ticket fields never leave
// the process: they carry json:"-" and are read by the storage layer only.
type User struct {
	Base              `bson:",inline"`
	Name              string     `json:"name" validate:"required,max=80"`
	Email             string     `json:"email" validate:"required,email"`
	Photo             string     `json:"photo"`
	Role              Role       `json:"role" validate:"required,oneof=user guide lead-guide admin"`
	Active            bool       `json:"active"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`

	PasswordHash           string     `json:"-"`
	PasswordResetTokenHash *string    `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`
}

// DefaultPhoto is assigned when a principal has none.
const DefaultPhoto = "default.jpg"

// Normalize lower-cases the email so lookups are case-insensitive.
func (u *User) Normalize() {
	u.Email = NormalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TimePrecision is the resolution at which password changes and token issue
// times are compared.
const TimePrecision = time.Millisecond

// PasswordChangedAfter reports whether the password changed after a token
// issued at iat.
func (u *User) PasswordChangedAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(TimePrecision).After(iat.Truncate(TimePrecision))
}

// MarkPasswordChanged records a password change at now.
func (u *User) MarkPasswordChanged(now time.Time) {
	changed := now.UTC().Truncate(TimePrecision)
	u.PasswordChangedAt = &changed
}

// ClearResetTicket drops any outstanding password reset ticket.
func (u *User) ClearResetTicket() {
	u.PasswordResetTokenHash = nil
	u.PasswordResetExpiresAt = nil
}

// UserSummary is the public projection embedded into related records.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Photo: u.Photo}
}
