package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAllowed(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		allowed []Role
		want    bool
	}{
		{"user denied admin route", RoleUser, []Role{RoleAdmin}, false},
		{"admin allowed admin route", RoleAdmin, []Role{RoleAdmin}, true},
		{"lead guide in set", RoleLeadGuide, []Role{RoleAdmin, RoleLeadGuide}, true},
		{"empty set admits nobody", RoleAdmin, nil, false},
		{"unknown role", Role("root"), []Role{RoleAdmin}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleAllowed(tt.role, tt.allowed...))
		})
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleLeadGuide.Valid())
	assert.False(t, Role("superuser").Valid())
}

func TestPasswordChangedAfter(t *testing.T) {
	iat := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}
	assert.False(t, u.PasswordChangedAfter(iat))

	before := iat.Add(-time.Second)
	u.PasswordChangedAt = &before
	assert.False(t, u.PasswordChangedAfter(iat))

	sameMillisecond := iat.Add(400 * time.Microsecond)
	u.PasswordChangedAt = &sameMillisecond
	assert.False(t, u.PasswordChangedAfter(iat))

	sameSecond := iat.Add(300 * time.Millisecond)
	u.PasswordChangedAt = &sameSecond
	assert.True(t, u.PasswordChangedAfter(iat))

	after := iat.Add(2 * time.Second)
	u.PasswordChangedAt = &after
	assert.True(t, u.PasswordChangedAfter(iat))
}

func TestMarkPasswordChanged(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 123456789, time.FixedZone("CEST", 2*3600))
	u := &User{}
	u.MarkPasswordChanged(now)
	require.NotNil(t, u.PasswordChangedAt)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 123000000, time.UTC), *u.PasswordChangedAt)
	assert.False(t, u.PasswordChangedAfter(now))
	assert.True(t, u.PasswordChangedAfter(now.Add(-time.Millisecond)))
}

func TestUserNormalize(t *testing.T) {
	u := &User{Email: "  Jonas@Example.COM ", Name: " Jonas "}
	u.Normalize()
	assert.Equal(t, "jonas@example.com", u.Email)
	assert.Equal(t, "Jonas", u.Name)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, DefaultPhoto, u.Photo)
}

func TestTourNormalize(t *testing.T) {
	tour := &Tour{Name: " The Forest Hiker! ", RatingsAverage: 4.6666}
	tour.Normalize()
	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, 4.7, tour.RatingsAverage)

	empty := &Tour{Name: "x"}
	empty.Normalize()
	assert.Equal(t, DefaultRatingsAverage, empty.RatingsAverage)
}

func TestBaseStamp(t *testing.T) {
	var b Base
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Stamp(first)
	b.Stamp(first.Add(time.Hour))
	assert.Equal(t, first, b.CreatedAt)
	assert.Equal(t, first.Add(time.Hour), b.UpdatedAt)
}
