package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/tourhub-api/pkg/apperror"
)

type signup struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Rating          int    `json:"rating" validate:"min=1,max=5"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()
	err := v.Struct(signup{Email: "nope", Password: "short", PasswordConfirm: "other", Rating: 9})
	require.Error(t, err)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, map[string]string{
		"email":           "must be a valid email",
		"password":        "must be at least 8 characters long",
		"passwordConfirm": "must match password",
		"rating":          "must be at most 5",
	}, appErr.Details)
}

func TestPasswordAliasReportsLengthBounds(t *testing.T) {
	v := New()
	long := strings.Repeat("x", 73)
	err := v.Struct(signup{Email: "a@b.io", Password: long, PasswordConfirm: long, Rating: 1})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"password": "must be at most 72 characters long"}, appErr.Details)
}

func TestStructAcceptsValid(t *testing.T) {
	assert.NoError(t, New().Struct(signup{
		Email: "a@b.io", Password: "pass1234", PasswordConfirm: "pass1234", Rating: 5,
	}))
}

func TestToDetailsJSONErrors(t *testing.T) {
	var dst map[string]any
	err := json.Unmarshal([]byte(`{"a":`), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}
