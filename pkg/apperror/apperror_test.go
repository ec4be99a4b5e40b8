package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("There is no document with that ID"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad", nil), http.StatusBadRequest},
		{Unauthenticated("x"), http.StatusUnauthorized},
		{InvalidCredentials("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{PageOutOfRange("x"), http.StatusNotFound},
		{InvalidOrExpiredToken("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Config("x", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Status())
		})
	}
}

func TestIsOperational(t *testing.T) {
	assert.True(t, IsOperational(Forbidden("no")))
	assert.False(t, IsOperational(Config("missing secret", nil)))
	assert.False(t, IsOperational(errors.New("boom")))
}
