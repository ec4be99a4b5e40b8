package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tourhub-api/pkg/apperror"
	"github.com/oksasatya/tourhub-api/pkg/validation"
)

// bindJSON decodes the request body into dst. Decoding problems become a
// validation error.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperror.Validation("Invalid input data", validation.ToDetails(err))
	}
	return nil
}

// fail hands err to the error handler middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
