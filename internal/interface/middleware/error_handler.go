package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/pkg/apperror"
	"github.com/oksasatya/tourhub-api/pkg/response"
)

const msgUnexpected = "Something went very wrong!"

// ErrorHandler writes the response for the last error handlers pushed with
// c.Error. Operational errors keep their status and message; anything else is
// logged and answered with an opaque 500.
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		fields := logrus.Fields{
			"request_id": c.GetString(CtxRequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}

		if apperror.IsOperational(err) {
			appErr, _ := apperror.As(err)
			logger.WithFields(fields).WithField("kind", appErr.Kind.String()).Debug(appErr.Message)
			response.Error(c, appErr.Status(), appErr.Message, appErr.Details)
			return
		}

		if ctxErr := c.Request.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// client went away
			logger.WithFields(fields).Info("request cancelled")
			c.Status(499)
			return
		}
		logger.WithError(err).WithFields(fields).Error("unexpected error")
		response.Error(c, http.StatusInternalServerError, msgUnexpected, nil)
	}
}

// NoRoute answers unknown paths with the not found error.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperror.NotFound("Can't find " + c.Request.URL.Path + " on this server!"))
	}
}
