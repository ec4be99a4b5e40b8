package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// APIResponse is the envelope of every JSON body the API writes.
type APIResponse[T any] struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Token     string    `json:"token,omitempty"`
	Results   *int      `json:"results,omitempty"`
	Data      T         `json:"data,omitempty"`
	Details   any       `json:"details,omitempty"`
}

func envelope[T any](c *gin.Context, status string) APIResponse[T] {
	return APIResponse[T]{
		Status:    status,
		RequestID: c.GetString("request_id"),
		Timestamp: time.Now().UTC(),
	}
}

// Success writes data with the given status code.
func Success[T any](c *gin.Context, code int, data T, message string) APIResponse[T] {
	if code == 0 {
		code = http.StatusOK
	}
	resp := envelope[T](c, StatusSuccess)
	resp.Data = data
	resp.Message = message
	c.JSON(code, resp)
	return resp
}

// WithToken writes data together with a freshly issued session token.
func WithToken[T any](c *gin.Context, code int, token string, data T) APIResponse[T] {
	resp := envelope[T](c, StatusSuccess)
	resp.Token = token
	resp.Data = data
	c.JSON(code, resp)
	return resp
}

// List writes a collection under data[key] along with its size.
func List[T any](c *gin.Context, key string, items []T) APIResponse[map[string][]T] {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	resp := envelope[map[string][]T](c, StatusSuccess)
	resp.Results = &n
	resp.Data = map[string][]T{key: items}
	c.JSON(http.StatusOK, resp)
	return resp
}

// Error writes a failure. 4xx codes report "fail", everything else "error".
func Error(c *gin.Context, code int, message string, details any) APIResponse[any] {
	if code == 0 {
		code = http.StatusBadRequest
	}
	status := StatusError
	if code >= 400 && code < 500 {
		status = StatusFail
	}
	resp := envelope[any](c, status)
	resp.Message = message
	resp.Details = details
	c.JSON(code, resp)
	return resp
}

// NoContent answers 204 with no body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
