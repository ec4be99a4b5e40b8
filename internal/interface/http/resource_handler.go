package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/pkg/query"
	"github.com/oksasatya/tourhub-api/pkg/response"
)

// ResourceHandler exposes an application.Resource over HTTP.
type ResourceHandler[T entity.Record] struct {
	Res *application.Resource[T]
	// Scope returns the conditions every listing of this request must satisfy.
	Scope func(c *gin.Context) []query.Condition
	// Prepare fills defaults on a decoded record before it is created.
	Prepare func(c *gin.Context, rec T)
}

func NewResourceHandler[T entity.Record](res *application.Resource[T]) *ResourceHandler[T] {
	return &ResourceHandler[T]{Res: res}
}

func (h *ResourceHandler[T]) scope(c *gin.Context) []query.Condition {
	if h.Scope == nil {
		return nil
	}
	return h.Scope(c)
}

func (h *ResourceHandler[T]) list(c *gin.Context, params url.Values) {
	docs, err := h.Res.GetAll(c.Request.Context(), params, h.scope(c)...)
	if err != nil {
		fail(c, err)
		return
	}
	response.List(c, "data", docs)
}

// GetAll GET /<resource>
func (h *ResourceHandler[T]) GetAll(c *gin.Context) {
	h.list(c, c.Request.URL.Query())
}

// Alias serves a canned listing: overrides replace the request parameters
// of the same name.
func (h *ResourceHandler[T]) Alias(overrides map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.list(c, query.Alias(c.Request.URL.Query(), overrides))
	}
}

// GetOne GET /<resource>/:id?expand=a,b
func (h *ResourceHandler[T]) GetOne(c *gin.Context) {
	doc, err := h.Res.GetOne(c.Request.Context(), c.Param("id"), application.SplitList(c.Query(application.ExpandParam))...)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"data": doc}, "")
}

// Create POST /<resource>
func (h *ResourceHandler[T]) Create(c *gin.Context) {
	var payload map[string]any
	if err := bindJSON(c, &payload); err != nil {
		fail(c, err)
		return
	}
	rec, err := h.Res.Decode(payload)
	if err != nil {
		fail(c, err)
		return
	}
	if h.Prepare != nil {
		h.Prepare(c, rec)
	}
	created, err := h.Res.CreateOne(c.Request.Context(), rec)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"data": h.Res.Document(created)}, "")
}

// Update PATCH /<resource>/:id
func (h *ResourceHandler[T]) Update(c *gin.Context) {
	var patch map[string]any
	if err := bindJSON(c, &patch); err != nil {
		fail(c, err)
		return
	}
	rec, err := h.Res.UpdateOne(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"data": h.Res.Document(rec)}, "")
}

// Delete DELETE /<resource>/:id
func (h *ResourceHandler[T]) Delete(c *gin.Context) {
	if err := h.Res.DeleteOne(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.NoContent(c)
}
