package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/interface/middleware"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

// TourParam names the tour id segment of nested review routes.
const TourParam = "id"

// NewReviewHandler serves reviews both top level and nested under a tour.
// Nested listings are scoped to the tour in the path. New reviews take their
// tour from the path when the body has none, and always belong to the caller.
func NewReviewHandler(res *application.Resource[*entity.Review]) *ResourceHandler[*entity.Review] {
	h := NewResourceHandler(res)
	h.Scope = func(c *gin.Context) []query.Condition {
		if isNested(c) {
			return []query.Condition{query.Eq("tour", c.Param(TourParam))}
		}
		return nil
	}
	h.Prepare = func(c *gin.Context, r *entity.Review) {
		if isNested(c) && r.Tour == "" {
			r.Tour = c.Param(TourParam)
		}
		if u := middleware.CurrentUser(c); u != nil {
			r.User = u.ID
		}
	}
	return h
}

// isNested reports whether the matched route is /tours/:id/reviews.
func isNested(c *gin.Context) bool {
	_, nested := c.Get(nestedKey)
	return nested
}

const nestedKey = "nested_reviews"

// Nested marks requests routed through /tours/:id/reviews.
func Nested() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(nestedKey, true)
		c.Next()
	}
}
