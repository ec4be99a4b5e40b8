package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	handlers "github.com/oksasatya/tourhub-api/internal/interface/http"
	"github.com/oksasatya/tourhub-api/internal/interface/middleware"
)

// ReviewsModule wires /reviews and the nested /tours/:id/reviews. Every
// review route needs a logged in principal.
type ReviewsModule struct {
	Reviews *handlers.ResourceHandler[*entity.Review]
	Guard   *application.AuthService
}

func NewReviewsModule(reviews *handlers.ResourceHandler[*entity.Review], guard *application.AuthService) *ReviewsModule {
	return &ReviewsModule{Reviews: reviews, Guard: guard}
}

func (m *ReviewsModule) routes(rg *gin.RouterGroup, withID bool) {
	rg.Use(middleware.Protect(m.Guard))
	rg.GET("", m.Reviews.GetAll)
	rg.POST("", middleware.RestrictTo(m.Guard, entity.RoleUser), m.Reviews.Create)
	if !withID {
		return
	}
	rg.GET("/:id", m.Reviews.GetOne)
	owners := middleware.RestrictTo(m.Guard, entity.RoleUser, entity.RoleAdmin)
	rg.PATCH("/:id", owners, m.Reviews.Update)
	rg.DELETE("/:id", owners, m.Reviews.Delete)
}

func (m *ReviewsModule) Register(rg *gin.RouterGroup) {
	m.routes(rg.Group("/reviews"), true)
	m.routes(rg.Group("/tours/:"+handlers.TourParam+"/reviews", handlers.Nested()), false)
}
