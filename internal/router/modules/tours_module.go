package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	handlers "github.com/oksasatya/tourhub-api/internal/interface/http"
	"github.com/oksasatya/tourhub-api/internal/interface/middleware"
)

// ToursModule wires /tours. Reads are public; writes need admin or
// lead-guide.
type ToursModule struct {
	Tours *handlers.TourHandler
	Guard *application.AuthService
	Redis *redis.Client
}

func NewToursModule(tours *handlers.TourHandler, guard *application.AuthService, rdb *redis.Client) *ToursModule {
	return &ToursModule{Tours: tours, Guard: guard, Redis: rdb}
}

func (m *ToursModule) Register(rg *gin.RouterGroup) {
	tours := rg.Group("/tours")

	tours.GET("", m.Tours.GetAll)
	tours.GET("/top-5-cheap", m.Tours.TopCheap)
	tours.GET("/tour-stats", m.Tours.Stats)
	tours.GET("/search", middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP(), nil), m.Tours.Search)
	tours.GET("/:id", m.Tours.GetOne)

	protect := middleware.Protect(m.Guard)
	tours.GET("/monthly-plan/:year", protect,
		middleware.RestrictTo(m.Guard, entity.RoleAdmin, entity.RoleLeadGuide, entity.RoleGuide),
		m.Tours.MonthlyPlan)

	staff := tours.Group("")
	staff.Use(protect, middleware.RestrictTo(m.Guard, entity.RoleAdmin, entity.RoleLeadGuide))
	{
		staff.POST("", m.Tours.Create)
		staff.PATCH("/:id", m.Tours.Update)
		staff.DELETE("/:id", m.Tours.Delete)
	}
}
