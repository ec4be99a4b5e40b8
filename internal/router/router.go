package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/tourhub-api/internal/container"
	handlers "github.com/oksasatya/tourhub-api/internal/interface/http"
	"github.com/oksasatya/tourhub-api/internal/interface/middleware"
	"github.com/oksasatya/tourhub-api/internal/router/modules"
)

// NewEngine builds the gin engine with the global middleware chain and every
// module mounted.
func NewEngine(c *container.Container) *gin.Engine {
	cfg := c.Config

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RealIP())
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}
	// No configured origin means same-origin only.
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.ErrorHandler(c.Logger))
	r.NoRoute(middleware.NoRoute())

	reg := NewRegistry(r)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}

// InitModules builds the handlers from the container and adds their modules.
func InitModules(r *Registry, c *container.Container) {
	authHandler := handlers.NewAuthHandler(c.Auth, c.Cookies, c.Logger)
	userHandler := handlers.NewUserHandler(c.Auth, c.UserRes, c.Logger)
	tourHandler := handlers.NewTourHandler(c.TourRes, c.Tours, c.Search, c.Cache, c.Config.StatsCacheTTL, c.Logger)
	reviewHandler := handlers.NewReviewHandler(c.ReviewRes)

	r.Add(modules.NewUsersModule(authHandler, userHandler, c.Auth, c.Redis))
	r.Add(modules.NewToursModule(tourHandler, c.Auth, c.Redis))
	r.Add(modules.NewReviewsModule(reviewHandler, c.Auth))
	if c.Config.DebugMetricsEnabled {
		r.Mount(DebugPrefix, ModuleFunc(modules.DebugRoutes(c.Redis)))
	}
}
