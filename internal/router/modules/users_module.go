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

// UsersModule wires the auth flows, the self-service profile routes and the
// admin user routes under /users.
//
// Public: signup, login, logout, forgotPassword, resetPassword/:token
// Protected: updateMyPassword, me, updateMe, deleteMe
// Admin: GET|POST /users, GET|PATCH|DELETE /users/:id
type UsersModule struct {
	Auth  *handlers.AuthHandler
	Users *handlers.UserHandler
	Guard *application.AuthService
	Redis *redis.Client
}

func NewUsersModule(auth *handlers.AuthHandler, users *handlers.UserHandler, guard *application.AuthService, rdb *redis.Client) *UsersModule {
	return &UsersModule{Auth: auth, Users: users, Guard: guard, Redis: rdb}
}

func (m *UsersModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	signupLimiter := middleware.RateLimit(m.Redis, 10, time.Hour, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP(), nil)
	forgotLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	users.POST("/signup", signupLimiter, m.Auth.Signup)
	users.POST("/login", loginLimiter, m.Auth.Login)
	users.GET("/logout", m.Auth.Logout)
	users.POST("/forgotPassword", forgotLimiter, m.Auth.ForgotPassword)
	users.PATCH("/resetPassword/:token", resetLimiter, m.Auth.ResetPassword)

	me := users.Group("")
	me.Use(
		middleware.Protect(m.Guard),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		me.PATCH("/updateMyPassword", m.Auth.UpdateMyPassword)
		me.GET("/me", m.Users.Me)
		me.PATCH("/updateMe", m.Users.UpdateMe)
		me.DELETE("/deleteMe", m.Users.DeleteMe)
	}

	admin := me.Group("")
	admin.Use(middleware.RestrictTo(m.Guard, entity.RoleAdmin))
	{
		admin.GET("", m.Users.List)
		admin.POST("", m.Users.Create)
		admin.GET("/:id", m.Users.Get)
		admin.PATCH("/:id", m.Users.Update)
		admin.DELETE("/:id", m.Users.Delete)
	}
}
