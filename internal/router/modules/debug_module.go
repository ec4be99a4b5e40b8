package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/tourhub-api/internal/interface/middleware"
)

// DebugRoutes serves the process counters at /debug/vars. Callers on a
// private network are not rate limited.
func DebugRoutes(rdb *redis.Client) func(rg *gin.RouterGroup) {
	limit := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	return func(rg *gin.RouterGroup) {
		rg.GET("/debug/vars", limit, gin.WrapH(expvar.Handler()))
	}
}
