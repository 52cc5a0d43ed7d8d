package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response. The database and redis checks
// only run when those backends are configured; the JSON store has nothing to
// ping. Never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		ok := true
		estado := gin.H{}

		if db != nil {
			dbStatus := "connected"
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				dbStatus = "error"
				ok = false
			}
			estado["db"] = dbStatus
		}

		if rdb != nil {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
				ok = false
			}
			estado["redis"] = redisStatus
		}

		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		estado["ok"] = ok
		c.JSON(status, estado)
	}
}
