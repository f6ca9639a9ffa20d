package handler

import (
	"context"
	"net/http"
	"time"

	"botica/internal/infra"
	"botica/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// BreakerReporter exposes the state of the event publisher's circuit breaker.
type BreakerReporter interface {
	BreakerState() infra.CBState
}

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// An open breaker or a non-empty DLQ is reported but does not fail the check.
func Health(db *gorm.DB, rdb *redis.Client, breaker BreakerReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if breaker != nil {
			body["events"] = breaker.BreakerState().String()
		}
		if redisStatus == "connected" {
			if dlq, err := worker.DLQLengths(ctx, rdb); err == nil {
				body["dlq"] = dlq
			}
		}
		c.JSON(status, body)
	}
}
