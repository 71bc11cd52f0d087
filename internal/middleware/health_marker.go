package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	healthsvc "stablebricks-backend/internal/application/health"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func skipHealthCount(path string) bool {
	return path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") || path == "/reset"
}

// HealthMarker counts requests and response times in Redis and records 5xx responses in the error log.
// The status page and health endpoints are not counted.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipHealthCount(c.Path()) {
			return c.Next()
		}
		ctx := context.Background()
		start := time.Now()
		last, _ := json.Marshal(map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, healthsvc.KeyLastReq, last, 0)
			pipe.Incr(ctx, healthsvc.KeyReqTotal)
			return nil
		})

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, healthsvc.KeyResCount)
			pipe.IncrByFloat(ctx, healthsvc.KeyResTime, float64(time.Since(start).Milliseconds()))
			if status >= fiber.StatusInternalServerError {
				pipe.Incr(ctx, healthsvc.KeyReqErrors)
			}
			return nil
		})
		if status >= fiber.StatusInternalServerError {
			entry := healthsvc.ErrorEntry{
				Time:    start,
				Method:  c.Method(),
				Path:    c.Path(),
				Status:  status,
				TraceID: GetTraceID(c),
			}
			if err != nil {
				entry.Message = err.Error()
			}
			if rerr := healthsvc.RecordError(ctx, rdb, entry); rerr != nil {
				log.Warn().Err(rerr).Msg("health error log write failed")
			}
		}
		return err
	}
}
