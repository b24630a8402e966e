package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FiberMiddleware logs one line per request. Handler errors are passed to the app
// ErrorHandler first so the logged status is the one the client receives.
func FiberMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}
		if q := string(c.Request().URI().QueryString()); q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if chainErr != nil {
			fields = append(fields, zap.Error(chainErr))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			L.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			L.Warn("request", fields...)
		default:
			L.Info("request", fields...)
		}
		return nil
	}
}
