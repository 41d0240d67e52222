package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery recovers from panics and logs the error with its stack.
func Recovery(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic recovered: %v", r)

				fields := []zap.Field{
					zap.Error(err),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
				}
				if rid, ok := c.Locals("request_id").(string); ok {
					fields = append(fields, zap.String("request_id", rid))
				}

				logger.Error("panic recovered", fields...)

				if c.Response().StatusCode() == 0 {
					c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
						"error": "internal server error",
					})
				}
			}
		}()

		return c.Next()
	}
}
