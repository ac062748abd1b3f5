package middleware

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusColor(status int) string {
	switch {
	case status >= fiber.StatusInternalServerError:
		return colorRed
	case status >= fiber.StatusBadRequest:
		return colorYellow
	default:
		return colorGreen
	}
}

// LoggingMiddleware logs one line per request. The request id is read from
// the X-Request-ID response header set by the requestid middleware.
func LoggingMiddleware(logger *log.Logger, colors bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Handler errors are passed on to fiber's error handler.
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		requestID := c.GetRespHeader(fiber.HeaderXRequestID)
		method := c.Method()
		if colors {
			logger.Printf("%s %s %s%s%s %s %s%d%s %v",
				requestID,
				c.IP(),
				colorCyan, method, colorReset,
				c.Path(),
				statusColor(status), status, colorReset,
				time.Since(start),
			)
		} else {
			logger.Printf("%s %s %s %s %d %v", requestID, c.IP(), method, c.Path(), status, time.Since(start))
		}
		if err != nil {
			logger.Printf("%s handler error: %v", requestID, err)
		}

		return err
	}
}
