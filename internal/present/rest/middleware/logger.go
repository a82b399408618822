package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger logs one line per request with its status and latency.
// The request context carries a logger tagged with the method and path.
func RequestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		logger := log.With().
			Str("module", "http").
			Str("request_method", req.Method).
			Str("request_uri", req.RequestURI).
			Logger()
		if sc := trace.SpanContextFromContext(req.Context()); sc.HasTraceID() {
			logger = logger.With().Str("trace_id", sc.TraceID().String()).Logger()
		}
		c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		status := c.Response().Status
		event := logger.Debug()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}
		event.
			Int("status", status).
			Int64("bytes", c.Response().Size).
			Dur("latency", time.Since(start)).
			Msg("Request completed")

		return nil
	}
}
