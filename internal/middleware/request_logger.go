package middleware

import (
	"time"

	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger attaches a child logger carrying the request id to the
// request context and logs every completed request.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := req.Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			child := base.With().
				Str(logger.FieldRequestID, reqID).
				Str(logger.FieldMethod, req.Method).
				Str(logger.FieldPath, req.URL.Path).
				Str(logger.FieldClientIP, c.RealIP()).
				Logger()
			c.SetRequest(req.WithContext(logger.WithLogger(req.Context(), child)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			l := logger.Ctx(c.Request().Context())
			status := c.Response().Status
			evt := l.Info()
			if status >= 500 {
				evt = l.Error().Err(err)
			}
			evt.Int(logger.FieldStatus, status).
				Float64(logger.FieldLatency, float64(time.Since(start).Milliseconds())).
				Msg("request completed")
			return nil
		}
	}
}
