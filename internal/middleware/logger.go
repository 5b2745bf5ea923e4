package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/fitlgui/Api-OurThree/internal/logging"
)

// RequestLogger writes one structured line per request.  Bodies and
// headers are never logged, so credentials cannot leak through it.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.RequestID != "" {
				args = append(args, "request_id", v.RequestID)
			}
			ctx := c.Request().Context()
			switch {
			case v.Error != nil:
				log.Error(ctx, "request", append(args, "err", v.Error)...)
			case v.Status >= 500:
				log.Error(ctx, "request", args...)
			case v.Status >= 400:
				log.Warn(ctx, "request", args...)
			default:
				log.Info(ctx, "request", args...)
			}
			return nil
		},
	})
}
