package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/service"
)

// writeError maps the service taxonomy onto an HTTP response.  Internal
// failures are logged with their cause and answered with fallback only.
func writeError(c echo.Context, log logging.Logger, err error, fallback string) error {
	var se *service.Error
	if errors.As(err, &se) {
		return c.JSON(statusFor(se.Kind), echo.Map{"error": se.Message})
	}
	log.Error(c.Request().Context(), fallback, "err", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, service.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(kind, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
