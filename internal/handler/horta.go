package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/service"
)

// HortaHandler exposes the irrigation state and the pump switch.
type HortaHandler struct {
	Horta   *service.HortaService
	Timeout time.Duration
	Log     logging.Logger
}

func NewHortaHandler(s *service.HortaService, timeout time.Duration, log logging.Logger) *HortaHandler {
	return &HortaHandler{Horta: s, Timeout: timeout, Log: log}
}

type pumpReq struct {
	Action string `json:"action"`
}

// GetState: GET /api/horta returns the state document (null when nothing
// has been stored yet).  updatedAt is an ISO-8601 string.
func (h *HortaHandler) GetState(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	body, err := h.Horta.GetState(ctx)
	if err != nil {
		return writeError(c, h.Log, err, "failed to read horta state")
	}
	return c.JSONBlob(http.StatusOK, body)
}

// SetPump: POST /api/horta/pump with {"action":"on"|"off"}.
func (h *HortaHandler) SetPump(c echo.Context) error {
	var req pumpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Horta.SetPump(ctx, req.Action)
	if err != nil {
		return writeError(c, h.Log, err, "failed to update pump")
	}
	return c.JSON(http.StatusOK, res)
}
