package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/service"
)

// AdminKeyHeader carries the admin credential for POST /register.
const AdminKeyHeader = "x-admin-key"

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
	Accounts *service.AccountService
	Timeout  time.Duration
	Log      logging.Logger
}

func NewAuthHandler(a *service.AccountService, timeout time.Duration, log logging.Logger) *AuthHandler {
	return &AuthHandler{Accounts: a, Timeout: timeout, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register: admin-gated account creation.  The admin key is checked before
// the body is even decoded, so a bad key is always 403.
func (h *AuthHandler) Register(c echo.Context) error {
	key := c.Request().Header.Get(AdminKeyHeader)
	if !h.Accounts.Authorized(key) {
		return writeError(c, h.Log, service.ErrInvalidAdminKey, "")
	}

	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	err := h.Accounts.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		AdminKey: key,
	})
	if err != nil {
		return writeError(c, h.Log, err, "failed to register user")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "user registered successfully"})
}

// Login: verify credentials.  No token or cookie is issued.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	if err := h.Accounts.Login(ctx, req.Username, req.Password); err != nil {
		return writeError(c, h.Log, err, "failed to log in")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "login successful"})
}
