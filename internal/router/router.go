package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/fitlgui/Api-OurThree/internal/config"
	"github.com/fitlgui/Api-OurThree/internal/handler"
	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/middleware"
)

// StatePath is the cached read of the irrigation state.
const StatePath = "/api/horta"

// Deps carries everything the routes need.  Redis may be nil, which turns
// the state cache off.
type Deps struct {
	Auth  *handler.AuthHandler
	Horta *handler.HortaHandler
	Ping  func(ctx context.Context) error
	Redis *redis.Client
	Cache config.CacheConfig
	CORS  []string
	Log   logging.Logger
}

// New builds the Echo instance with the global middleware stack and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.CORS,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, handler.AdminKeyHeader},
	}))

	RegisterRoutes(e, d.Ping)
	RegisterAuth(e, d.Auth)
	RegisterHorta(e, d.Horta, d.Cache, d.Redis)
	return e
}

// RegisterRoutes registers the probes.
func RegisterRoutes(e *echo.Echo, ping func(ctx context.Context) error) {
	e.GET("/healthz", handler.Health)
	if ping != nil {
		e.GET("/readyz", handler.Ready(ping))
	}
}

// RegisterAuth registers the account endpoints.  They live at the top level
// for compatibility with existing clients.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
}

// StateInvalidator returns a hook that purges the cached state read, or nil
// when the cache is off.  Writers outside HTTP (sensor ingest) call it after
// updating the document.
func StateInvalidator(cache config.CacheConfig, rdb *redis.Client) func(ctx context.Context) error {
	if !cache.Enabled || rdb == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return middleware.Purge(ctx, cache, rdb, StatePath)
	}
}

// RegisterHorta registers the device endpoints.  Reads go through the Redis
// cache; a successful pump write purges it so the next read sees the new state.
func RegisterHorta(e *echo.Echo, h *handler.HortaHandler, cache config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/api")
	g.GET("/horta", h.GetState, middleware.NewRedisCache(cache, rdb))
	g.POST("/horta/pump", h.SetPump, middleware.PurgeOnSuccess(cache, rdb, StatePath))
}
