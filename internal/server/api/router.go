package api

import (
	"net/http"

	"pdfpress/internal/server/auth"
	"pdfpress/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, gate *auth.Gate, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = newTemplateRenderer()
	e.Validator = newFormValidator()

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType},
		ExposeHeaders: []string{"X-Original-Size", "X-Compressed-Size", echo.HeaderContentDisposition},
	}))
	e.Use(RequestLogger())

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	session := RequireSession(gate)

	e.GET("/health", handler.HandleHealth)

	e.GET("/", handler.HandleIndex)
	e.POST("/login", handler.HandleLogin, limiter.Middleware())
	e.POST("/logout", handler.HandleLogout)

	e.POST("/compress", handler.HandleCompress, session, limiter.Middleware())
	e.GET("/api/stats", handler.HandleStats, session)

	return e
}
