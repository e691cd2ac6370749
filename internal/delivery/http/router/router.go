// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"gestor/internal/delivery/http/middleware"
	"gestor/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler      *handler.AuthHandler
	StaffHandler     *handler.StaffHandler
	AuthMiddleware   *middleware.AuthMiddleware
	LoggerMiddleware *middleware.LoggerMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler      *handler.AuthHandler
	staffHandler     *handler.StaffHandler
	authMiddleware   *middleware.AuthMiddleware
	loggerMiddleware *middleware.LoggerMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:      params.AuthHandler,
		staffHandler:     params.StaffHandler,
		authMiddleware:   params.AuthMiddleware,
		loggerMiddleware: params.LoggerMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.Use(r.loggerMiddleware.Handle)

	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Session lifecycle. Login, refresh and logout authenticate through the
	// credentials they carry, not through the access-token middleware.
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/login", r.authHandler.Login)
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/logout", r.authHandler.Logout)
		authGroup.GET("/me", r.authHandler.Me, r.authMiddleware.Authenticate)
	}

	// Staff management requires a verified access credential.
	staffGroup := e.Group("/staff")
	staffGroup.Use(r.authMiddleware.Authenticate)
	{
		staffGroup.POST("", r.staffHandler.CreateStaff)
		staffGroup.GET("/:id", r.staffHandler.GetStaff)
		staffGroup.PATCH("/:id", r.staffHandler.UpdateStaff)
	}
}
