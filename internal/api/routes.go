// Package api contains the API routes for the Cryptoann API
package api

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/carolus/cryptoannapi/internal/api/handlers"
	"github.com/carolus/cryptoannapi/internal/api/middleware"
	"github.com/carolus/cryptoannapi/internal/app"
	"github.com/carolus/cryptoannapi/pkg/utils/response"
)

// SetupRoutes configures the routes for the API
func SetupRoutes(e *echo.Echo, a *app.App) {

	// Create a group for all API routes
	apiGroup := e.Group("/api")

	// Index route
	apiGroup.GET("/", indexRoute(a))

	// Auth routes (unprotected)
	authHandler := handlers.NewAuthHandler(a.Auth)
	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/logout", authHandler.Logout)

	// User routes (protected)
	userHandler := handlers.NewUserHandler()
	fileHandler := handlers.NewFileHandler(a.Pipeline)
	userGroup := apiGroup.Group("/user")
	userGroup.Use(middleware.AuthMiddleware(a.Registry))
	userGroup.GET("/:username", userHandler.Get)
	userGroup.GET("/:username/download", fileHandler.Download)

	// Upload route validates inside the pipeline, not in middleware
	apiGroup.POST("/user/:username/upload", fileHandler.Upload)
}

// indexRoute sets up the index route for the API
func indexRoute(a *app.App) echo.HandlerFunc {
	return func(c echo.Context) error {
		message := fmt.Sprintf("%s %s", a.Config.APIName, a.Config.APIVersion)
		return response.SuccessResponse(c, message)
	}
}
