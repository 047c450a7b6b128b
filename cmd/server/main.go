// Package main is the entry point for the Cryptoann API
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carolus/cryptoannapi/internal/api"
	"github.com/carolus/cryptoannapi/internal/api/middleware"
	"github.com/carolus/cryptoannapi/internal/app"
	"github.com/carolus/cryptoannapi/internal/config"
	"github.com/carolus/cryptoannapi/internal/repository"
	"github.com/carolus/cryptoannapi/pkg/utils/zaplogger"
)

func main() {
	// Setup logger
	defer zaplogger.Sync()

	// Load configuration
	cfg, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zaplogger.SetLogLevel(cfg.ServerLogLevel)

	// startUpMessage
	zaplogger.Info(config.SingleLine)
	zaplogger.Info(cfg.APIName + " " + cfg.APIVersion)
	zaplogger.Info(config.SingleLine)

	// Connect to Postgres
	db, err := repository.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	// Wire the application services
	a := app.New(cfg, db)

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup middleware
	middleware.SetupLoggerMiddleware(e)

	// Setup routes
	api.SetupRoutes(e, a)

	// Start the expiry sweep jobs
	a.Cron.Start()

	// Start the server, shut everything down on SIGINT/SIGTERM
	startServer(e, a)
}

// startServer starts the Echo server and blocks until shutdown
func startServer(e *echo.Echo, a *app.App) {
	port := a.Config.ServerPort
	if port == "" {
		port = "3009"
	}

	go func() {
		zaplogger.Info("SERVER STARTED ON PORT " + port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			zaplogger.Fatal("server stopped", zaplogger.Fields{"error": err})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zaplogger.Error("server shutdown failed", zaplogger.Fields{"error": err})
	}
	a.Shutdown()
}
