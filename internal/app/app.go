// Package app wires the process-wide services together.
package app

import (
	"github.com/carolus/cryptoannapi/internal/config"
	"github.com/carolus/cryptoannapi/internal/repository"
	"github.com/carolus/cryptoannapi/internal/service"
	"github.com/carolus/cryptoannapi/pkg/utils/zaplogger"
	"gorm.io/gorm"
)

// App holds one of everything: the registry, the user store and the
// pipeline services, created at startup and torn down at shutdown.
// There is no ambient static state.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Users    *repository.UserRepository
	Storage  *service.StorageArea
	Registry *service.SessionRegistry
	Engine   *service.ProcessEngineInvoker
	Pipeline *service.UploadPipeline
	Auth     *service.AuthService
	Cron     *service.CronService
}

// New constructs the application services
func New(cfg *config.Config, db *gorm.DB) *App {
	users := repository.NewUserRepository(db)
	storage := service.NewStorageArea(cfg.StorageDir)
	registry := service.NewSessionRegistry(cfg.SessionTTL(), cfg.SessionTokenUseLimit(), storage)
	engine := service.NewProcessEngineInvoker(cfg.EnginePath, cfg.EngineConcurrency())
	pipeline := service.NewUploadPipeline(registry, users, storage, engine)
	auth := service.NewAuthService(users, registry)
	cron := service.NewCronService(registry)

	return &App{
		Config:   cfg,
		DB:       db,
		Users:    users,
		Storage:  storage,
		Registry: registry,
		Engine:   engine,
		Pipeline: pipeline,
		Auth:     auth,
		Cron:     cron,
	}
}

// Shutdown closes every session and stops the background jobs.
func (a *App) Shutdown() {
	zaplogger.Info("shutting down")
	a.Cron.Stop()
	a.Registry.CloseAll()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
