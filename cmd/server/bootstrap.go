package main

import (
	"github.com/easystock/backend/internal/config"
	"github.com/easystock/backend/internal/handlers"
	"github.com/easystock/backend/internal/middleware"
	"github.com/easystock/backend/internal/models"
	"github.com/easystock/backend/internal/services"
	"github.com/easystock/backend/internal/utils"
	"github.com/easystock/backend/pkg/logger"
	"github.com/easystock/backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg           *config.Config
	db            *gorm.DB
	registry      *prometheus.Registry
	taskQueue     services.TaskQueue
	worker        *services.Worker
	logCleanup    *services.LogCleanupScheduler
	authLimiter   *middleware.RateLimiter
	authHandler   *handlers.AuthHandler
	projects      *handlers.ProjectHandler
	members       *handlers.ProjectMemberHandler
	invites       *handlers.InviteHandler
	materials     *handlers.MaterialHandler
	movements     *handlers.MovementHandler
	healthHandler *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	registry := prometheus.NewRegistry()
	inventoryMetrics := metrics.NewInventory(registry)
	cronMetrics := metrics.NewCronJobMetrics(registry)
	if err := handlers.RegisterRuntimeMetrics(registry, db); err != nil {
		logger.Warn().Err(err).Msg("Failed to register runtime metrics")
	}

	services.InitSystemLogger(db)

	logCleanup := services.NewLogCleanupScheduler(db, cfg.Log, cronMetrics)
	if err := logCleanup.Start(); err != nil {
		logger.Warn().Err(err).Str("spec", cfg.Log.CleanupSpec).Msg("Failed to start log cleanup scheduler")
	}

	// Invite emails go through Redis when enabled, otherwise inline
	var mailer services.Mailer
	if cfg.SMTP.MailEnabled() {
		mailer = services.NewSMTPMailer(cfg.SMTP)
	} else {
		logger.Warn().Msg("SMTP host not configured, invite emails are disabled")
	}
	inviteService := services.NewInviteService(db, cfg.App, mailer, inventoryMetrics)

	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(inviteService.ProcessTask)
	}
	inviteService.SetQueue(taskQueue)

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(inviteService.ProcessTask)
			if err := worker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start invite email worker")
			}
		}
	}

	return &appServices{
		cfg:           cfg,
		db:            db,
		registry:      registry,
		taskQueue:     taskQueue,
		worker:        worker,
		logCleanup:    logCleanup,
		authLimiter:   middleware.NewRateLimiter(5, 10),
		authHandler:   handlers.NewAuthHandler(db, &cfg.JWT),
		projects:      handlers.NewProjectHandler(db),
		members:       handlers.NewProjectMemberHandler(db, inventoryMetrics),
		invites:       handlers.NewInviteHandler(db, inviteService),
		materials:     handlers.NewMaterialHandler(db),
		movements:     handlers.NewMovementHandler(db, inventoryMetrics),
		healthHandler: handlers.NewHealthHandler(db),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.logCleanup.Stop()
	s.authLimiter.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
