package main

import (
	"github.com/easystock/backend/internal/handlers"
	"github.com/easystock/backend/internal/middleware"
	"github.com/easystock/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(svc.cfg.Server.AllowOrigins...))

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics(svc.registry))

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth", svc.authLimiter.Middleware())
		{
			auth.POST("/signup", svc.authHandler.Signup)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.GET("/auth/profile", svc.authHandler.GetProfile)
			protected.PUT("/auth/profile", svc.authHandler.UpdateProfile)
			protected.PUT("/auth/change-password", svc.authHandler.ChangePassword)

			// Projects
			protected.GET("/projects", svc.projects.List)
			protected.POST("/projects", svc.projects.Create)
			protected.GET("/projects/:projectId", svc.projects.Get)
			protected.GET("/projects/:projectId/dashboard", svc.projects.Dashboard)

			// Members
			protected.GET("/projects/:projectId/members", svc.members.List)
			protected.PUT("/projects/:projectId/members/:memberId/status", svc.members.UpdateStatus)
			protected.PUT("/projects/:projectId/members/:memberId/role", svc.members.UpdateRole)
			protected.DELETE("/projects/:projectId/members/:memberId", svc.members.Remove)

			// Invites
			protected.GET("/projects/:projectId/invites", svc.invites.List)
			protected.POST("/projects/:projectId/invites", svc.invites.Create)
			protected.POST("/projects/:projectId/invites/:inviteId/resend", svc.invites.Resend)
			protected.POST("/invites/accept", svc.invites.Accept)
			protected.GET("/invites/pending", svc.invites.Pending)

			// Materials
			protected.GET("/materials", svc.materials.List)
			protected.POST("/materials", svc.materials.Create)
			protected.GET("/materials/scan", svc.materials.Scan)
			protected.GET("/materials/:id", svc.materials.Get)
			protected.PUT("/materials/:id", svc.materials.Update)
			protected.GET("/materials/:id/qr", svc.materials.QRCode)

			// Movements
			protected.POST("/movements", svc.movements.Record)
			protected.GET("/movements", svc.movements.List)
		}
	}
}
