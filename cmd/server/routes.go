package main

import (
	"github.com/gin-gonic/gin"
	"github.com/tradingnft/backend/internal/middleware"
	"github.com/tradingnft/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS())
	r.Use(svc.rateLimiter.Middleware())
	r.Use(middleware.AuditLog())

	api := r.Group(svc.cfg.Server.Prefix)
	{
		api.GET("/health", svc.healthHandler.CheckHealth)

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/sign-in", middleware.LoginThrottle(svc.loginThrottle), svc.authHandler.SignIn)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.POST("/logout", svc.authHandler.Logout)
		}

		// Registration is public
		api.POST("/users", svc.userHandler.Create)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(svc.authService))
		{
			protected.GET("/auth/me", svc.authHandler.Me)

			protected.GET("/users", svc.userHandler.List)
			protected.GET("/users/email/:email", svc.userHandler.GetByEmail)
			protected.GET("/users/:id", svc.userHandler.GetByID)
			protected.PUT("/users/:id", svc.userHandler.Update)
			protected.DELETE("/users/:id", svc.userHandler.Delete)
		}
	}
}
