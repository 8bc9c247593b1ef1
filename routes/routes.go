// routes/routes.go
package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"checklistapi/middleware"
	"checklistapi/services"
)

// ServiceContainer holds all services and dependencies
type ServiceContainer struct {
	Store            services.ChecklistStore
	ChecklistService *services.ChecklistService
	// Verifier is nil when authentication is disabled.
	Verifier middleware.TokenVerifier
	// B2Service is nil when snapshot backups are not configured.
	B2Service *services.B2Service
}

// NewServiceContainer creates a new service container with all dependencies initialized
func NewServiceContainer(store services.ChecklistStore, verifier middleware.TokenVerifier, b2Service *services.B2Service) *ServiceContainer {
	return &ServiceContainer{
		Store:            store,
		ChecklistService: services.NewChecklistService(store),
		Verifier:         verifier,
		B2Service:        b2Service,
	}
}

// SetupRoutesWithContainer configures all routes using a service container
func SetupRoutesWithContainer(router *gin.Engine, container *ServiceContainer) {
	RegisterSystemRoutes(router)
	RegisterChecklistRoutes(router, container.Verifier, container.ChecklistService)
}

// RegisterSystemRoutes mounts the service info, health and metrics endpoints.
func RegisterSystemRoutes(router gin.IRouter) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Checklist API",
			"endpoints": gin.H{
				"checklists": "/checklists",
				"health":     "/health",
				"metrics":    "/metrics",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
