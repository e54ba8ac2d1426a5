package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/middleware"
	"github.com/contaclara/recon_backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	// Every v1 route is tenant scoped
	v1 := r.Group("/api/v1", middleware.TenantMiddleware())

	registerInvoiceRoutes(v1, services.Invoice)
	registerMatchRoutes(v1, services.Matcher)
	registerPendingRoutes(v1, services.Pending)
	registerBatchRoutes(v1, services.Batch)
	registerInstallmentRoutes(v1, services.Installment)
}
