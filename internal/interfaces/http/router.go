package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lumber-pro/internal/application/dimension"
	"github.com/tu-usuario/lumber-pro/internal/application/reconciliation"
	"github.com/tu-usuario/lumber-pro/internal/application/tally"
	"github.com/tu-usuario/lumber-pro/internal/application/yield"
	"github.com/tu-usuario/lumber-pro/pkg/config"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Resolver  *dimension.Resolver
	TallySvc  *tally.Service
	YieldSvc  *yield.Service
	ReconJob  *reconciliation.Job
	Lumber    config.LumberConfig
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Health (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Conversiones (protegido)
	conversions := protected.Group("/conversions")
	conversionHandler := NewConversionHandler(deps.Resolver, deps.Lumber)
	conversions.Post("/convert", conversionHandler.Convert)
	conversions.Post("/matrix", conversionHandler.Matrix)

	// Tally sheets y asignación FIFO (protegido)
	tallyGroup := protected.Group("/tally")
	tallyHandler := NewTallyHandler(deps.TallySvc)
	tallyGroup.Post("/", tallyHandler.Create)
	tallyGroup.Get("/available", tallyHandler.Available)
	tallyGroup.Post("/allocate", tallyHandler.Allocate)
	tallyGroup.Get("/lots/:id", tallyHandler.GetByID)
	tallyGroup.Post("/lots/:id/reverse", tallyHandler.Reverse)
	// Anular y cerrar lotes queda restringido a administración.
	tallyGroup.Post("/lots/:id/void", RequireRole("admin"), tallyHandler.Void)
	tallyGroup.Post("/lots/:id/close", RequireRole("admin", "oficina"), tallyHandler.Close)
	tallyGroup.Post("/:demandId/consume", tallyHandler.Consume)
	tallyGroup.Post("/:demandId/release", tallyHandler.Release)

	// Rendimiento y desperdicio (protegido)
	yieldGroup := protected.Group("/yield")
	yieldHandler := NewYieldHandler(deps.YieldSvc)
	yieldGroup.Post("/", yieldHandler.Record)
	yieldGroup.Get("/summary", yieldHandler.Summary)
	yieldGroup.Get("/:id", yieldHandler.GetByID)
	yieldGroup.Get("/:id/adjustments", yieldHandler.Adjustments)
	// Ajustar registros históricos es una operación de oficina.
	yieldGroup.Post("/:id/adjust", RequireRole("admin", "oficina"), yieldHandler.Adjust)

	// Jobs de reconciliación (protegido, solo administración)
	recon := protected.Group("/reconciliation", RequireRole("admin"))
	reconHandler := NewReconciliationHandler(deps.ReconJob)
	recon.Post("/tally", reconHandler.ReconcileTally)
	recon.Post("/yield", reconHandler.DetectAnomalies)
}
