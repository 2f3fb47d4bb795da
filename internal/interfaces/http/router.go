package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-sedes/internal/application/catalog"
	"github.com/jhoicas/inventario-sedes/internal/application/count"
	"github.com/jhoicas/inventario-sedes/internal/application/inventory"
	"github.com/jhoicas/inventario-sedes/internal/application/product"
	"github.com/jhoicas/inventario-sedes/internal/application/remission"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	UoM          *catalog.AdminUseCase
	Products     *product.UseCase
	Ledger       *inventory.Ledger
	Remissions   *remission.UseCase
	Counts       *count.UseCase
	JWTSecret    string
	HealthChecks map[string]HealthCheck
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", Health(deps.HealthChecks))

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	uom := api.Group("/uom")
	uomHandler := NewUoMHandler(deps.UoM)
	uom.Get("/units", uomHandler.ListUnits)
	uom.Post("/units", uomHandler.CreateUnit)
	uom.Put("/units/:code", uomHandler.UpdateUnit)
	uom.Delete("/units/:code", uomHandler.DeactivateUnit)
	uom.Post("/aliases", uomHandler.AddAlias)
	uom.Post("/convert", uomHandler.Convert)

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.Products)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id/suppliers", productHandler.SetSupplier)
	products.Get("/:id/auto-cost", productHandler.AutoCostReadiness)
	products.Post("/:id/auto-cost", productHandler.RecomputeAutoCost)
	products.Put("/:id/stock-unit", productHandler.ChangeStockUnit)

	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger)
	inv.Post("/movements", inventoryHandler.RegisterMovement)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Post("/transfers", inventoryHandler.Transfer)
	inv.Post("/locations/:id/delta", inventoryHandler.ApplyLocationDelta)
	inv.Get("/locations/:id/stock", inventoryHandler.GetLocationStock)
	inv.Get("/sites/:id/stock", inventoryHandler.GetSiteStock)
	inv.Get("/sites/:id/unlocated", inventoryHandler.GetUnlocated)
	inv.Get("/sites/:id/low-stock", inventoryHandler.GetLowStock)
	inv.Get("/sites/:id/purchase-suggestions", inventoryHandler.GetPurchaseSuggestions)

	remissions := api.Group("/remissions")
	remissionHandler := NewRemissionHandler(deps.Remissions)
	remissions.Post("/", remissionHandler.Create)
	remissions.Get("/", remissionHandler.List)
	remissions.Get("/:id", remissionHandler.Get)
	remissions.Patch("/:id/items", remissionHandler.UpdateItems)
	remissions.Post("/:id/prepare", remissionHandler.Prepare)
	remissions.Post("/:id/transit", remissionHandler.Transit)
	remissions.Post("/:id/receive", remissionHandler.Receive)
	remissions.Post("/:id/close", remissionHandler.Close)
	remissions.Post("/:id/cancel", remissionHandler.Cancel)
	remissions.Get("/:id/manifest", remissionHandler.Manifest)

	counts := api.Group("/counts")
	countHandler := NewCountHandler(deps.Counts)
	counts.Post("/", countHandler.Open)
	counts.Get("/:id", countHandler.Get)
	counts.Post("/:id/lines", countHandler.RecordCounts)
	counts.Post("/:id/close", countHandler.Close)
	counts.Post("/:id/approve", countHandler.Approve)
}
