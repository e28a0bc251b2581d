package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/movement"
	"github.com/jhoicas/picking-api/internal/application/printing"
	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MovementUC  *movement.UseCase
	Dispatcher  *printing.Dispatcher
	StockRepo   repository.StockRepository
	ProductRepo repository.ProductRepository
	JWTSecret   string
}

// Router registra las rutas de la API. Todo exige Bearer Token; el nivel
// mínimo es operator (jerarquía operator < supervisor < admin).
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret), RequireRole(domain.RoleOperator))

	// Movimientos
	moves := api.Group("/moves")
	moveHandler := NewMoveHandler(deps.MovementUC)
	moves.Post("/", moveHandler.Create)
	moves.Get("/:id", moveHandler.Get)
	moves.Post("/:id/submit", moveHandler.Submit)
	moves.Post("/:id/approve", moveHandler.Approve)
	moves.Post("/:id/cancel", moveHandler.Cancel)
	moves.Post("/:id/lines/:lineID/confirm", moveHandler.ConfirmLine)

	// Impresión: encolado para callers, lease/ack para el agente
	print := api.Group("/print")
	printHandler := NewPrintHandler(deps.Dispatcher)
	print.Post("/product", printHandler.EnqueueProduct)
	print.Post("/jobs", printHandler.Enqueue)
	print.Get("/jobs", printHandler.List)
	print.Post("/jobs/lease", printHandler.Lease)
	print.Post("/jobs/:id/ack", printHandler.Ack)

	// Stock (solo lectura)
	stockHandler := NewStockHandler(deps.StockRepo)
	api.Get("/stock", stockHandler.List)

	// Catálogo de productos (el alta exige supervisor)
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductRepo)
	products.Post("/", RequireRole(domain.RoleSupervisor), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:code", productHandler.Get)
}
