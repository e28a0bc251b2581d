package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// StockHandler consulta de existencias (solo lectura: la única escritura de
// stock es el ApplyDelta del motor de movimientos).
type StockHandler struct {
	stockRepo repository.StockRepository
}

// NewStockHandler construye el handler.
func NewStockHandler(stockRepo repository.StockRepository) *StockHandler {
	return &StockHandler{stockRepo: stockRepo}
}

// List GET /api/stock — filas de stock ordenadas por ubicación e item.
func (h *StockHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err == nil {
		page.DefaultPage()
	} else {
		page = dto.PageRequest{Limit: 20}
	}
	rows, err := h.stockRepo.List(page.Limit, page.Offset)
	if err != nil {
		return errorJSON(c, err)
	}
	resp := make([]dto.StockRowResponse, 0, len(rows))
	for _, s := range rows {
		resp = append(resp, dto.NewStockRowResponse(s))
	}
	return c.JSON(resp)
}
