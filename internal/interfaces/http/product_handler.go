package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// ProductHandler catálogo de productos (pegamento: el motor solo lo consulta).
type ProductHandler struct {
	productRepo repository.ProductRepository
}

// NewProductHandler construye el handler.
func NewProductHandler(productRepo repository.ProductRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo}
}

// Create POST /api/products — alta de producto.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ItemCode == "" || in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "item_code y name son obligatorios"})
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "UN"
	}
	product := &entity.Product{
		ItemCode:       in.ItemCode,
		Name:           in.Name,
		UnitMeasure:    in.UnitMeasure,
		RequiresLot:    in.RequiresLot,
		RequiresSerial: in.RequiresSerial,
		Active:         true,
	}
	if err := h.productRepo.Create(product); err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewProductResponse(product))
}

// Get GET /api/products/:code — producto por código.
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	product, err := h.productRepo.GetByCode(c.Params("code"))
	if err != nil {
		return errorJSON(c, err)
	}
	if product == nil {
		return errorJSON(c, domain.ErrNotFound)
	}
	return c.JSON(dto.NewProductResponse(product))
}

// List GET /api/products — catálogo paginado.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err == nil {
		page.DefaultPage()
	} else {
		page = dto.PageRequest{Limit: 20}
	}
	products, err := h.productRepo.List(page.Limit, page.Offset)
	if err != nil {
		return errorJSON(c, err)
	}
	resp := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, dto.NewProductResponse(p))
	}
	return c.JSON(resp)
}
