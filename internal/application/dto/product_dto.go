package dto

import (
	"time"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// CreateProductRequest alta de un producto en el catálogo.
type CreateProductRequest struct {
	ItemCode       string `json:"item_code"`
	Name           string `json:"name"`
	UnitMeasure    string `json:"unit_measure"`
	RequiresLot    bool   `json:"requires_lot"`
	RequiresSerial bool   `json:"requires_serial"`
}

// ProductResponse representación HTTP de un producto.
type ProductResponse struct {
	ID             string    `json:"id"`
	ItemCode       string    `json:"item_code"`
	Name           string    `json:"name"`
	UnitMeasure    string    `json:"unit_measure"`
	RequiresLot    bool      `json:"requires_lot"`
	RequiresSerial bool      `json:"requires_serial"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewProductResponse arma la respuesta desde la entidad.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		ItemCode:       p.ItemCode,
		Name:           p.Name,
		UnitMeasure:    p.UnitMeasure,
		RequiresLot:    p.RequiresLot,
		RequiresSerial: p.RequiresSerial,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
	}
}
