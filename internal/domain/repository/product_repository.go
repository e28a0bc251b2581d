package repository

import "github.com/jhoicas/picking-api/internal/domain/entity"

// ProductRepository puerto de persistencia del catálogo de productos.
// El motor de movimientos solo necesita GetByCode (colaborador de catálogo);
// Create y List existen para el pegamento HTTP.
type ProductRepository interface {
	Create(product *entity.Product) error
	// GetByCode devuelve nil, nil si el código no existe.
	GetByCode(itemCode string) (*entity.Product, error)
	List(limit, offset int) ([]*entity.Product, error)
}
