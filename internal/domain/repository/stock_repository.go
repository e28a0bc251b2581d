package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// StockRepository puerto del libro de existencias. ApplyDelta es el ÚNICO
// camino de escritura de cantidades y debe ser componible dentro de la
// transacción mayor del motor de movimientos (repos atados a la misma tx).
type StockRepository interface {
	// GetQuantity devuelve la cantidad actual para la clave (cero si no hay fila).
	GetQuantity(key entity.StockKey) (decimal.Decimal, error)
	// ApplyDelta suma delta (con signo) a la fila de la clave de forma atómica.
	// Falla con domain.ErrInsufficientStock si qty+delta < 0; si no, devuelve
	// la cantidad resultante. Crea la fila en el primer movimiento que la toca.
	ApplyDelta(key entity.StockKey, delta decimal.Decimal) (decimal.Decimal, error)
	// List filas de stock ordenadas por ubicación e item (solo lectura).
	List(limit, offset int) ([]*entity.StockRow, error)
}
