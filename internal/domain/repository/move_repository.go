package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// MoveRepository puerto de persistencia de movimientos y sus líneas.
type MoveRepository interface {
	// Create persiste el movimiento con todas sus líneas (todo-o-nada).
	Create(move *entity.Move) error
	// GetByID devuelve el movimiento con sus líneas; nil, nil si no existe.
	GetByID(id string) (*entity.Move, error)
	// GetLineForUpdate obtiene una línea bloqueando su fila (SELECT FOR UPDATE)
	// para serializar confirmaciones concurrentes. nil, nil si no existe.
	GetLineForUpdate(lineID string) (*entity.MoveLine, error)
	// UpdateStatus cambia el estado con compare-and-set: solo escribe si el
	// estado actual es fromStatus. Si otro escritor ganó la carrera devuelve
	// domain.ErrInvalidTransition; approvedBy solo se escribe al aprobar.
	UpdateStatus(id, fromStatus, toStatus string, approvedBy *string) error
	// UpdateLineConfirmed escribe la nueva cantidad confirmada de la línea.
	UpdateLineConfirmed(lineID string, qtyConfirmed decimal.Decimal) error
}
