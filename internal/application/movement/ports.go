package movement

import (
	"context"

	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es la frontera atómica del motor: la
// confirmación de una línea, su delta de stock y su entrada de auditoría
// persisten juntos o no persiste ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		moveRepo repository.MoveRepository,
		stockRepo repository.StockRepository,
		auditRepo repository.AuditRepository,
	) error) error
}

// Actor identidad mínima que el colaborador externo de auth adjunta a cada
// llamada que cambia estado. El motor la registra y la pasa a la política de
// aprobación, pero no la verifica.
type Actor struct {
	ID   string
	Role string
}

// ApprovalPolicy decide si un actor puede aprobar movimientos. El control de
// acceso por roles vive fuera del motor; aquí solo se inyecta el predicado.
type ApprovalPolicy func(actor Actor) bool
