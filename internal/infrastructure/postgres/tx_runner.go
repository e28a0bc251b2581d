package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/picking-api/internal/application/movement"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// Ensure TxRunner implements movement.TxRunner.
var _ movement.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Es la unidad atómica de ConfirmLine: línea, stock y
// auditoría persisten juntos o ninguno.
func (r *TxRunner) Run(ctx context.Context, fn func(
	moveRepo repository.MoveRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	moveRepo := NewMoveRepository(tx)
	stockRepo := NewStockRepository(tx)
	auditRepo := NewAuditRepository(tx)

	if err := fn(moveRepo, stockRepo, auditRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
