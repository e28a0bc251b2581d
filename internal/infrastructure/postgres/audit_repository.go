package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo registro de auditoría append-only sobre PostgreSQL. Atado a la
// misma tx que el cambio de estado, la entrada y el cambio persisten juntos.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Append inserta una entrada. No existe camino de update ni delete.
func (r *AuditRepo) Append(entry *entity.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		INSERT INTO audit_log (id, entity, entity_id, action, payload, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.Entity, entry.EntityID, entry.Action, entry.Payload, entry.UserID,
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}
