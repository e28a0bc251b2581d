package repository

import "github.com/jhoicas/picking-api/internal/domain/entity"

// AuditRepository puerto del registro de auditoría. Solo inserta: el registro
// es append-only y debe ocurrir en la misma unidad atómica que el cambio de
// estado que documenta.
type AuditRepository interface {
	Append(entry *entity.AuditEntry) error
}
