package entity

import (
	"encoding/json"
	"time"
)

// AuditEntry registro inmutable de una acción que cambió estado.
// Solo se inserta; no hay camino de update ni delete.
type AuditEntry struct {
	ID        string
	Entity    string // move, move_line, print_job...
	EntityID  string
	Action    string // create, submit, approve, confirm, cancel...
	Payload   json.RawMessage
	UserID    string
	CreatedAt time.Time
}
