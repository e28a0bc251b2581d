package entity

import (
	"strings"
	"time"
)

// Estados de un trabajo de impresión.
// queued  -> encolado, elegible para lease
// sending -> tomado por un agente (lease con expiración)
// retry   -> falló; elegible de nuevo cuando venza next_attempt_at
// sent    -> terminal, impreso
// error   -> terminal, agotó los reintentos; debe verlo un operador
const (
	PrintStatusQueued  = "queued"
	PrintStatusSending = "sending"
	PrintStatusRetry   = "retry"
	PrintStatusSent    = "sent"
	PrintStatusError   = "error"
)

// PrintJob trabajo de impresión de etiquetas. Su ciclo de vida lo gestiona
// únicamente el despachador de impresión.
type PrintJob struct {
	ID            string
	PrinterName   string
	Payload       string // ZPL crudo
	Copies        int
	Status        string
	Attempts      int
	LastError     *string
	LeasedUntil   *time.Time
	NextAttemptAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Terminal indica si el trabajo alcanzó un estado final.
func (j *PrintJob) Terminal() bool {
	return j.Status == PrintStatusSent || j.Status == PrintStatusError
}

// ValidPrintPayload valida la forma mínima de un payload ZPL: las etiquetas
// malformadas se rechazan al encolar, nunca entran a la cola.
func ValidPrintPayload(payload string) bool {
	p := strings.TrimSpace(payload)
	return strings.HasPrefix(p, "^XA") && strings.HasSuffix(p, "^XZ")
}

// PrintBackoff retardo antes del reintento número attempts (exponencial:
// base * 2^(attempts-1)).
func PrintBackoff(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		return base
	}
	return base * (1 << (attempts - 1))
}
