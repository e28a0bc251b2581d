package repository

import (
	"time"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// PrintJobRepository puerto de persistencia de trabajos de impresión.
// Las operaciones de cambio de estado son atómicas fila a fila: dos workers
// nunca obtienen el mismo trabajo en LeaseNext.
type PrintJobRepository interface {
	Create(job *entity.PrintJob) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(id string) (*entity.PrintJob, error)
	// LeaseNext toma el trabajo elegible más antiguo (FIFO por creación) de la
	// impresora: queued, o retry con next_attempt_at vencido. Lo marca sending
	// con leased_until = now()+leaseFor y lo devuelve. nil, nil si no hay.
	LeaseNext(printerName string, leaseFor time.Duration) (*entity.PrintJob, error)
	// MarkSent transición terminal a sent. Sobre un trabajo ya terminal (un
	// ack tardío tras vencer el lease) no escribe y devuelve
	// domain.ErrInvalidTransition.
	MarkSent(id string) error
	// MarkFailed incrementa attempts y registra lastError. Si attempts alcanza
	// maxAttempts el trabajo queda en error (terminal); si no, en retry con
	// next_attempt_at = now() + backoffBase*2^(attempts-1). Devuelve el trabajo
	// actualizado; sobre un trabajo ya terminal no escribe y devuelve
	// domain.ErrInvalidTransition.
	MarkFailed(id, lastError string, maxAttempts int, backoffBase time.Duration) (*entity.PrintJob, error)
	// ReleaseExpired libera los trabajos sending con el lease vencido (cuenta
	// un intento): vuelven a retry, o a error si lo agotaron. Devuelve los
	// trabajos liberados con su estado resultante.
	ReleaseExpired(maxAttempts int, backoffBase time.Duration) ([]*entity.PrintJob, error)
	// ListByStatus trabajos de una impresora en un estado, FIFO.
	ListByStatus(printerName, status string, limit int) ([]*entity.PrintJob, error)
}
