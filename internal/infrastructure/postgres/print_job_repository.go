package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.PrintJobRepository = (*PrintJobRepo)(nil)

// PrintJobRepo cola de trabajos de impresión sobre PostgreSQL. El lease usa
// FOR UPDATE SKIP LOCKED: dos agentes nunca reclaman el mismo trabajo.
type PrintJobRepo struct {
	q Querier
}

// NewPrintJobRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPrintJobRepository(q Querier) *PrintJobRepo {
	return &PrintJobRepo{q: q}
}

const printJobColumns = `id, printer_name, payload, copies, status, attempts, last_error, leased_until, next_attempt_at, created_at, updated_at`

func scanPrintJob(row pgx.Row) (*entity.PrintJob, error) {
	var j entity.PrintJob
	err := row.Scan(&j.ID, &j.PrinterName, &j.Payload, &j.Copies, &j.Status,
		&j.Attempts, &j.LastError, &j.LeasedUntil, &j.NextAttemptAt,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Create persiste un trabajo nuevo.
func (r *PrintJobRepo) Create(job *entity.PrintJob) error {
	query := `
		INSERT INTO print_jobs (id, printer_name, payload, copies, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		job.ID, job.PrinterName, job.Payload, job.Copies, job.Status, job.Attempts,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create print job: %w", err)
	}
	return nil
}

// GetByID obtiene un trabajo; nil, nil si no existe.
func (r *PrintJobRepo) GetByID(id string) (*entity.PrintJob, error) {
	query := `SELECT ` + printJobColumns + ` FROM print_jobs WHERE id = $1`
	job, err := scanPrintJob(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get print job: %w", err)
	}
	return job, nil
}

// LeaseNext reclama atómicamente el trabajo elegible más antiguo (FIFO por
// created_at) de la impresora: queued, o retry con el backoff vencido.
// SKIP LOCKED evita que dos workers se bloqueen o reclamen el mismo trabajo.
func (r *PrintJobRepo) LeaseNext(printerName string, leaseFor time.Duration) (*entity.PrintJob, error) {
	query := `
		UPDATE print_jobs
		SET status = 'sending',
		    leased_until = now() + make_interval(secs => $2),
		    updated_at = now()
		WHERE id = (
			SELECT id FROM print_jobs
			WHERE printer_name = $1
			  AND (status = 'queued'
			       OR (status = 'retry' AND (next_attempt_at IS NULL OR next_attempt_at <= now())))
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + printJobColumns
	job, err := scanPrintJob(r.q.QueryRow(context.Background(), query, printerName, leaseFor.Seconds()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lease print job: %w", err)
	}
	return job, nil
}

// MarkSent transición terminal a sent. El predicado de estado vive en el
// UPDATE: un ack tardío (el lease venció y otro agente ya cerró el trabajo)
// afecta cero filas y no pisa el estado terminal.
func (r *PrintJobRepo) MarkSent(id string) error {
	query := `
		UPDATE print_jobs
		SET status = 'sent', leased_until = NULL, updated_at = now()
		WHERE id = $1 AND status NOT IN ('sent', 'error')`
	tag, err := r.q.Exec(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.terminalOrNotFound(id)
	}
	return nil
}

// terminalOrNotFound distingue por qué un UPDATE con guarda terminal afectó
// cero filas.
func (r *PrintJobRepo) terminalOrNotFound(id string) error {
	job, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if job == nil {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: el trabajo ya está en %s", domain.ErrInvalidTransition, job.Status)
}

// MarkFailed incrementa attempts y decide retry o error terminal en la misma
// sentencia. El próximo intento espera backoffBase*2^(attempts-1).
func (r *PrintJobRepo) MarkFailed(id, lastError string, maxAttempts int, backoffBase time.Duration) (*entity.PrintJob, error) {
	query := `
		UPDATE print_jobs
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN 'error' ELSE 'retry' END,
		    next_attempt_at = CASE WHEN attempts + 1 >= $3 THEN NULL
		                           ELSE now() + make_interval(secs => $4 * power(2, attempts)) END,
		    leased_until = NULL,
		    updated_at = now()
		WHERE id = $1 AND status NOT IN ('sent', 'error')
		RETURNING ` + printJobColumns
	job, err := scanPrintJob(r.q.QueryRow(context.Background(), query,
		id, lastError, maxAttempts, backoffBase.Seconds()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.terminalOrNotFound(id)
		}
		return nil, fmt.Errorf("mark failed: %w", err)
	}
	return job, nil
}

// ReleaseExpired libera los trabajos sending con el lease vencido: a retry, o
// a error si agotaron intentos. Un agente que nunca confirma cuenta un intento.
// Devuelve las filas liberadas para que el despachador reporte las terminales.
func (r *PrintJobRepo) ReleaseExpired(maxAttempts int, backoffBase time.Duration) ([]*entity.PrintJob, error) {
	query := `
		UPDATE print_jobs
		SET attempts = attempts + 1,
		    last_error = 'lease vencido',
		    status = CASE WHEN attempts + 1 >= $1 THEN 'error' ELSE 'retry' END,
		    next_attempt_at = CASE WHEN attempts + 1 >= $1 THEN NULL
		                           ELSE now() + make_interval(secs => $2 * power(2, attempts)) END,
		    leased_until = NULL,
		    updated_at = now()
		WHERE status = 'sending' AND leased_until < now()
		RETURNING ` + printJobColumns
	rows, err := r.q.Query(context.Background(), query, maxAttempts, backoffBase.Seconds())
	if err != nil {
		return nil, fmt.Errorf("release expired: %w", err)
	}
	defer rows.Close()

	var released []*entity.PrintJob
	for rows.Next() {
		var j entity.PrintJob
		if err := rows.Scan(&j.ID, &j.PrinterName, &j.Payload, &j.Copies, &j.Status,
			&j.Attempts, &j.LastError, &j.LeasedUntil, &j.NextAttemptAt,
			&j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan released job: %w", err)
		}
		released = append(released, &j)
	}
	return released, rows.Err()
}

// ListByStatus trabajos de una impresora en un estado, FIFO.
func (r *PrintJobRepo) ListByStatus(printerName, status string, limit int) ([]*entity.PrintJob, error) {
	query := `
		SELECT ` + printJobColumns + `
		FROM print_jobs
		WHERE printer_name = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT $3`
	rows, err := r.q.Query(context.Background(), query, printerName, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list print jobs: %w", err)
	}
	defer rows.Close()

	var list []*entity.PrintJob
	for rows.Next() {
		var j entity.PrintJob
		if err := rows.Scan(&j.ID, &j.PrinterName, &j.Payload, &j.Copies, &j.Status,
			&j.Attempts, &j.LastError, &j.LeasedUntil, &j.NextAttemptAt,
			&j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan print job: %w", err)
		}
		list = append(list, &j)
	}
	return list, rows.Err()
}
