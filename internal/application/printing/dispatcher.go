package printing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
	"github.com/jhoicas/picking-api/pkg/zpl"
)

// Config parámetros del despachador de impresión.
type Config struct {
	DefaultPrinter string        // impresora cuando el caller no indica una
	MaxAttempts    int           // intentos antes del estado error terminal
	LeaseFor       time.Duration // duración del lease de LeaseNext
	BackoffBase    time.Duration // base del backoff exponencial entre reintentos
	SweepEvery     time.Duration // periodo del barrido de leases vencidos
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.LeaseFor <= 0 {
		c.LeaseFor = 30 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 2 * time.Second
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = c.LeaseFor / 2
	}
	return c
}

// Dispatcher gestiona la cola de trabajos de impresión: encolar, lease para
// envío, acuse de éxito o fallo con reintentos acotados, y barrido de leases
// vencidos. Es el único escritor del ciclo de vida de PrintJob.
type Dispatcher struct {
	jobs repository.PrintJobRepository
	cfg  Config
	log  zerolog.Logger
}

// NewDispatcher construye el despachador.
func NewDispatcher(jobs repository.PrintJobRepository, cfg Config, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{jobs: jobs, cfg: cfg.withDefaults(), log: log}
}

// Enqueue crea un trabajo queued con attempts=0. Los payloads malformados se
// rechazan aquí: nunca entran a la cola.
func (d *Dispatcher) Enqueue(printerName, payload string, copies int) (*entity.PrintJob, error) {
	if printerName == "" {
		printerName = d.cfg.DefaultPrinter
	}
	if printerName == "" {
		return nil, fmt.Errorf("%w: impresora vacía", domain.ErrValidation)
	}
	if copies < 1 {
		return nil, fmt.Errorf("%w: copies debe ser al menos 1", domain.ErrValidation)
	}
	if !entity.ValidPrintPayload(payload) {
		return nil, fmt.Errorf("%w: payload ZPL malformado", domain.ErrValidation)
	}

	now := time.Now()
	job := &entity.PrintJob{
		ID:          uuid.New().String(),
		PrinterName: printerName,
		Payload:     payload,
		Copies:      copies,
		Status:      entity.PrintStatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := d.jobs.Create(job); err != nil {
		return nil, err
	}
	jobsEnqueued.WithLabelValues(printerName).Inc()
	d.log.Debug().Str("job_id", job.ID).Str("printer", printerName).Msg("trabajo de impresión encolado")
	return job, nil
}

// EnqueueProductLabel renderiza la etiqueta ZPL de producto y la encola.
func (d *Dispatcher) EnqueueProductLabel(printerName string, label zpl.ProductLabel, copies int) (*entity.PrintJob, error) {
	if label.ItemCode == "" {
		return nil, fmt.Errorf("%w: item_code vacío", domain.ErrValidation)
	}
	return d.Enqueue(printerName, zpl.RenderProductLabel(label), copies)
}

// LeaseNext reclama atómicamente el trabajo elegible más antiguo de la
// impresora (FIFO entre queued y retry con backoff vencido). Devuelve nil si
// no hay ninguno. El I/O contra la impresora física ocurre fuera de todo lock;
// el lease expira solo si el agente nunca confirma.
func (d *Dispatcher) LeaseNext(printerName string) (*entity.PrintJob, error) {
	if printerName == "" {
		printerName = d.cfg.DefaultPrinter
	}
	return d.jobs.LeaseNext(printerName, d.cfg.LeaseFor)
}

// MarkSent acusa transmisión correcta: estado sent, terminal.
func (d *Dispatcher) MarkSent(jobID string) error {
	job, err := d.jobs.GetByID(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return domain.ErrNotFound
	}
	if job.Terminal() {
		return fmt.Errorf("%w: el trabajo ya está en %s", domain.ErrInvalidTransition, job.Status)
	}
	if err := d.jobs.MarkSent(jobID); err != nil {
		return err
	}
	jobsSent.WithLabelValues(job.PrinterName).Inc()
	return nil
}

// MarkFailed acusa un fallo de transmisión. Incrementa attempts; por debajo de
// MaxAttempts el trabajo queda en retry (elegible tras el backoff), al
// alcanzarlo pasa a error terminal y se registra para el operador.
func (d *Dispatcher) MarkFailed(jobID, cause string) error {
	job, err := d.jobs.GetByID(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return domain.ErrNotFound
	}
	if job.Terminal() {
		return fmt.Errorf("%w: el trabajo ya está en %s", domain.ErrInvalidTransition, job.Status)
	}

	updated, err := d.jobs.MarkFailed(jobID, cause, d.cfg.MaxAttempts, d.cfg.BackoffBase)
	if err != nil {
		return err
	}
	if updated.Status == entity.PrintStatusError {
		jobsDead.WithLabelValues(updated.PrinterName).Inc()
		d.log.Error().
			Str("job_id", updated.ID).
			Str("printer", updated.PrinterName).
			Int("attempts", updated.Attempts).
			Str("last_error", cause).
			Msg("trabajo de impresión agotó los reintentos")
		return nil
	}
	jobsRetried.WithLabelValues(updated.PrinterName).Inc()
	d.log.Warn().
		Str("job_id", updated.ID).
		Int("attempts", updated.Attempts).
		Str("last_error", cause).
		Msg("fallo de impresión, en cola de reintento")
	return nil
}

// ListJobs trabajos de una impresora en un estado dado, FIFO.
func (d *Dispatcher) ListJobs(printerName, status string, limit int) ([]*entity.PrintJob, error) {
	if printerName == "" {
		printerName = d.cfg.DefaultPrinter
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	switch status {
	case entity.PrintStatusQueued, entity.PrintStatusSending, entity.PrintStatusRetry,
		entity.PrintStatusSent, entity.PrintStatusError:
	default:
		return nil, fmt.Errorf("%w: estado %q", domain.ErrValidation, status)
	}
	return d.jobs.ListByStatus(printerName, status, limit)
}

// SweepExpiredLeases libera los trabajos con el lease vencido. Los que agotaron
// intentos al vencer quedan en error terminal y se reportan con la misma
// visibilidad que un fallo acusado por el agente.
func (d *Dispatcher) SweepExpiredLeases() (int, error) {
	released, err := d.jobs.ReleaseExpired(d.cfg.MaxAttempts, d.cfg.BackoffBase)
	if err != nil {
		return 0, err
	}
	if len(released) == 0 {
		return 0, nil
	}

	leasesExpired.Add(float64(len(released)))
	retried := 0
	for _, job := range released {
		if job.Status == entity.PrintStatusError {
			jobsDead.WithLabelValues(job.PrinterName).Inc()
			d.log.Error().
				Str("job_id", job.ID).
				Str("printer", job.PrinterName).
				Int("attempts", job.Attempts).
				Msg("trabajo de impresión agotó los reintentos al vencer el lease")
			continue
		}
		jobsRetried.WithLabelValues(job.PrinterName).Inc()
		retried++
	}
	if retried > 0 {
		d.log.Warn().Int("released", retried).Msg("leases de impresión vencidos devueltos a retry")
	}
	return len(released), nil
}

// RunLeaseSweeper barrido periódico de leases vencidos hasta que ctx termine.
func (d *Dispatcher) RunLeaseSweeper(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.SweepExpiredLeases(); err != nil {
				d.log.Error().Err(err).Msg("barrido de leases de impresión")
			}
		}
	}
}
