package printing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas del despachador de impresión, expuestas en /metrics del servidor
// lateral. Los trabajos en error terminal deben ser visibles para un operador.
var (
	jobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_enqueued_total",
		Help: "Trabajos de impresión encolados",
	}, []string{"printer"})

	jobsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_sent_total",
		Help: "Trabajos de impresión enviados con éxito",
	}, []string{"printer"})

	jobsRetried = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_retried_total",
		Help: "Fallos de transmisión que quedaron en retry",
	}, []string{"printer"})

	jobsDead = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "print_jobs_error_total",
		Help: "Trabajos que agotaron los reintentos (estado error)",
	}, []string{"printer"})

	leasesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "print_job_leases_expired_total",
		Help: "Leases de impresión vencidos liberados por el barrido",
	})
)
