package dto

import (
	"time"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// PrintProductRequest encola la etiqueta ZPL de un producto.
type PrintProductRequest struct {
	ItemCode    string `json:"item_code"`
	ItemName    string `json:"item_name"`
	EntryDate   string `json:"entry_date"` // dd-mm-aaaa; vacío = hoy
	Copies      int    `json:"copies"`
	PrinterName string `json:"printer_name"` // vacío = impresora por defecto
}

// PrintEnqueueRequest encola un payload ZPL ya renderizado.
type PrintEnqueueRequest struct {
	PrinterName string `json:"printer_name"`
	Payload     string `json:"payload"`
	Copies      int    `json:"copies"`
}

// PrintAckRequest acuse del agente de impresión tras el intento físico.
type PrintAckRequest struct {
	Status string `json:"status"` // sent | error
	Error  string `json:"error"`
}

// PrintJobResponse representación HTTP de un trabajo de impresión.
type PrintJobResponse struct {
	ID            string     `json:"id"`
	PrinterName   string     `json:"printer_name"`
	Payload       string     `json:"payload"`
	Copies        int        `json:"copies"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastError     *string    `json:"last_error,omitempty"`
	LeasedUntil   *time.Time `json:"leased_until,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewPrintJobResponse arma la respuesta desde la entidad.
func NewPrintJobResponse(j *entity.PrintJob) PrintJobResponse {
	return PrintJobResponse{
		ID:            j.ID,
		PrinterName:   j.PrinterName,
		Payload:       j.Payload,
		Copies:        j.Copies,
		Status:        j.Status,
		Attempts:      j.Attempts,
		LastError:     j.LastError,
		LeasedUntil:   j.LeasedUntil,
		NextAttemptAt: j.NextAttemptAt,
		CreatedAt:     j.CreatedAt,
	}
}
