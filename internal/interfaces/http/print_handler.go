package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/application/printing"
	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/pkg/zpl"
)

// PrintHandler expone la cola de impresión: encolado para los callers y
// lease/ack para el agente de impresión externo.
type PrintHandler struct {
	dispatcher *printing.Dispatcher
}

// NewPrintHandler construye el handler.
func NewPrintHandler(dispatcher *printing.Dispatcher) *PrintHandler {
	return &PrintHandler{dispatcher: dispatcher}
}

// EnqueueProduct POST /api/print/product — renderiza y encola la etiqueta.
func (h *PrintHandler) EnqueueProduct(c *fiber.Ctx) error {
	var in dto.PrintProductRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Copies < 1 {
		in.Copies = 1
	}
	entryDate := in.EntryDate
	if entryDate == "" {
		entryDate = time.Now().Format("02-01-2006")
	}
	job, err := h.dispatcher.EnqueueProductLabel(in.PrinterName, zpl.ProductLabel{
		ItemCode:  in.ItemCode,
		ItemName:  in.ItemName,
		EntryDate: entryDate,
	}, in.Copies)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewPrintJobResponse(job))
}

// Enqueue POST /api/print/jobs — encola un payload ZPL ya renderizado.
func (h *PrintHandler) Enqueue(c *fiber.Ctx) error {
	var in dto.PrintEnqueueRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	job, err := h.dispatcher.Enqueue(in.PrinterName, in.Payload, in.Copies)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewPrintJobResponse(job))
}

// List GET /api/print/jobs?status=queued&limit=25 — visibilidad de la cola;
// status=error es la bandeja del operador.
func (h *PrintHandler) List(c *fiber.Ctx) error {
	status := c.Query("status", entity.PrintStatusQueued)
	limit := c.QueryInt("limit", 25)
	jobs, err := h.dispatcher.ListJobs(c.Query("printer"), status, limit)
	if err != nil {
		return errorJSON(c, err)
	}
	resp := make([]dto.PrintJobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp = append(resp, dto.NewPrintJobResponse(j))
	}
	return c.JSON(resp)
}

// Lease POST /api/print/jobs/lease?printer=X — el agente reclama el siguiente
// trabajo elegible. 204 cuando no hay ninguno.
func (h *PrintHandler) Lease(c *fiber.Ctx) error {
	job, err := h.dispatcher.LeaseNext(c.Query("printer"))
	if err != nil {
		return errorJSON(c, err)
	}
	if job == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(dto.NewPrintJobResponse(job))
}

// Ack POST /api/print/jobs/:id/ack — el agente reporta el resultado del envío
// físico: sent o error (con la causa).
func (h *PrintHandler) Ack(c *fiber.Ctx) error {
	var in dto.PrintAckRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	jobID := c.Params("id")

	var err error
	switch in.Status {
	case entity.PrintStatusSent:
		err = h.dispatcher.MarkSent(jobID)
	case entity.PrintStatusError:
		err = h.dispatcher.MarkFailed(jobID, in.Error)
	default:
		err = fmt.Errorf("%w: status de ack %q", domain.ErrValidation, in.Status)
	}
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
