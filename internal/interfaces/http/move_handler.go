package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/application/movement"
)

// MoveHandler expone las operaciones del motor de movimientos.
type MoveHandler struct {
	uc *movement.UseCase
}

// NewMoveHandler construye el handler.
func NewMoveHandler(uc *movement.UseCase) *MoveHandler {
	return &MoveHandler{uc: uc}
}

func actorFrom(c *fiber.Ctx) movement.Actor {
	return movement.Actor{ID: GetUserID(c), Role: GetRole(c)}
}

// Create POST /api/moves — crea un movimiento con sus líneas (todo-o-nada).
func (h *MoveHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMoveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	input := movement.CreateMoveInput{
		DocType:   in.DocType,
		DocNumber: in.DocNumber,
	}
	for _, ln := range in.Lines {
		line := movement.CreateLineInput{
			ItemCode:     ln.ItemCode,
			Lot:          ln.Lot,
			Serial:       ln.Serial,
			Qty:          ln.Qty,
			LocationFrom: ln.LocationFrom,
			LocationTo:   ln.LocationTo,
		}
		if ln.Expiry != nil && *ln.Expiry != "" {
			exp, err := time.Parse("2006-01-02", *ln.Expiry)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expiry: formato aaaa-mm-dd"})
			}
			line.Expiry = &exp
		}
		input.Lines = append(input.Lines, line)
	}

	move, err := h.uc.CreateMove(c.Context(), input, actorFrom(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMoveResponse(move))
}

// Get GET /api/moves/:id — movimiento con líneas y fully_applied derivado.
func (h *MoveHandler) Get(c *fiber.Ctx) error {
	move, err := h.uc.GetMove(c.Context(), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(dto.NewMoveResponse(move))
}

// Submit POST /api/moves/:id/submit — draft -> pending.
func (h *MoveHandler) Submit(c *fiber.Ctx) error {
	if err := h.uc.Submit(c.Context(), c.Params("id"), actorFrom(c)); err != nil {
		return errorJSON(c, err)
	}
	return h.Get(c)
}

// Approve POST /api/moves/:id/approve — pending -> approved; la política de
// aprobación inyectada en el motor decide si el actor puede.
func (h *MoveHandler) Approve(c *fiber.Ctx) error {
	if err := h.uc.Approve(c.Context(), c.Params("id"), actorFrom(c)); err != nil {
		return errorJSON(c, err)
	}
	return h.Get(c)
}

// Cancel POST /api/moves/:id/cancel — draft|pending -> cancelled.
func (h *MoveHandler) Cancel(c *fiber.Ctx) error {
	if err := h.uc.Cancel(c.Context(), c.Params("id"), actorFrom(c)); err != nil {
		return errorJSON(c, err)
	}
	return h.Get(c)
}

// ConfirmLine POST /api/moves/:id/lines/:lineID/confirm — confirma un delta de
// la línea y aplica el stock en la misma transacción.
func (h *MoveHandler) ConfirmLine(c *fiber.Ctx) error {
	var in dto.ConfirmLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	_, err := h.uc.ConfirmLine(c.Context(), c.Params("id"), c.Params("lineID"), in.Delta, actorFrom(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return h.Get(c)
}
