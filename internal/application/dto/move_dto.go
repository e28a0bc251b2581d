package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// MoveLineRequest línea dentro de una creación de movimiento.
type MoveLineRequest struct {
	ItemCode     string          `json:"item_code"`
	Lot          *string         `json:"lot"`
	Serial       *string         `json:"serial"`
	Expiry       *string         `json:"expiry"` // aaaa-mm-dd
	Qty          decimal.Decimal `json:"qty"`
	LocationFrom string          `json:"location_from"`
	LocationTo   string          `json:"location_to"`
}

// CreateMoveRequest creación de un movimiento con sus líneas.
type CreateMoveRequest struct {
	DocType   string            `json:"doc_type"` // PO, SO, TR, RT
	DocNumber string            `json:"doc_number"`
	Lines     []MoveLineRequest `json:"lines"`
}

// ConfirmLineRequest confirmación parcial de una línea.
type ConfirmLineRequest struct {
	Delta decimal.Decimal `json:"delta"`
}

// MoveLineResponse representación HTTP de una línea.
type MoveLineResponse struct {
	ID           string          `json:"id"`
	ItemCode     string          `json:"item_code"`
	Lot          *string         `json:"lot,omitempty"`
	Serial       *string         `json:"serial,omitempty"`
	Expiry       *time.Time      `json:"expiry,omitempty"`
	Qty          decimal.Decimal `json:"qty"`
	QtyConfirmed decimal.Decimal `json:"qty_confirmed"`
	LocationFrom string          `json:"location_from"`
	LocationTo   string          `json:"location_to"`
}

// MoveResponse representación HTTP de un movimiento. FullyApplied es estado
// derivado: todas las líneas confirmadas por completo.
type MoveResponse struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	DocType      string             `json:"doc_type"`
	DocNumber    string             `json:"doc_number"`
	Status       string             `json:"status"`
	CreatedBy    string             `json:"created_by"`
	ApprovedBy   *string            `json:"approved_by,omitempty"`
	FullyApplied bool               `json:"fully_applied"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Lines        []MoveLineResponse `json:"lines"`
}

// NewMoveResponse arma la respuesta desde la entidad.
func NewMoveResponse(m *entity.Move) MoveResponse {
	resp := MoveResponse{
		ID:           m.ID,
		Type:         m.Type,
		DocType:      m.DocType,
		DocNumber:    m.DocNumber,
		Status:       m.Status,
		CreatedBy:    m.CreatedBy,
		ApprovedBy:   m.ApprovedBy,
		FullyApplied: m.FullyApplied(),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, l := range m.Lines {
		resp.Lines = append(resp.Lines, MoveLineResponse{
			ID:           l.ID,
			ItemCode:     l.ItemCode,
			Lot:          l.Lot,
			Serial:       l.Serial,
			Expiry:       l.Expiry,
			Qty:          l.Qty,
			QtyConfirmed: l.QtyConfirmed,
			LocationFrom: l.LocationFrom,
			LocationTo:   l.LocationTo,
		})
	}
	return resp
}
