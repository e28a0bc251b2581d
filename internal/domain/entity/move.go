package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un movimiento.
// draft    -> editable, aún no enviado
// pending  -> enviado, a la espera de aprobación
// approved -> aprobado, sus líneas pueden confirmarse
// cancelled-> terminal; solo alcanzable desde draft o pending
const (
	MoveStatusDraft     = "draft"
	MoveStatusPending   = "pending"
	MoveStatusApproved  = "approved"
	MoveStatusCancelled = "cancelled"
)

// Tipos de movimiento y tipos de documento que los originan.
const (
	MoveTypeInbound  = "inbound"
	MoveTypeOutbound = "outbound"
	MoveTypeTransfer = "transfer"
	MoveTypeReturn   = "return"

	DocTypePO = "PO" // orden de compra -> inbound
	DocTypeSO = "SO" // orden de venta  -> outbound
	DocTypeTR = "TR" // traslado        -> transfer
	DocTypeRT = "RT" // devolución      -> return
)

// docTypeToMoveType mapeo doc_type -> type (mismo que el servicio original).
var docTypeToMoveType = map[string]string{
	DocTypePO: MoveTypeInbound,
	DocTypeSO: MoveTypeOutbound,
	DocTypeTR: MoveTypeTransfer,
	DocTypeRT: MoveTypeReturn,
}

// MoveTypeForDoc devuelve el tipo de movimiento para un doc_type.
// ok=false si el doc_type no es PO/SO/TR/RT.
func MoveTypeForDoc(docType string) (string, bool) {
	t, ok := docTypeToMoveType[docType]
	return t, ok
}

// Move documento de movimiento de inventario. Posee sus líneas en exclusiva
// (se borran en cascada con él).
type Move struct {
	ID         string
	Type       string // inbound, outbound, transfer, return
	DocType    string // PO, SO, TR, RT
	DocNumber  string
	Status     string
	CreatedBy  string
	ApprovedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []*MoveLine
}

// MoveLine una línea confirmable de forma independiente y parcial.
// QtyConfirmed solo crece, nunca supera Qty y solo la escribe el motor.
type MoveLine struct {
	ID           string
	MoveID       string
	ItemCode     string
	Lot          *string
	Serial       *string
	Expiry       *time.Time
	Qty          decimal.Decimal
	QtyConfirmed decimal.Decimal
	LocationFrom string
	LocationTo   string
}

// Remaining cantidad pendiente de confirmar de la línea.
func (l *MoveLine) Remaining() decimal.Decimal {
	return l.Qty.Sub(l.QtyConfirmed)
}

// FullyApplied indica si todas las líneas están confirmadas por completo.
// Es estado derivado: no existe un status almacenado equivalente.
func (m *Move) FullyApplied() bool {
	if len(m.Lines) == 0 {
		return false
	}
	for _, l := range m.Lines {
		if l.QtyConfirmed.LessThan(l.Qty) {
			return false
		}
	}
	return true
}

// CanSubmit el movimiento puede pasar de draft a pending.
func (m *Move) CanSubmit() bool { return m.Status == MoveStatusDraft }

// CanApprove el movimiento puede pasar de pending a approved.
func (m *Move) CanApprove() bool { return m.Status == MoveStatusPending }

// CanCancel solo draft y pending se cancelan; un movimiento aprobado nunca
// (evita cambios de stock huérfanos).
func (m *Move) CanCancel() bool {
	return m.Status == MoveStatusDraft || m.Status == MoveStatusPending
}

// CanConfirm las líneas solo se confirman con el movimiento aprobado.
func (m *Move) CanConfirm() bool { return m.Status == MoveStatusApproved }

// LineByID busca una línea del movimiento; nil si no pertenece a él.
func (m *Move) LineByID(lineID string) *MoveLine {
	for _, l := range m.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}
