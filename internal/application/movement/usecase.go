package movement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// Config opciones del motor de movimientos.
type Config struct {
	// CreateStatus estado con el que nacen los movimientos: draft o pending.
	// El original crea en pending (enviado, a la espera de aprobación); draft
	// deja el documento editable hasta Submit.
	CreateStatus string
}

// UseCase motor de movimientos: ciclo de vida Move/MoveLine y aplicación
// atómica de cantidades confirmadas al libro de existencias.
type UseCase struct {
	txRunner    TxRunner
	moveRepo    repository.MoveRepository
	productRepo repository.ProductRepository
	canApprove  ApprovalPolicy
	cfg         Config
}

// NewUseCase construye el motor. canApprove nil deniega toda aprobación.
func NewUseCase(
	txRunner TxRunner,
	moveRepo repository.MoveRepository,
	productRepo repository.ProductRepository,
	canApprove ApprovalPolicy,
	cfg Config,
) *UseCase {
	if cfg.CreateStatus != entity.MoveStatusDraft {
		cfg.CreateStatus = entity.MoveStatusPending
	}
	return &UseCase{
		txRunner:    txRunner,
		moveRepo:    moveRepo,
		productRepo: productRepo,
		canApprove:  canApprove,
		cfg:         cfg,
	}
}

// CreateLineInput línea de un movimiento nuevo.
type CreateLineInput struct {
	ItemCode     string
	Lot          *string
	Serial       *string
	Expiry       *time.Time
	Qty          decimal.Decimal
	LocationFrom string
	LocationTo   string
}

// CreateMoveInput entrada de CreateMove. El tipo de movimiento se deriva del
// doc_type (PO->inbound, SO->outbound, TR->transfer, RT->return).
type CreateMoveInput struct {
	DocType   string
	DocNumber string
	Lines     []CreateLineInput
}

// CreateMove valida y persiste un movimiento con sus líneas, todo-o-nada.
// Devuelve *domain.ValidationError con cada línea ofensiva si algo no valida.
func (uc *UseCase) CreateMove(ctx context.Context, in CreateMoveInput, actor Actor) (*entity.Move, error) {
	moveType, ok := entity.MoveTypeForDoc(in.DocType)
	if !ok {
		return nil, fmt.Errorf("%w: doc_type %q", domain.ErrValidation, in.DocType)
	}
	if in.DocNumber == "" {
		return nil, fmt.Errorf("%w: doc_number vacío", domain.ErrValidation)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: un movimiento necesita al menos una línea", domain.ErrValidation)
	}

	var lineErrs []domain.LineError
	for i, ln := range in.Lines {
		lineErrs = append(lineErrs, uc.validateLine(i, ln, moveType)...)
	}
	if len(lineErrs) > 0 {
		return nil, &domain.ValidationError{Lines: lineErrs}
	}

	now := time.Now()
	move := &entity.Move{
		ID:        uuid.New().String(),
		Type:      moveType,
		DocType:   in.DocType,
		DocNumber: in.DocNumber,
		Status:    uc.cfg.CreateStatus,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ln := range in.Lines {
		move.Lines = append(move.Lines, &entity.MoveLine{
			ID:           uuid.New().String(),
			MoveID:       move.ID,
			ItemCode:     ln.ItemCode,
			Lot:          ln.Lot,
			Serial:       ln.Serial,
			Expiry:       ln.Expiry,
			Qty:          ln.Qty,
			QtyConfirmed: decimal.Zero,
			LocationFrom: ln.LocationFrom,
			LocationTo:   ln.LocationTo,
		})
	}

	err := uc.txRunner.Run(ctx, func(
		moveRepo repository.MoveRepository,
		_ repository.StockRepository,
		auditRepo repository.AuditRepository,
	) error {
		if err := moveRepo.Create(move); err != nil {
			return err
		}
		return auditRepo.Append(auditEntry("move", move.ID, "create", actor.ID, map[string]any{
			"doc_type":   move.DocType,
			"doc_number": move.DocNumber,
			"status":     move.Status,
			"lines":      len(move.Lines),
		}))
	})
	if err != nil {
		return nil, err
	}
	return move, nil
}

// validateLine reglas por línea: producto activo existente, lote/serie
// obligatorios según el producto, cantidad positiva, ubicaciones según tipo.
func (uc *UseCase) validateLine(idx int, ln CreateLineInput, moveType string) []domain.LineError {
	var errs []domain.LineError
	fail := func(field, detail string) {
		errs = append(errs, domain.LineError{Index: idx, Field: field, Detail: detail})
	}

	if !ln.Qty.GreaterThan(decimal.Zero) {
		fail("qty", "debe ser mayor que cero")
	}

	product, err := uc.productRepo.GetByCode(ln.ItemCode)
	if err != nil {
		fail("item_code", "no se pudo consultar el producto")
		return errs
	}
	switch {
	case product == nil:
		fail("item_code", "producto no existe")
	case !product.Active:
		fail("item_code", "producto inactivo")
	default:
		if product.RequiresLot && (ln.Lot == nil || *ln.Lot == "") {
			fail("lot", "el producto exige lote")
		}
		if product.RequiresSerial && (ln.Serial == nil || *ln.Serial == "") {
			fail("serial", "el producto exige número de serie")
		}
	}

	needsFrom := moveType == entity.MoveTypeOutbound || moveType == entity.MoveTypeTransfer
	needsTo := moveType == entity.MoveTypeInbound || moveType == entity.MoveTypeReturn || moveType == entity.MoveTypeTransfer
	if needsFrom && ln.LocationFrom == "" {
		fail("location_from", "ubicación de origen obligatoria")
	}
	if needsTo && ln.LocationTo == "" {
		fail("location_to", "ubicación de destino obligatoria")
	}
	return errs
}

// Submit transiciona draft -> pending (enviado, a la espera de aprobación).
func (uc *UseCase) Submit(ctx context.Context, moveID string, actor Actor) error {
	return uc.txRunner.Run(ctx, func(
		moveRepo repository.MoveRepository,
		_ repository.StockRepository,
		auditRepo repository.AuditRepository,
	) error {
		move, err := moveRepo.GetByID(moveID)
		if err != nil {
			return err
		}
		if move == nil {
			return domain.ErrNotFound
		}
		if !move.CanSubmit() {
			return fmt.Errorf("%w: submit desde %s", domain.ErrInvalidTransition, move.Status)
		}
		if err := moveRepo.UpdateStatus(moveID, entity.MoveStatusDraft, entity.MoveStatusPending, nil); err != nil {
			return err
		}
		return auditRepo.Append(auditEntry("move", moveID, "submit", actor.ID, nil))
	})
}

// Approve transiciona pending -> approved. La política de aprobación es un
// predicado inyectado: el motor no conoce roles ni credenciales.
func (uc *UseCase) Approve(ctx context.Context, moveID string, actor Actor) error {
	if uc.canApprove == nil || !uc.canApprove(actor) {
		return domain.ErrForbidden
	}
	return uc.txRunner.Run(ctx, func(
		moveRepo repository.MoveRepository,
		_ repository.StockRepository,
		auditRepo repository.AuditRepository,
	) error {
		move, err := moveRepo.GetByID(moveID)
		if err != nil {
			return err
		}
		if move == nil {
			return domain.ErrNotFound
		}
		if !move.CanApprove() {
			return fmt.Errorf("%w: approve desde %s", domain.ErrInvalidTransition, move.Status)
		}
		approver := actor.ID
		if err := moveRepo.UpdateStatus(moveID, entity.MoveStatusPending, entity.MoveStatusApproved, &approver); err != nil {
			return err
		}
		return auditRepo.Append(auditEntry("move", moveID, "approve", actor.ID, nil))
	})
}

// Cancel transiciona draft|pending -> cancelled (terminal). Un movimiento
// aprobado nunca se cancela: sus líneas pueden haber tocado stock.
func (uc *UseCase) Cancel(ctx context.Context, moveID string, actor Actor) error {
	return uc.txRunner.Run(ctx, func(
		moveRepo repository.MoveRepository,
		_ repository.StockRepository,
		auditRepo repository.AuditRepository,
	) error {
		move, err := moveRepo.GetByID(moveID)
		if err != nil {
			return err
		}
		if move == nil {
			return domain.ErrNotFound
		}
		if !move.CanCancel() {
			return fmt.Errorf("%w: cancel desde %s", domain.ErrInvalidTransition, move.Status)
		}
		// CAS sobre el estado leído: si Approve ganó la carrera, este cancel
		// afecta cero filas y falla en lugar de pisar un movimiento aprobado.
		if err := moveRepo.UpdateStatus(moveID, move.Status, entity.MoveStatusCancelled, nil); err != nil {
			return err
		}
		return auditRepo.Append(auditEntry("move", moveID, "cancel", actor.ID, nil))
	})
}

// ConfirmLine incrementa la cantidad confirmada de una línea y aplica el delta
// al libro de existencias en UNA transacción: bloqueo de la línea, delta de
// stock (compare-and-update, nunca negativo), auditoría y nueva cantidad
// confirmada persisten juntos o se revierte todo.
//
// outbound resta en location_from; inbound y return suman en location_to;
// transfer resta en origen Y suma en destino.
func (uc *UseCase) ConfirmLine(ctx context.Context, moveID, lineID string, delta decimal.Decimal, actor Actor) (*entity.MoveLine, error) {
	if !delta.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: el delta debe ser mayor que cero", domain.ErrValidation)
	}

	var confirmed *entity.MoveLine
	err := uc.txRunner.Run(ctx, func(
		moveRepo repository.MoveRepository,
		stockRepo repository.StockRepository,
		auditRepo repository.AuditRepository,
	) error {
		move, err := moveRepo.GetByID(moveID)
		if err != nil {
			return err
		}
		if move == nil {
			return domain.ErrNotFound
		}
		if !move.CanConfirm() {
			return fmt.Errorf("%w: confirmar con estado %s", domain.ErrInvalidTransition, move.Status)
		}

		line, err := moveRepo.GetLineForUpdate(lineID)
		if err != nil {
			return err
		}
		if line == nil || line.MoveID != moveID {
			return domain.ErrNotFound
		}
		if delta.GreaterThan(line.Remaining()) {
			return fmt.Errorf("%w: pendiente %s, delta %s",
				domain.ErrOverConfirmation, line.Remaining(), delta)
		}

		if err := applyStockDeltas(stockRepo, move.Type, line, delta); err != nil {
			return err
		}

		line.QtyConfirmed = line.QtyConfirmed.Add(delta)
		if err := moveRepo.UpdateLineConfirmed(lineID, line.QtyConfirmed); err != nil {
			return err
		}
		confirmed = line

		return auditRepo.Append(auditEntry("move_line", lineID, "confirm", actor.ID, map[string]any{
			"move_id":       moveID,
			"item_code":     line.ItemCode,
			"delta":         delta.String(),
			"qty_confirmed": line.QtyConfirmed.String(),
			"location_from": line.LocationFrom,
			"location_to":   line.LocationTo,
		}))
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// applyStockDeltas deltas de stock según el tipo de movimiento. El rechazo por
// stock insuficiente descarta el delta completo (la tx hace rollback).
func applyStockDeltas(stockRepo repository.StockRepository, moveType string, line *entity.MoveLine, delta decimal.Decimal) error {
	fromKey := entity.NewStockKey(line.ItemCode, line.Lot, line.Serial, line.LocationFrom)
	toKey := entity.NewStockKey(line.ItemCode, line.Lot, line.Serial, line.LocationTo)

	switch moveType {
	case entity.MoveTypeOutbound:
		_, err := stockRepo.ApplyDelta(fromKey, delta.Neg())
		return err
	case entity.MoveTypeInbound, entity.MoveTypeReturn:
		_, err := stockRepo.ApplyDelta(toKey, delta)
		return err
	case entity.MoveTypeTransfer:
		if _, err := stockRepo.ApplyDelta(fromKey, delta.Neg()); err != nil {
			return err
		}
		_, err := stockRepo.ApplyDelta(toKey, delta)
		return err
	}
	return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrValidation, moveType)
}

// GetMove devuelve el movimiento con sus líneas. El cierre es implícito:
// consultar Move.FullyApplied(), no hay estado almacenado equivalente.
func (uc *UseCase) GetMove(ctx context.Context, moveID string) (*entity.Move, error) {
	move, err := uc.moveRepo.GetByID(moveID)
	if err != nil {
		return nil, err
	}
	if move == nil {
		return nil, domain.ErrNotFound
	}
	return move, nil
}

// auditEntry arma una entrada de auditoría con payload JSON.
func auditEntry(entityName, entityID, action, userID string, payload map[string]any) *entity.AuditEntry {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	return &entity.AuditEntry{
		Entity:   entityName,
		EntityID: entityID,
		Action:   action,
		Payload:  raw,
		UserID:   userID,
	}
}
