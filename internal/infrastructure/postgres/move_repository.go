package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.MoveRepository = (*MoveRepo)(nil)

// MoveRepo implementación de MoveRepository sobre PostgreSQL (usable con pool o tx).
type MoveRepo struct {
	q Querier
}

// NewMoveRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMoveRepository(q Querier) *MoveRepo {
	return &MoveRepo{q: q}
}

// Create persiste el movimiento con todas sus líneas. doc_number duplicado
// para el mismo doc_type devuelve domain.ErrDuplicate.
func (r *MoveRepo) Create(move *entity.Move) error {
	ctx := context.Background()
	query := `
		INSERT INTO moves (id, type, doc_type, doc_number, status, created_by, approved_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		move.ID, move.Type, move.DocType, move.DocNumber, move.Status,
		move.CreatedBy, move.ApprovedBy, move.CreatedAt, move.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", domain.ErrDuplicate, move.DocType, move.DocNumber)
		}
		return fmt.Errorf("create move: %w", err)
	}

	lineQuery := `
		INSERT INTO move_lines (id, move_id, item_code, lot, serial, expiry, qty, qty_confirmed, location_from, location_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, ln := range move.Lines {
		if _, err := r.q.Exec(ctx, lineQuery,
			ln.ID, ln.MoveID, ln.ItemCode, ln.Lot, ln.Serial, ln.Expiry,
			ln.Qty, ln.QtyConfirmed, ln.LocationFrom, ln.LocationTo,
		); err != nil {
			return fmt.Errorf("create move line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el movimiento con sus líneas; nil, nil si no existe.
func (r *MoveRepo) GetByID(id string) (*entity.Move, error) {
	ctx := context.Background()
	query := `
		SELECT id, type, doc_type, doc_number, status, created_by, approved_by, created_at, updated_at
		FROM moves WHERE id = $1`
	var m entity.Move
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Type, &m.DocType, &m.DocNumber, &m.Status,
		&m.CreatedBy, &m.ApprovedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get move: %w", err)
	}

	lineQuery := `
		SELECT id, move_id, item_code, lot, serial, expiry, qty, qty_confirmed, location_from, location_to
		FROM move_lines WHERE move_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, lineQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get move lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ln entity.MoveLine
		if err := rows.Scan(&ln.ID, &ln.MoveID, &ln.ItemCode, &ln.Lot, &ln.Serial,
			&ln.Expiry, &ln.Qty, &ln.QtyConfirmed, &ln.LocationFrom, &ln.LocationTo); err != nil {
			return nil, fmt.Errorf("scan move line: %w", err)
		}
		m.Lines = append(m.Lines, &ln)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetLineForUpdate obtiene una línea bloqueando su fila (SELECT FOR UPDATE):
// dos confirmaciones concurrentes de la misma línea se serializan aquí.
func (r *MoveRepo) GetLineForUpdate(lineID string) (*entity.MoveLine, error) {
	query := `
		SELECT id, move_id, item_code, lot, serial, expiry, qty, qty_confirmed, location_from, location_to
		FROM move_lines WHERE id = $1
		FOR UPDATE`
	var ln entity.MoveLine
	err := r.q.QueryRow(context.Background(), query, lineID).Scan(
		&ln.ID, &ln.MoveID, &ln.ItemCode, &ln.Lot, &ln.Serial,
		&ln.Expiry, &ln.Qty, &ln.QtyConfirmed, &ln.LocationFrom, &ln.LocationTo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get line for update: %w", err)
	}
	return &ln, nil
}

// UpdateStatus cambia el estado con compare-and-set sobre el estado actual:
// dos transiciones concurrentes desde el mismo estado se serializan en la fila
// y solo una gana (un movimiento aprobado nunca termina cancelado).
func (r *MoveRepo) UpdateStatus(id, fromStatus, toStatus string, approvedBy *string) error {
	ctx := context.Background()
	query := `
		UPDATE moves
		SET status = $3, approved_by = COALESCE($4, approved_by), updated_at = now()
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query, id, fromStatus, toStatus, approvedBy)
	if err != nil {
		return fmt.Errorf("update move status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM moves WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("update move status: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: el movimiento ya no está en %s", domain.ErrInvalidTransition, fromStatus)
	}
	return nil
}

// UpdateLineConfirmed escribe la nueva cantidad confirmada de la línea.
func (r *MoveRepo) UpdateLineConfirmed(lineID string, qtyConfirmed decimal.Decimal) error {
	query := `UPDATE move_lines SET qty_confirmed = $2 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, lineID, qtyConfirmed)
	if err != nil {
		return fmt.Errorf("update line confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
