package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con
// pool o tx). lot y serial se guardan como '' cuando no aplican; el índice
// único cubre la tupla normalizada.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// GetQuantity obtiene la cantidad actual para la clave; cero si no hay fila.
func (r *StockRepo) GetQuantity(key entity.StockKey) (decimal.Decimal, error) {
	query := `
		SELECT quantity FROM stock
		WHERE item_code = $1 AND lot = $2 AND serial = $3 AND location = $4`
	var qty decimal.Decimal
	err := r.q.QueryRow(context.Background(), query,
		key.ItemCode, key.Lot, key.Serial, key.Location,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get quantity: %w", err)
	}
	return qty, nil
}

// ApplyDelta suma delta a la fila de la clave en UNA sentencia atómica
// (compare-and-update): dos confirmaciones concurrentes sobre la misma clave
// se serializan en la fila y la cantidad nunca baja de cero.
func (r *StockRepo) ApplyDelta(key entity.StockKey, delta decimal.Decimal) (decimal.Decimal, error) {
	var qty decimal.Decimal

	if delta.IsNegative() {
		// Solo puede restar una fila existente con saldo suficiente; cero
		// filas significa fila inexistente o saldo insuficiente.
		query := `
			UPDATE stock
			SET quantity = quantity + $5, updated_at = now()
			WHERE item_code = $1 AND lot = $2 AND serial = $3 AND location = $4
			  AND quantity + $5 >= 0
			RETURNING quantity`
		err := r.q.QueryRow(context.Background(), query,
			key.ItemCode, key.Lot, key.Serial, key.Location, delta,
		).Scan(&qty)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return decimal.Zero, domain.ErrInsufficientStock
			}
			return decimal.Zero, fmt.Errorf("apply delta: %w", err)
		}
		return qty, nil
	}

	// Incremento: crea la fila en el primer movimiento que toca la clave.
	// Las filas en cero nunca se borran (ancla histórica).
	query := `
		INSERT INTO stock (id, item_code, lot, serial, location, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (item_code, lot, serial, location)
		DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING quantity`
	err := r.q.QueryRow(context.Background(), query,
		uuid.New().String(), key.ItemCode, key.Lot, key.Serial, key.Location, delta,
	).Scan(&qty)
	if err != nil {
		return decimal.Zero, fmt.Errorf("apply delta: %w", err)
	}
	return qty, nil
}

// List filas de stock ordenadas por ubicación e item (solo lectura).
func (r *StockRepo) List(limit, offset int) ([]*entity.StockRow, error) {
	query := `
		SELECT id, item_code, lot, serial, location, quantity, created_at, updated_at
		FROM stock
		ORDER BY location ASC, item_code ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockRow
	for rows.Next() {
		var s entity.StockRow
		if err := rows.Scan(&s.ID, &s.Key.ItemCode, &s.Key.Lot, &s.Key.Serial,
			&s.Key.Location, &s.Quantity, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
