package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación de ProductRepository sobre PostgreSQL.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un producto. item_code duplicado -> domain.ErrDuplicate.
func (r *ProductRepo) Create(product *entity.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	query := `
		INSERT INTO products (id, item_code, name, unit_measure, requires_lot, requires_serial, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.ItemCode, product.Name, product.UnitMeasure,
		product.RequiresLot, product.RequiresSerial, product.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: item_code %s", domain.ErrDuplicate, product.ItemCode)
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// GetByCode obtiene un producto por su código; nil, nil si no existe.
func (r *ProductRepo) GetByCode(itemCode string) (*entity.Product, error) {
	query := `
		SELECT id, item_code, name, unit_measure, requires_lot, requires_serial, active, created_at, updated_at
		FROM products WHERE item_code = $1`
	var p entity.Product
	err := r.q.QueryRow(context.Background(), query, itemCode).Scan(
		&p.ID, &p.ItemCode, &p.Name, &p.UnitMeasure,
		&p.RequiresLot, &p.RequiresSerial, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// List productos ordenados por código.
func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT id, item_code, name, unit_measure, requires_lot, requires_serial, active, created_at, updated_at
		FROM products
		ORDER BY item_code ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.ItemCode, &p.Name, &p.UnitMeasure,
			&p.RequiresLot, &p.RequiresSerial, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
