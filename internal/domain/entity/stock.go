package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica una fila de stock: (item, lote, serie, ubicación).
// Lot y Serial vacíos significan "sin lote"/"sin serie"; la normalización
// NULL→"" replica el índice único del esquema original (coalesce(lot,'')).
type StockKey struct {
	ItemCode string
	Lot      string
	Serial   string
	Location string
}

// NewStockKey construye la clave normalizando lote y serie opcionales.
func NewStockKey(itemCode string, lot, serial *string, location string) StockKey {
	k := StockKey{ItemCode: itemCode, Location: location}
	if lot != nil {
		k.Lot = *lot
	}
	if serial != nil {
		k.Serial = *serial
	}
	return k
}

// StockRow existencias de un producto en una ubicación. La cantidad nunca es
// negativa y solo la escribe el motor de movimientos vía ApplyDelta; las filas
// en cero se conservan como ancla histórica.
type StockRow struct {
	ID        string
	Key       StockKey
	Quantity  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
