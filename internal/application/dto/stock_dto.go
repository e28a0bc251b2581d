package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// StockRowResponse existencias de una clave (item, lote, serie, ubicación).
type StockRowResponse struct {
	ID        string          `json:"id"`
	ItemCode  string          `json:"item_code"`
	Lot       string          `json:"lot,omitempty"`
	Serial    string          `json:"serial,omitempty"`
	Location  string          `json:"location"`
	Quantity  decimal.Decimal `json:"quantity"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewStockRowResponse arma la respuesta desde la entidad.
func NewStockRowResponse(s *entity.StockRow) StockRowResponse {
	return StockRowResponse{
		ID:        s.ID,
		ItemCode:  s.Key.ItemCode,
		Lot:       s.Key.Lot,
		Serial:    s.Key.Serial,
		Location:  s.Key.Location,
		Quantity:  s.Quantity,
		UpdatedAt: s.UpdatedAt,
	}
}
