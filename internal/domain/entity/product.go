package entity

import "time"

// Product representa un producto o SKU del almacén.
// ItemCode es la clave con la que lo referencian stock y líneas de movimiento;
// una vez referenciado solo cambian los campos descriptivos.
type Product struct {
	ID             string
	ItemCode       string // código único
	Name           string
	UnitMeasure    string
	RequiresLot    bool
	RequiresSerial bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
