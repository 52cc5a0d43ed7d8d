package model

import (
	"github.com/shopspring/decimal"
)

// Proveedor represents a supplier with its commercial data and tax rate.
// Suppliers are seed data: the core only reads them to decide which tax
// rate applies to a detected invoice or voice note.
type Proveedor struct {
	ID        int             `json:"id" gorm:"primaryKey"`
	Nombre    string          `json:"nombre" gorm:"not null"`
	Impuesto  decimal.Decimal `json:"impuesto" gorm:"type:decimal(5,2);not null"` // percentage, e.g. 21.00
	Telefono  string          `json:"telefono"`
	CUIT      string          `json:"cuit,omitempty" gorm:"column:cuit"`
	Email     string          `json:"email,omitempty"`
	Direccion string          `json:"direccion,omitempty"`

	// Aliases are free-text keywords that map loose mentions to this supplier
	// ("h&h", "hih", "distribuciones" → HIF HIH Distribuciones). Used by the
	// second resolution tier.
	Aliases []string `json:"aliases,omitempty" gorm:"serializer:json"`
}

func (Proveedor) TableName() string { return "proveedores" }
