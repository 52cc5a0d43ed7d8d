package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductoStock is one catalog record of the persisted stock ledger.
// IDs are catalog-local and monotonically assigned; stock is mutated only
// via signed deltas, never overwritten wholesale. Stock may go negative —
// a salida larger than the current stock is recorded as-is and surfaces
// through the critical-stock alert instead of being clamped.
type ProductoStock struct {
	ID                  int             `json:"id" gorm:"primaryKey"`
	Nombre              string          `json:"nombre" gorm:"index;not null"`
	Stock               int             `json:"stock" gorm:"not null"`
	StockMinimo         int             `json:"stock_minimo" gorm:"not null;default:5"`
	PrecioBase          decimal.Decimal `json:"precio_base" gorm:"type:decimal(10,2);not null"` // tax-exclusive
	Categoria           string          `json:"categoria" gorm:"not null"`
	Codigo              string          `json:"codigo" gorm:"uniqueIndex;not null"`
	ProveedorID         int             `json:"proveedor_id" gorm:"index"`
	UltimaActualizacion time.Time       `json:"ultima_actualizacion"`
}

func (ProductoStock) TableName() string { return "productos_stock" }

// EsCritico reports whether the record sits at or below its minimum-stock
// threshold.
func (p *ProductoStock) EsCritico() bool { return p.Stock <= p.StockMinimo }
