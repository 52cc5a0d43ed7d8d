package model

import (
	"github.com/shopspring/decimal"
)

// Acciones sobre el stock. An entrada increments the target record, a salida
// decrements it.
const (
	AccionEntrada = "entrada"
	AccionSalida  = "salida"
)

// ProductoDetectado is a transient candidate line-item produced by extraction.
// It is never persisted: the matcher enriches it, the tax calculator and the
// ledger applier consume it and discard it.
//
// Nombre should carry the full specification (size/flavor/weight) — two items
// differing only in specification are distinct products.
type ProductoDetectado struct {
	Nombre             string           `json:"nombre" validate:"required"`
	Cantidad           int              `json:"cantidad" validate:"gt=0"`
	PrecioSinImpuestos *decimal.Decimal `json:"precio_sin_impuestos,omitempty"` // nil when the source text carries no price
	PrecioConImpuestos *decimal.Decimal `json:"precio_con_impuestos,omitempty"`
	EsBonificacion     bool             `json:"es_bonificacion,omitempty"` // bonified (free) invoice lines
	Confianza          float64          `json:"confianza"`                 // 0–100

	// Matching-stage fields
	Accion     string `json:"accion,omitempty"` // entrada | salida
	EsNuevo    bool   `json:"es_nuevo,omitempty"`
	ProductoID *int   `json:"producto_id,omitempty"` // target catalog id when matched
}

// AccionONormal returns the provisional action, defaulting to entrada when
// the extractor left it empty.
func (p *ProductoDetectado) AccionONormal() string {
	if p.Accion == AccionSalida {
		return AccionSalida
	}
	return AccionEntrada
}

// Actualizacion targets an existing catalog record with a signed stock delta.
type Actualizacion struct {
	ProductoDetectado string `json:"producto_detectado"`
	StockID           int    `json:"stock_id"`
	StockNombre       string `json:"stock_nombre,omitempty"`
	Cantidad          int    `json:"cantidad"`
	Accion            string `json:"accion"`
}

// ProductoNuevo materializes as a fresh catalog record on apply.
type ProductoNuevo struct {
	Nombre             string           `json:"nombre"`
	Cantidad           int              `json:"cantidad"`
	Accion             string           `json:"accion"`
	PrecioSinImpuestos *decimal.Decimal `json:"precio_sin_impuestos,omitempty"`
}

// Particion is the catalog matcher's output. Invariant: every input candidate
// appears in exactly one of the two lists — no silent drops, no duplication.
type Particion struct {
	Actualizaciones []Actualizacion `json:"actualizaciones"`
	Nuevos          []ProductoNuevo `json:"nuevos"`
}

// Total returns the number of candidates the partition accounts for.
func (p *Particion) Total() int { return len(p.Actualizaciones) + len(p.Nuevos) }

// AnalisisInventario is the result of the matching-variant analysis used for
// voice transcripts: candidates arrive already flagged against the catalog,
// together with the supplier name the text mentioned (may be empty) and a
// short human-readable explanation.
type AnalisisInventario struct {
	Productos          []ProductoDetectado `json:"productos"`
	ProveedorDetectado string              `json:"proveedor_detectado"`
	Analisis           string              `json:"analisis_ia"`
}

// ResumenFactura is the derived invoice-level summary. It exists only when at
// least one line-item carried a price; "absent" is a distinct condition from
// "all totals are zero".
type ResumenFactura struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Impuestos decimal.Decimal `json:"impuestos"`
	Total     decimal.Decimal `json:"total"`
}
