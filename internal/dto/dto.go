package dto

// Request / response shapes for the HTTP surface. Validation tags are
// enforced by the shared bindAndValidate helper in the handler layer.

import (
	"github.com/giulianopoliti/stockai/internal/model"

	"github.com/shopspring/decimal"
)

// ── Requests ─────────────────────────────────────────────────────────────────

// TextoRequest carries free text describing incoming/outgoing merchandise.
type TextoRequest struct {
	Texto string `json:"texto" validate:"required,min=3"`
}

// ActualizarStockRequest carries confirmed detections to apply to the ledger.
// Entries may arrive pre-matched (producto_id / es_nuevo set by a previous
// processing call) or raw, in which case the catalog matcher runs first.
type ActualizarStockRequest struct {
	Productos []model.ProductoDetectado `json:"productos" validate:"required,min=1,dive"`
}

// ── Responses ────────────────────────────────────────────────────────────────

// ProveedorResumen is the supplier slice embedded in processing responses.
type ProveedorResumen struct {
	ID       int             `json:"id"`
	Nombre   string          `json:"nombre"`
	Impuesto decimal.Decimal `json:"impuesto"`
}

// ProcesoResponse is the invoice / free-text processing result.
type ProcesoResponse struct {
	Success       bool                      `json:"success"`
	Productos     []model.ProductoDetectado `json:"productos"`
	Proveedor     *ProveedorResumen         `json:"proveedor,omitempty"`
	Resumen       *model.ResumenFactura     `json:"resumen,omitempty"`
	TextoCompleto string                    `json:"texto_completo,omitempty"`
	Metodo        string                    `json:"metodo"`
}

// AudioResponse is the voice-note processing result. Productos carry match
// flags so the client can review before confirming via PUT /api/stock.
type AudioResponse struct {
	Success            bool                      `json:"success"`
	Transcripcion      string                    `json:"transcripcion"`
	Productos          []model.ProductoDetectado `json:"productos"`
	ProveedorDetectado string                    `json:"proveedor_detectado,omitempty"`
	Analisis           string                    `json:"analisis_ia,omitempty"`
	Proveedor          *ProveedorResumen         `json:"proveedor,omitempty"`
	Resumen            *model.ResumenFactura     `json:"resumen,omitempty"`
	Metodo             string                    `json:"metodo"`
}

// StockItemResponse enriches a catalog record with its supplier's name and
// the tax-inclusive base price.
type StockItemResponse struct {
	model.ProductoStock
	ProveedorNombre        string          `json:"proveedor_nombre,omitempty"`
	PrecioBaseConImpuestos decimal.Decimal `json:"precio_base_con_impuestos"`
}

// AplicarStockResponse reports the ledger-apply counters.
type AplicarStockResponse struct {
	Success      bool   `json:"success"`
	Mensaje      string `json:"mensaje"`
	Actualizados int    `json:"actualizados"`
	Nuevos       int    `json:"nuevos"`
	Errores      int    `json:"errores"`
}
