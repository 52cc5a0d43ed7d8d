package handler

import (
	"net/http"

	"github.com/giulianopoliti/stockai/internal/dto"
	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type StockHandler struct {
	stock    service.StockService
	proceso  service.ProcesoService
	resolver service.ProveedorResolver
	tasaBase decimal.Decimal
}

func NewStockHandler(stock service.StockService, proceso service.ProcesoService, resolver service.ProveedorResolver, tasaBase decimal.Decimal) *StockHandler {
	return &StockHandler{stock: stock, proceso: proceso, resolver: resolver, tasaBase: tasaBase}
}

// GetStock handles GET /api/stock: the catalog enriched with each record's
// supplier name and tax-inclusive base price.
func (h *StockHandler) GetStock(c *gin.Context) {
	ctx := c.Request.Context()

	stock, err := h.stock.Listar(ctx)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	proveedores, err := h.resolver.Listar(ctx)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	nombres := make(map[int]string, len(proveedores))
	tasas := make(map[int]decimal.Decimal, len(proveedores))
	for _, p := range proveedores {
		nombres[p.ID] = p.Nombre
		tasas[p.ID] = p.Impuesto
	}

	uno := decimal.NewFromInt(1)
	cien := decimal.NewFromInt(100)
	items := make([]dto.StockItemResponse, 0, len(stock))
	for _, p := range stock {
		tasa, ok := tasas[p.ProveedorID]
		if !ok || tasa.IsZero() {
			tasa = h.tasaBase
		}
		items = append(items, dto.StockItemResponse{
			ProductoStock:          p,
			ProveedorNombre:        nombres[p.ProveedorID],
			PrecioBaseConImpuestos: p.PrecioBase.Mul(uno.Add(tasa.Div(cien))).Round(2),
		})
	}
	c.JSON(http.StatusOK, gin.H{"stock": items, "total": len(items)})
}

// UpdateStock handles PUT /api/stock: matches (when needed) and applies the
// confirmed detections to the ledger.
func (h *StockHandler) UpdateStock(c *gin.Context) {
	var req dto.ActualizarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resultado, err := h.proceso.ActualizarStock(c.Request.Context(), req.Productos)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AplicarStockResponse{
		Success:      true,
		Mensaje:      resultado.Mensaje(),
		Actualizados: resultado.Actualizados,
		Nuevos:       resultado.Nuevos,
		Errores:      resultado.Errores,
	})
}

// GetProveedores handles GET /api/proveedores.
func (h *StockHandler) GetProveedores(c *gin.Context) {
	proveedores, err := h.resolver.Listar(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if proveedores == nil {
		proveedores = []model.Proveedor{}
	}
	c.JSON(http.StatusOK, gin.H{"proveedores": proveedores, "total": len(proveedores)})
}
