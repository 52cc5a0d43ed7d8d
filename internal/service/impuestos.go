package service

// impuestos.go — per-line tax application and invoice summary.

import (
	"github.com/giulianopoliti/stockai/internal/model"

	"github.com/shopspring/decimal"
)

var cien = decimal.NewFromInt(100)

// CalcularImpuestos stamps the tax-inclusive unit price on every priced
// line-item (price × (1 + tasa/100), rounded to 2 decimals) and derives the
// invoice summary. The tax amount is computed over the invoice subtotal
// (subtotal × tasa/100), not by summing per-line rounded taxes — the two
// diverge by cents on rounding-sensitive prices. Returns nil instead of a
// zero-valued summary when no line carried a price — "no priced lines" is a
// different condition from "everything cost zero".
func CalcularImpuestos(productos []model.ProductoDetectado, tasa decimal.Decimal) *model.ResumenFactura {
	factor := decimal.NewFromInt(1).Add(tasa.Div(cien))

	subtotal := decimal.Zero
	for i := range productos {
		p := &productos[i]
		if p.EsBonificacion {
			// Bonified lines ship free of charge: inclusive price zero,
			// excluded from the totals.
			cero := decimal.Zero
			p.PrecioConImpuestos = &cero
			continue
		}
		if p.PrecioSinImpuestos == nil {
			continue
		}
		conImp := p.PrecioSinImpuestos.Mul(factor).Round(2)
		p.PrecioConImpuestos = &conImp

		subtotal = subtotal.Add(p.PrecioSinImpuestos.Mul(decimal.NewFromInt(int64(p.Cantidad))))
	}

	if subtotal.IsZero() {
		return nil
	}
	subtotal = subtotal.Round(2)
	impuestos := subtotal.Mul(tasa.Div(cien)).Round(2)
	return &model.ResumenFactura{
		Subtotal:  subtotal,
		Impuestos: impuestos,
		Total:     subtotal.Add(impuestos),
	}
}

// TasaEfectiva picks the tax rate for a run: the resolved supplier's
// configured rate, or the service-wide default when no supplier resolved.
func TasaEfectiva(proveedor *model.Proveedor, porDefecto decimal.Decimal) decimal.Decimal {
	if proveedor != nil && !proveedor.Impuesto.IsZero() {
		return proveedor.Impuesto
	}
	return porDefecto
}
