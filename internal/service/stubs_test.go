package service

import (
	"context"
	"errors"

	"github.com/giulianopoliti/stockai/internal/model"

	"github.com/shopspring/decimal"
)

// iaStub implements ColaboradorIA with pluggable behavior per method. A nil
// function means "fail like an unreachable collaborator".
type iaStub struct {
	extraer     func(texto string) ([]model.ProductoDetectado, error)
	matchear    func(detectados []model.ProductoDetectado, stock []model.ProductoStock) (*model.Particion, error)
	analizar    func(texto string) (*model.AnalisisInventario, error)
	transcribir func(audio []byte) (string, error)
}

var errStubCaido = errors.New("colaborador caido")

func (s *iaStub) ExtraerProductos(_ context.Context, texto string, _ []string) ([]model.ProductoDetectado, error) {
	if s.extraer == nil {
		return nil, errStubCaido
	}
	return s.extraer(texto)
}

func (s *iaStub) MatchearInventario(_ context.Context, detectados []model.ProductoDetectado, stock []model.ProductoStock) (*model.Particion, error) {
	if s.matchear == nil {
		return nil, errStubCaido
	}
	return s.matchear(detectados, stock)
}

func (s *iaStub) AnalizarEntradaInventario(_ context.Context, texto string, _ []model.ProductoStock, _ []model.Proveedor) (*model.AnalisisInventario, error) {
	if s.analizar == nil {
		return nil, errStubCaido
	}
	return s.analizar(texto)
}

func (s *iaStub) Transcribir(_ context.Context, audio []byte, _ string) (string, error) {
	if s.transcribir == nil {
		return "", errStubCaido
	}
	return s.transcribir(audio)
}

// ocrStub implements LectorDocumentos.
type ocrStub struct {
	lineas []string
	err    error
}

func (s *ocrStub) ExtraerTexto(_ context.Context, _ []byte, _ string) ([]string, error) {
	return s.lineas, s.err
}

// ── Fixture helpers ──────────────────────────────────────────────────────────

func precioDe(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func proveedoresDePrueba() []model.Proveedor {
	return []model.Proveedor{
		{ID: 1, Nombre: "HIF HIH Distribuciones", Impuesto: decimal.NewFromFloat(21),
			CUIT: "30-71234567-8", Aliases: []string{"h&h", "hih", "hif", "h & h", "distribuciones"}},
		{ID: 2, Nombre: "SMALL TASTES", Impuesto: decimal.NewFromFloat(10.5),
			Aliases: []string{"small", "tastes", "small tastes"}},
		{ID: 3, Nombre: "Coca-Cola FEMSA", Impuesto: decimal.NewFromFloat(21),
			Aliases: []string{"coca", "cola", "coca-cola", "femsa"}},
		{ID: 4, Nombre: "Distribuidora Central", Impuesto: decimal.NewFromFloat(21),
			Aliases: []string{"central", "distribuidora", "dist central"}},
	}
}

func stockDePrueba() []model.ProductoStock {
	return []model.ProductoStock{
		{ID: 1, Nombre: "Coca-Cola 2L", Stock: 10, StockMinimo: 5, PrecioBase: decimal.NewFromInt(450), Categoria: "Bebidas", Codigo: "CC2L", ProveedorID: 3},
		{ID: 2, Nombre: "Twistos Minit Jamon 95G", Stock: 8, StockMinimo: 3, PrecioBase: decimal.NewFromInt(390), Categoria: "Snacks", Codigo: "TW95J", ProveedorID: 1},
		{ID: 3, Nombre: "Pan Lactal", Stock: 4, StockMinimo: 5, PrecioBase: decimal.NewFromInt(280), Categoria: "Panificados", Codigo: "PL001", ProveedorID: 4},
	}
}
