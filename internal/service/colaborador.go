package service

import (
	"context"

	"github.com/giulianopoliti/stockai/internal/model"
)

// ColaboradorIA is the structured-language collaborator the pipeline degrades
// gracefully without. infra.IAClient implements it; tests plug in stubs.
type ColaboradorIA interface {
	ExtraerProductos(ctx context.Context, texto string, conocidos []string) ([]model.ProductoDetectado, error)
	MatchearInventario(ctx context.Context, detectados []model.ProductoDetectado, stock []model.ProductoStock) (*model.Particion, error)
	AnalizarEntradaInventario(ctx context.Context, texto string, stock []model.ProductoStock, proveedores []model.Proveedor) (*model.AnalisisInventario, error)
	Transcribir(ctx context.Context, audio []byte, nombreArchivo string) (string, error)
}

// LectorDocumentos is the document-text extraction collaborator (OCR sidecar).
type LectorDocumentos interface {
	ExtraerTexto(ctx context.Context, documento []byte, mimeType string) ([]string, error)
}
