package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giulianopoliti/stockai/internal/model"
)

// CatalogoRepository is the snapshot contract the pipeline persists through:
// the catalog is read in full before a run and written in full after a ledger
// apply. The interface keeps the matching logic independent from the storage
// driver and lets tests run against the in-memory fake.
type CatalogoRepository interface {
	CargarProveedores(ctx context.Context) ([]model.Proveedor, error)
	CargarStock(ctx context.Context) ([]model.ProductoStock, error)
	GuardarStock(ctx context.Context, productos []model.ProductoStock) error
	GuardarProveedores(ctx context.Context, proveedores []model.Proveedor) error
}

// ── JSON flat-file store ─────────────────────────────────────────────────────

const (
	stockFile       = "stock.json"
	proveedoresFile = "proveedores.json"
)

type jsonCatalogo struct {
	dir string
}

// NewJSONCatalogo persists the catalog as pretty-printed JSON files under dir.
// A missing file reads as an empty catalog, not an error.
func NewJSONCatalogo(dir string) CatalogoRepository {
	return &jsonCatalogo{dir: dir}
}

func (r *jsonCatalogo) CargarProveedores(_ context.Context) ([]model.Proveedor, error) {
	var proveedores []model.Proveedor
	if err := r.load(proveedoresFile, &proveedores); err != nil {
		return nil, err
	}
	return proveedores, nil
}

func (r *jsonCatalogo) CargarStock(_ context.Context) ([]model.ProductoStock, error) {
	var productos []model.ProductoStock
	if err := r.load(stockFile, &productos); err != nil {
		return nil, err
	}
	return productos, nil
}

func (r *jsonCatalogo) GuardarStock(_ context.Context, productos []model.ProductoStock) error {
	return r.save(stockFile, productos)
}

func (r *jsonCatalogo) GuardarProveedores(_ context.Context, proveedores []model.Proveedor) error {
	return r.save(proveedoresFile, proveedores)
}

func (r *jsonCatalogo) load(name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("catalogo: leer %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("catalogo: parsear %s: %w", name, err)
	}
	return nil
}

// save writes through a temp file + rename so that a crash mid-write never
// leaves a truncated catalog behind.
func (r *jsonCatalogo) save(name string, v interface{}) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("catalogo: crear %s: %w", r.dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("catalogo: serializar %s: %w", name, err)
	}
	path := filepath.Join(r.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("catalogo: escribir %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("catalogo: renombrar %s: %w", name, err)
	}
	return nil
}
