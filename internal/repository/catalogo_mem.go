package repository

import (
	"context"
	"sync"

	"github.com/giulianopoliti/stockai/internal/model"
)

// memCatalogo is the in-memory fake used by unit tests.
type memCatalogo struct {
	mu          sync.RWMutex
	proveedores []model.Proveedor
	stock       []model.ProductoStock
}

func NewMemCatalogo(proveedores []model.Proveedor, stock []model.ProductoStock) CatalogoRepository {
	return &memCatalogo{proveedores: proveedores, stock: stock}
}

func (r *memCatalogo) CargarProveedores(_ context.Context) ([]model.Proveedor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Proveedor, len(r.proveedores))
	copy(out, r.proveedores)
	return out, nil
}

func (r *memCatalogo) CargarStock(_ context.Context) ([]model.ProductoStock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ProductoStock, len(r.stock))
	copy(out, r.stock)
	return out, nil
}

func (r *memCatalogo) GuardarStock(_ context.Context, productos []model.ProductoStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock = make([]model.ProductoStock, len(productos))
	copy(r.stock, productos)
	return nil
}

func (r *memCatalogo) GuardarProveedores(_ context.Context, proveedores []model.Proveedor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proveedores = make([]model.Proveedor, len(proveedores))
	copy(r.proveedores, proveedores)
	return nil
}
