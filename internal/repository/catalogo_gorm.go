package repository

import (
	"context"

	"github.com/giulianopoliti/stockai/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormCatalogo stores the catalog in Postgres. It keeps the same
// load-snapshot / save-snapshot semantics as the flat-file store so the
// pipeline above it does not care which driver is configured.
type gormCatalogo struct {
	db *gorm.DB
}

func NewGormCatalogo(db *gorm.DB) CatalogoRepository {
	return &gormCatalogo{db: db}
}

func (r *gormCatalogo) CargarProveedores(ctx context.Context) ([]model.Proveedor, error) {
	var proveedores []model.Proveedor
	err := r.db.WithContext(ctx).Order("id").Find(&proveedores).Error
	return proveedores, err
}

func (r *gormCatalogo) CargarStock(ctx context.Context) ([]model.ProductoStock, error) {
	var productos []model.ProductoStock
	err := r.db.WithContext(ctx).Order("id").Find(&productos).Error
	return productos, err
}

// GuardarStock rewrites the full snapshot: upsert every record, delete the
// ones no longer present. Runs in one transaction so readers never observe a
// half-written catalog.
func (r *gormCatalogo) GuardarStock(ctx context.Context, productos []model.ProductoStock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]int, 0, len(productos))
		for _, p := range productos {
			ids = append(ids, p.ID)
		}
		if len(productos) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&productos).Error; err != nil {
				return err
			}
			return tx.Where("id NOT IN ?", ids).Delete(&model.ProductoStock{}).Error
		}
		return tx.Where("1 = 1").Delete(&model.ProductoStock{}).Error
	})
}

func (r *gormCatalogo) GuardarProveedores(ctx context.Context, proveedores []model.Proveedor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(proveedores) == 0 {
			return tx.Where("1 = 1").Delete(&model.Proveedor{}).Error
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&proveedores).Error
	})
}
