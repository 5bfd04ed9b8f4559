package repository

import "github.com/jhoicas/spatrac/internal/domain/entity"

// Catalog define el puerto de consulta del catálogo de proveedor.
// Cero coincidencias → domain.ErrNotFound; más de una → domain.ErrAmbiguousProduct.
type Catalog interface {
	FindByCode(code string) (*entity.CatalogProduct, error)
	FindBySupplierCode(code string) (*entity.CatalogProduct, error)
	FindByDescription(description string) (*entity.CatalogProduct, error)
	// Descriptions lista las descripciones únicas ordenadas (combos de la UI).
	Descriptions() []string
}
