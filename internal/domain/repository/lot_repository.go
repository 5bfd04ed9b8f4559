package repository

import (
	"context"

	"github.com/jhoicas/spatrac/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para lotes recibidos.
// Create y Update escriben el registro completo (tabla única, ver sqlite);
// un error de escritura obliga al llamador a NO publicar la mutación en
// memoria (contrato de atomicidad transición+auditoría).
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	Update(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	// GetByBatch resuelve la identidad externa (código de producto, lote de proveedor).
	GetByBatch(ctx context.Context, productCode, supplierBatch string) (*entity.Lot, error)
	List(ctx context.Context) ([]*entity.Lot, error)
	// ListByDepartment devuelve los lotes del departamento; con includeProcessed
	// en false sólo los pendientes (vista de inventario del manager).
	ListByDepartment(ctx context.Context, dept entity.Department, includeProcessed bool) ([]*entity.Lot, error)
	// ListPending devuelve todo lote aún no Processed (tabla de entregas pendientes).
	ListPending(ctx context.Context) ([]*entity.Lot, error)
	// DeleteUnprocessed elimina de forma irreversible todos los lotes no
	// procesados, de todos los departamentos. Devuelve cuántos borró.
	DeleteUnprocessed(ctx context.Context) (int64, error)
}
