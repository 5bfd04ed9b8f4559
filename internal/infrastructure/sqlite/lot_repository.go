package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/spatrac/internal/domain/entity"
	"github.com/jhoicas/spatrac/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación del puerto LotRepository sobre SQLite.
type LotRepo struct {
	db *DB
}

// NewLotRepository construye el adaptador de persistencia para lotes.
func NewLotRepository(db *DB) *LotRepo {
	return &LotRepo{db: db}
}

const lotColumns = `id, product_code, supplier_product_code, description, supplier,
	batch_lot, supplier_batch, department, sub_department, quantity, unit,
	sell_by_date, received_by, received_date, status, current_location,
	processed_by, processing_date, handling_history, temperature_log`

// Create persiste un lote recién recibido.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO received_products (` + lotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, r.args(lot)...)
	if err != nil {
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// Update reescribe el registro completo del lote (tabla única, fila completa:
// la transición y su auditoría viajan en la misma escritura).
func (r *LotRepo) Update(ctx context.Context, lot *entity.Lot) error {
	query := `
		UPDATE received_products SET
			product_code = ?, supplier_product_code = ?, description = ?, supplier = ?,
			batch_lot = ?, supplier_batch = ?, department = ?, sub_department = ?,
			quantity = ?, unit = ?, sell_by_date = ?, received_by = ?, received_date = ?,
			status = ?, current_location = ?, processed_by = ?, processing_date = ?,
			handling_history = ?, temperature_log = ?
		WHERE id = ?`
	args := append(r.args(lot)[1:], lot.ID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update lot %s: no row", lot.ID)
	}
	return nil
}

// GetByID obtiene un lote por ID interno; (nil, nil) si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM received_products WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByBatch resuelve la identidad externa (código, lote de proveedor).
func (r *LotRepo) GetByBatch(ctx context.Context, productCode, supplierBatch string) (*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM received_products
		WHERE product_code = ? AND supplier_batch = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, productCode, supplierBatch))
}

// List devuelve todos los lotes en orden de recepción.
func (r *LotRepo) List(ctx context.Context) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM received_products ORDER BY received_date, id`
	return r.queryLots(ctx, query)
}

// ListByDepartment filtra por departamento; includeProcessed en false excluye
// los lotes ya procesados.
func (r *LotRepo) ListByDepartment(ctx context.Context, dept entity.Department, includeProcessed bool) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM received_products
		WHERE department = ? ORDER BY received_date, id`
	if !includeProcessed {
		query = `SELECT ` + lotColumns + ` FROM received_products
		WHERE department = ? AND status != 'Processed' ORDER BY received_date, id`
	}
	return r.queryLots(ctx, query, string(dept))
}

// ListPending devuelve todo lote aún no procesado.
func (r *LotRepo) ListPending(ctx context.Context) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM received_products
		WHERE status != 'Processed' ORDER BY received_date, id`
	return r.queryLots(ctx, query)
}

// DeleteUnprocessed elimina todos los lotes no procesados. Irreversible.
func (r *LotRepo) DeleteUnprocessed(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM received_products WHERE status != 'Processed'`)
	if err != nil {
		return 0, fmt.Errorf("delete unprocessed lots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete unprocessed lots: %w", err)
	}
	return n, nil
}

// args serializa el lote al orden de lotColumns.
func (r *LotRepo) args(lot *entity.Lot) []any {
	var processedBy, processingDate sql.NullString
	if lot.ProcessedBy != "" {
		processedBy = sql.NullString{String: lot.ProcessedBy, Valid: true}
	}
	if lot.ProcessedAt != nil {
		processingDate = sql.NullString{String: lot.ProcessedAt.Format(time.DateTime), Valid: true}
	}
	return []any{
		lot.ID, lot.ProductCode, lot.SupplierProductCode, lot.Description, lot.Supplier,
		lot.BatchLot, lot.SupplierBatch, string(lot.Department), lot.SubDepartment,
		lot.Quantity.String(), lot.Unit, lot.SellByDate, lot.ReceivedBy,
		lot.ReceivedAt.Format(time.DateTime), string(lot.Status), lot.CurrentLocation,
		processedBy, processingDate, lot.HistoryText(), lot.TemperatureText(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LotRepo) scanOne(row rowScanner) (*entity.Lot, error) {
	lot, err := scanLot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return lot, nil
}

func (r *LotRepo) queryLots(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, lot)
	}
	return list, rows.Err()
}

func scanLot(row rowScanner) (*entity.Lot, error) {
	var (
		lot            entity.Lot
		dept, status   string
		quantity       string
		receivedDate   string
		processedBy    sql.NullString
		processingDate sql.NullString
		history        string
		temperatures   string
	)
	err := row.Scan(
		&lot.ID, &lot.ProductCode, &lot.SupplierProductCode, &lot.Description, &lot.Supplier,
		&lot.BatchLot, &lot.SupplierBatch, &dept, &lot.SubDepartment, &quantity, &lot.Unit,
		&lot.SellByDate, &lot.ReceivedBy, &receivedDate, &status, &lot.CurrentLocation,
		&processedBy, &processingDate, &history, &temperatures,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan lot: %w", err)
	}

	lot.Department = entity.Department(dept)
	lot.Status = entity.Status(status)
	if lot.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, fmt.Errorf("scan lot %s quantity: %w", lot.ID, err)
	}
	if lot.ReceivedAt, err = time.Parse(time.DateTime, receivedDate); err != nil {
		return nil, fmt.Errorf("scan lot %s received_date: %w", lot.ID, err)
	}
	if processedBy.Valid {
		lot.ProcessedBy = processedBy.String
	}
	if processingDate.Valid {
		ts, err := time.Parse(time.DateTime, processingDate.String)
		if err != nil {
			return nil, fmt.Errorf("scan lot %s processing_date: %w", lot.ID, err)
		}
		lot.ProcessedAt = &ts
	}
	if lot.History, err = historyFromText(history); err != nil {
		return nil, fmt.Errorf("scan lot %s: %w", lot.ID, err)
	}
	if lot.Temperatures, err = temperaturesFromText(temperatures); err != nil {
		return nil, fmt.Errorf("scan lot %s: %w", lot.ID, err)
	}
	return &lot, nil
}
