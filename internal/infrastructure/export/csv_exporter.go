// Package export escribe el inventario en CSV con la forma de la tabla
// persistida (una fila por lote, historiales unidos por '|' para no romper
// las celdas).
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/spatrac/internal/domain/entity"
)

// CSVExporter implementa report.InventoryCSVWriter.
type CSVExporter struct{}

// NewCSVExporter construye el exportador.
func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

var inventoryHeader = []string{
	"Product Code", "Description", "Quantity", "Unit", "Department",
	"Sub-Department", "Supplier", "Batch/Lot", "Supplier Batch", "Sell By Date",
	"Received By", "Received Date", "Status", "Current Location",
	"Processed By", "Processing Date", "Handling History", "Temperature Log",
}

// WriteInventory escribe cabecera y una fila por lote.
func (e *CSVExporter) WriteInventory(w io.Writer, lots []*entity.Lot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(inventoryHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, lot := range lots {
		processingDate := ""
		if lot.ProcessedAt != nil {
			processingDate = lot.ProcessedAt.Format(time.DateTime)
		}
		row := []string{
			lot.ProductCode,
			lot.Description,
			lot.Quantity.String(),
			lot.Unit,
			lot.Department.String(),
			lot.SubDepartment,
			lot.Supplier,
			lot.BatchLot,
			lot.SupplierBatch,
			lot.SellByDate,
			lot.ReceivedBy,
			lot.ReceivedAt.Format(time.DateTime),
			lot.Status.String(),
			lot.CurrentLocation,
			lot.ProcessedBy,
			processingDate,
			strings.ReplaceAll(lot.HistoryText(), "\n", " | "),
			strings.ReplaceAll(lot.TemperatureText(), "\n", " | "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write lot %s: %w", lot.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
