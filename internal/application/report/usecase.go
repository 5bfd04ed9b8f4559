// Package report arma los reportes de trazabilidad (PDF con código de barras)
// y el exporte CSV del inventario. Render y formato de archivo viven en
// infraestructura; aquí sólo la selección de lotes.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/jhoicas/spatrac/internal/domain"
	"github.com/jhoicas/spatrac/internal/domain/entity"
	"github.com/jhoicas/spatrac/internal/domain/repository"
)

// TraceabilityPDFGenerator puerto del render PDF (maroto en infraestructura).
type TraceabilityPDFGenerator interface {
	GenerateTraceabilityPDF(ctx context.Context, lots []*entity.Lot) ([]byte, error)
}

// InventoryCSVWriter puerto del exporte CSV de inventario.
type InventoryCSVWriter interface {
	WriteInventory(w io.Writer, lots []*entity.Lot) error
}

// UseCase casos de uso de reportes sobre los lotes persistidos.
type UseCase struct {
	lots repository.LotRepository
	pdf  TraceabilityPDFGenerator
	csv  InventoryCSVWriter
}

// NewUseCase construye el caso de uso de reportes.
func NewUseCase(lots repository.LotRepository, pdf TraceabilityPDFGenerator, csv InventoryCSVWriter) *UseCase {
	return &UseCase{lots: lots, pdf: pdf, csv: csv}
}

// TraceabilityReport genera el PDF de trazabilidad de los lotes indicados.
// Un ID desconocido corta el reporte con ErrNotFound.
func (uc *UseCase) TraceabilityReport(ctx context.Context, lotIDs []string) ([]byte, error) {
	if len(lotIDs) == 0 {
		return nil, domain.ErrInvalidInput
	}
	lots := make([]*entity.Lot, 0, len(lotIDs))
	for _, id := range lotIDs {
		lot, err := uc.lots.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load lot %s: %w", id, err)
		}
		if lot == nil {
			return nil, fmt.Errorf("lot %s: %w", id, domain.ErrNotFound)
		}
		lots = append(lots, lot)
	}
	return uc.pdf.GenerateTraceabilityPDF(ctx, lots)
}

// ExportInventory vuelca todos los lotes al writer en formato CSV con la
// forma de la tabla persistida.
func (uc *UseCase) ExportInventory(ctx context.Context, w io.Writer) error {
	lots, err := uc.lots.List(ctx)
	if err != nil {
		return fmt.Errorf("list lots: %w", err)
	}
	return uc.csv.WriteInventory(w, lots)
}
