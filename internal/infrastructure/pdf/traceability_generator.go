// Package pdf implementa el reporte de trazabilidad por lote usando Maroto v2.
//
// Layout de la página A4, una sección por lote:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Descripción del producto  │  Batch/Lot + Estado    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ENTREGA: fecha, cantidad, recibido por, lote proveedor      │
//	│  PROCESO: departamento, fecha, procesado por, ubicación      │
//	│  HISTORIAL DE MANIPULACIÓN (una línea por evento)            │
//	│  REGISTRO DE TEMPERATURAS (una línea por lectura)            │
//	│  CÓDIGO DE BARRAS code128 del Batch/Lot                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/spatrac/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoTraceabilityGenerator implementa report.TraceabilityPDFGenerator.
type MarotoTraceabilityGenerator struct{}

// NewMarotoTraceabilityGenerator construye el generador.
func NewMarotoTraceabilityGenerator() *MarotoTraceabilityGenerator {
	return &MarotoTraceabilityGenerator{}
}

// GenerateTraceabilityPDF genera el PDF y devuelve sus bytes.
func (g *MarotoTraceabilityGenerator) GenerateTraceabilityPDF(
	_ context.Context,
	lots []*entity.Lot,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Traceability Report", true).
		Build()

	m := maroto.New(cfg)

	for _, lot := range lots {
		m.AddRows(headerRow(lot))
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
		m.AddRows(deliveryRow(lot))
		m.AddRows(processingRow(lot))
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(sectionRows("HANDLING HISTORY", historyLines(lot))...)
		m.AddRows(sectionRows("TEMPERATURE LOG", temperatureLines(lot))...)
		m.AddRows(barcodeRow(lot))
		m.AddRows(line.NewRow(3))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate document: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: descripción del producto (izq), batch/lot y estado (der).
func headerRow(lot *entity.Lot) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(lot.Description, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Product Code: %s   |   Supplier: %s",
				lot.ProductCode, lot.Supplier,
			), props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(lot.BatchLot, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 1,
			}),
			text.New("Status: "+lot.Status.String(), props.Text{
				Size: 9, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// deliveryRow: información de la entrega.
func deliveryRow(lot *entity.Lot) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DELIVERY INFORMATION", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Delivered: %s   |   Quantity: %s %s   |   Received by: %s   |   Supplier batch: %s   |   Sell by: %s",
				lot.ReceivedAt.Format(time.DateTime),
				lot.Quantity.String(), lot.Unit,
				lot.ReceivedBy, lot.SupplierBatch, lot.SellByDate,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// processingRow: información de procesamiento (o pendiente).
func processingRow(lot *entity.Lot) core.Row {
	detail := "Not processed yet"
	if lot.ProcessedAt != nil {
		detail = fmt.Sprintf("Processed: %s   |   Processed by: %s   |   Location: %s",
			lot.ProcessedAt.Format(time.DateTime), lot.ProcessedBy, lot.CurrentLocation)
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("PROCESSING INFORMATION", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Department: %s   |   Sub-department: %s   |   %s",
				lot.Department, lot.SubDepartment, detail,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// sectionRows: título + una fila por línea de detalle.
func sectionRows(title string, lines []string) []core.Row {
	rows := make([]core.Row, 0, len(lines)+1)
	rows = append(rows, row.New(6).Add(
		col.New(12).Add(text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		})),
	))
	for _, l := range lines {
		rows = append(rows, row.New(5).Add(
			col.New(12).Add(text.New(l, props.Text{Size: 8, Left: 2})),
		))
	}
	return rows
}

func historyLines(lot *entity.Lot) []string {
	if len(lot.History) == 0 {
		return []string{"No handling recorded"}
	}
	lines := make([]string, 0, len(lot.History))
	for _, e := range lot.History {
		lines = append(lines, e.Line())
	}
	return lines
}

func temperatureLines(lot *entity.Lot) []string {
	if len(lot.Temperatures) == 0 {
		return []string{"No temperature logs recorded"}
	}
	lines := make([]string, 0, len(lot.Temperatures))
	for _, t := range lot.Temperatures {
		lines = append(lines, t.Line())
	}
	return lines
}

// barcodeRow: code128 del batch/lot, centrado.
func barcodeRow(lot *entity.Lot) core.Row {
	return row.New(22).Add(
		col.New(3),
		col.New(6).Add(
			code.NewBar(lot.BatchLot, props.Barcode{
				Percent: 90,
				Center:  true,
			}),
		),
		col.New(3),
	)
}
