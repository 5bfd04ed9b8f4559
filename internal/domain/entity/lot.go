package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status del ciclo de vida de un lote recibido.
// La transición es monótona y unidireccional:
// Active → DeliveryApproved (opcional) → Processed. No hay vuelta atrás.
type Status string

const (
	StatusActive           Status = "Active"
	StatusDeliveryApproved Status = "DeliveryApproved"
	StatusProcessed        Status = "Processed"
)

// rank asigna el orden total usado para imponer monotonicidad.
func (s Status) rank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusDeliveryApproved:
		return 1
	case StatusProcessed:
		return 2
	}
	return -1
}

// CanTransitionTo devuelve true si pasar de s a next respeta el orden
// Active → DeliveryApproved → Processed (avanzar, nunca retroceder ni repetir).
func (s Status) CanTransitionTo(next Status) bool {
	return next.rank() > s.rank() && s.rank() >= 0
}

func (s Status) String() string { return string(s) }

// Unidades de medida admitidas para la cantidad recibida.
const (
	UnitPiece = "unit"
	UnitKg    = "kg"
)

// ValidUnit acepta sólo las unidades del catálogo.
func ValidUnit(u string) bool {
	return u == UnitPiece || u == UnitKg
}

// TemperatureReading es una lectura puntual de la cadena de frío.
type TemperatureReading struct {
	Timestamp time.Time
	Celsius   decimal.Decimal
	Location  string
}

// Line serializa la lectura al formato de texto del registro:
// "2025-01-02 08:30:00: 4.5°C (Receiving)".
func (t TemperatureReading) Line() string {
	return fmt.Sprintf("%s: %s°C (%s)", t.Timestamp.Format(time.DateTime), t.Celsius.String(), t.Location)
}

// HandlingEvent es una entrada del historial de manipulación de un lote.
// Append-only: nunca se edita ni se borra.
type HandlingEvent struct {
	Timestamp time.Time
	Actor     string
	Action    string
}

// Line serializa el evento: "Received at 2025-01-02 08:30:00 by mary_butchery".
func (e HandlingEvent) Line() string {
	return fmt.Sprintf("%s at %s by %s", e.Action, e.Timestamp.Format(time.DateTime), e.Actor)
}

// Lot es una unidad recibida (lote) desde la entrega hasta el procesamiento.
// Su identidad externa es (ProductCode, SupplierBatch); ID es interno.
// Una vez Processed, los campos de identidad y cantidad quedan congelados;
// sólo el historial puede seguir creciendo.
type Lot struct {
	ID                  string
	ProductCode         string
	SupplierProductCode string
	Description         string
	Supplier            string
	BatchLot            string // interno: LOT-YYYYMMDD-<código>
	SupplierBatch       string
	Department          Department
	SubDepartment       string
	Quantity            decimal.Decimal
	Unit                string
	SellByDate          string
	ReceivedBy          string
	ReceivedAt          time.Time
	Status              Status
	CurrentLocation     string
	ProcessedBy         string
	ProcessedAt         *time.Time
	History             []HandlingEvent
	Temperatures        []TemperatureReading
}

// AppendHistory agrega una entrada al historial.
func (l *Lot) AppendHistory(ts time.Time, actor, action string) {
	l.History = append(l.History, HandlingEvent{Timestamp: ts, Actor: actor, Action: action})
}

// AppendTemperature agrega una lectura al registro de temperaturas.
func (l *Lot) AppendTemperature(r TemperatureReading) {
	l.Temperatures = append(l.Temperatures, r)
}

// HistoryText devuelve el historial unido por saltos de línea
// (sólo para almacenamiento y reportes; en memoria siempre estructurado).
func (l *Lot) HistoryText() string {
	lines := make([]string, 0, len(l.History))
	for _, e := range l.History {
		lines = append(lines, e.Line())
	}
	return strings.Join(lines, "\n")
}

// TemperatureText devuelve el registro de temperaturas unido por saltos de línea.
func (l *Lot) TemperatureText() string {
	lines := make([]string, 0, len(l.Temperatures))
	for _, t := range l.Temperatures {
		lines = append(lines, t.Line())
	}
	return strings.Join(lines, "\n")
}

// Clone devuelve una copia profunda del lote. Las transiciones mutan la copia
// y sólo la publican si la escritura persistente tuvo éxito.
func (l *Lot) Clone() *Lot {
	c := *l
	if l.ProcessedAt != nil {
		ts := *l.ProcessedAt
		c.ProcessedAt = &ts
	}
	c.History = append([]HandlingEvent(nil), l.History...)
	c.Temperatures = append([]TemperatureReading(nil), l.Temperatures...)
	return &c
}

// BatchLotNumber genera el número de lote interno: LOT-YYYYMMDD-<código>.
func BatchLotNumber(productCode string, when time.Time) string {
	return fmt.Sprintf("LOT-%s-%s", when.Format("20060102"), productCode)
}
