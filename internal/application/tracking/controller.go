// Package tracking implementa el controlador del ciclo de vida de los lotes
// recibidos: recepción, aprobación de entrega, procesamiento, registro de
// temperaturas y purga administrativa. Toda mutación pasa por el gestor de
// sesiones antes de tocar el lote y mantiene el historial append-only.
package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/spatrac/internal/application/auth"
	"github.com/jhoicas/spatrac/internal/domain"
	"github.com/jhoicas/spatrac/internal/domain/entity"
	"github.com/jhoicas/spatrac/internal/domain/repository"
)

// Sessions es la vista del gestor de sesiones que necesita el controlador.
// *auth.SessionManager la satisface.
type Sessions interface {
	CurrentIdentity() (auth.Identity, bool)
	IsManager() bool
	IsAuthorizedForDepartment(username string, dept entity.Department) bool
	RecordAction(action string)
}

// TemperaturePrompt modela el diálogo modal de temperatura como un callback
// síncrono: bloquea la operación hasta que el operador responde. Devuelve
// (lectura, true) si la suministra o (cero, false) si cancela. La UI (fuera
// de alcance) aporta la implementación real.
type TemperaturePrompt interface {
	Ask(location string) (decimal.Decimal, bool)
}

// PromptFunc adapta una función a TemperaturePrompt.
type PromptFunc func(location string) (decimal.Decimal, bool)

func (f PromptFunc) Ask(location string) (decimal.Decimal, bool) { return f(location) }

// NoPrompt nunca aporta lectura (recepciones sin termómetro a mano).
var NoPrompt = PromptFunc(func(string) (decimal.Decimal, bool) {
	return decimal.Decimal{}, false
})

// Controller conduce los lotes por Active → DeliveryApproved → Processed.
//
// Contrato de atomicidad: cada transición muta una COPIA del lote, persiste la
// copia y sólo si la escritura tuvo éxito la publica sobre el lote del
// llamador. Un fallo de almacenamiento deja memoria y base idénticas al estado
// previo a la transición.
type Controller struct {
	sessions Sessions
	lots     repository.LotRepository
	catalog  repository.Catalog
	prompt   TemperaturePrompt
	now      func() time.Time
	newID    func() string
}

// Option configura el Controller en construcción.
type Option func(*Controller)

// WithClock fija el reloj (tests deterministas).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator fija el generador de IDs internos.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) { c.newID = gen }
}

// NewController construye el controlador. prompt puede ser NoPrompt si la
// instalación no registra temperaturas en recepción.
func NewController(
	sessions Sessions,
	lots repository.LotRepository,
	catalog repository.Catalog,
	prompt TemperaturePrompt,
	opts ...Option,
) *Controller {
	c := &Controller{
		sessions: sessions,
		lots:     lots,
		catalog:  catalog,
		prompt:   prompt,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReceiveInput entrada para registrar una entrega contra el catálogo.
type ReceiveInput struct {
	ProductCode   string
	Quantity      decimal.Decimal
	Unit          string
	SupplierBatch string
	SellByDate    string
}

func (in ReceiveInput) validate() error {
	if strings.TrimSpace(in.ProductCode) == "" ||
		strings.TrimSpace(in.SupplierBatch) == "" ||
		strings.TrimSpace(in.SellByDate) == "" {
		return domain.ErrInvalidInput
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if !entity.ValidUnit(in.Unit) {
		return domain.ErrInvalidInput
	}
	return nil
}

// Receive crea un lote en estado Active a partir de una fila del catálogo.
// Requiere sesión autenticada (cualquier rol): el receptor queda atribuido en
// received_by. La lectura de temperatura en recepción es opcional; si el
// operador cancela el diálogo, la recepción continúa con el registro vacío.
func (c *Controller) Receive(ctx context.Context, in ReceiveInput) (*entity.Lot, error) {
	identity, ok := c.sessions.CurrentIdentity()
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := c.catalog.FindByCode(in.ProductCode)
	if err != nil {
		return nil, err
	}
	dept, err := entity.ParseDepartment(product.Department)
	if err != nil {
		return nil, fmt.Errorf("catalog row for %s: %w", in.ProductCode, err)
	}

	receivedAt := c.now()
	lot := &entity.Lot{
		ID:                  c.newID(),
		ProductCode:         product.ProductCode,
		SupplierProductCode: product.SupplierProductCode,
		Description:         product.Description,
		Supplier:            product.Supplier,
		BatchLot:            entity.BatchLotNumber(product.ProductCode, receivedAt),
		SupplierBatch:       in.SupplierBatch,
		Department:          dept,
		SubDepartment:       product.SubDepartment,
		Quantity:            in.Quantity,
		Unit:                in.Unit,
		SellByDate:          in.SellByDate,
		ReceivedBy:          identity.Username,
		ReceivedAt:          receivedAt,
		Status:              entity.StatusActive,
		CurrentLocation:     "Receiving",
	}
	lot.AppendHistory(receivedAt, identity.Username, "Received")

	// Lectura opcional en recepción: cancelar NO aborta la entrega, sólo deja
	// el registro de temperaturas vacío (brecha visible, no silenciosa).
	if reading, ok := c.prompt.Ask(lot.CurrentLocation); ok {
		lot.AppendTemperature(entity.TemperatureReading{
			Timestamp: receivedAt,
			Celsius:   reading,
			Location:  lot.CurrentLocation,
		})
	}

	if err := c.lots.Create(ctx, lot); err != nil {
		return nil, fmt.Errorf("persist received lot: %w", err)
	}
	c.sessions.RecordAction("handled product delivery " + lot.BatchLot)
	return lot, nil
}

// ApproveDelivery marca la entrega como aprobada (paso intermedio opcional).
// Sólo exige sesión autenticada; no hay puerta adicional de departamento.
// Sobre un lote ya aprobado es un no-op; sobre uno procesado se rechaza.
func (c *Controller) ApproveDelivery(ctx context.Context, lot *entity.Lot) error {
	identity, ok := c.sessions.CurrentIdentity()
	if !ok {
		return domain.ErrNotAuthenticated
	}
	switch lot.Status {
	case entity.StatusProcessed:
		return domain.ErrAlreadyProcessed
	case entity.StatusDeliveryApproved:
		return nil
	}

	updated := lot.Clone()
	updated.Status = entity.StatusDeliveryApproved
	updated.AppendHistory(c.now(), identity.Username, "Delivery approved")

	if err := c.lots.Update(ctx, updated); err != nil {
		return fmt.Errorf("persist delivery approval: %w", err)
	}
	*lot = *updated
	c.sessions.RecordAction("approved delivery " + lot.BatchLot)
	return nil
}

// Process lleva el lote a Processed. Puertas, en orden: sesión autenticada,
// rol Manager, autorización sobre el departamento del lote. La lectura de
// temperatura se solicita ANTES de cambiar el estado y cancelarla aborta la
// operación completa: sin lectura no hay procesamiento (evita un hueco mudo
// en la cadena de frío). Reinvocar sobre un lote procesado devuelve
// ErrAlreadyProcessed sin tocar nada, ni historial duplicado.
func (c *Controller) Process(ctx context.Context, lot *entity.Lot) error {
	identity, ok := c.sessions.CurrentIdentity()
	if !ok {
		return domain.ErrNotAuthenticated
	}
	if lot.Status == entity.StatusProcessed {
		return domain.ErrAlreadyProcessed
	}
	if !c.sessions.IsManager() || !c.sessions.IsAuthorizedForDepartment(identity.Username, lot.Department) {
		return domain.ErrUnauthorized
	}

	location := lot.Department.String()
	if lot.SubDepartment != "" {
		location = fmt.Sprintf("%s - %s", lot.Department, lot.SubDepartment)
	}
	reading, ok := c.prompt.Ask(location)
	if !ok {
		return domain.ErrPromptCancelled
	}

	processedAt := c.now()
	updated := lot.Clone()
	updated.Status = entity.StatusProcessed
	updated.ProcessedBy = identity.Username
	updated.ProcessedAt = &processedAt
	updated.CurrentLocation = location
	updated.AppendTemperature(entity.TemperatureReading{
		Timestamp: processedAt,
		Celsius:   reading,
		Location:  location,
	})
	updated.AppendHistory(processedAt, identity.Username,
		fmt.Sprintf("Processed in %s (%s°C)", location, reading))

	if err := c.lots.Update(ctx, updated); err != nil {
		return fmt.Errorf("persist processing: %w", err)
	}
	*lot = *updated
	c.sessions.RecordAction("processed delivered product " + lot.BatchLot)
	return nil
}

// RecordTemperature agrega una lectura puntual desde la vista de inventario.
// Cualquier usuario autenticado puede registrarla, también sobre lotes ya
// procesados (el registro de temperaturas sigue siendo append-only).
func (c *Controller) RecordTemperature(ctx context.Context, lot *entity.Lot, celsius decimal.Decimal) error {
	if _, ok := c.sessions.CurrentIdentity(); !ok {
		return domain.ErrNotAuthenticated
	}
	updated := lot.Clone()
	updated.AppendTemperature(entity.TemperatureReading{
		Timestamp: c.now(),
		Celsius:   celsius,
		Location:  lot.CurrentLocation,
	})
	if err := c.lots.Update(ctx, updated); err != nil {
		return fmt.Errorf("persist temperature reading: %w", err)
	}
	*lot = *updated
	c.sessions.RecordAction(fmt.Sprintf("recorded temperature %s°C for %s", celsius, lot.BatchLot))
	return nil
}

// PurgeUnprocessed borra de forma irreversible TODOS los lotes no procesados,
// de todos los departamentos. Sólo exige rol Manager, no departamento: es la
// purga administrativa heredada (decisión sorprendente pero deliberada).
func (c *Controller) PurgeUnprocessed(ctx context.Context) (int64, error) {
	if _, ok := c.sessions.CurrentIdentity(); !ok {
		return 0, domain.ErrNotAuthenticated
	}
	if !c.sessions.IsManager() {
		return 0, domain.ErrUnauthorized
	}
	n, err := c.lots.DeleteUnprocessed(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge unprocessed lots: %w", err)
	}
	c.sessions.RecordAction(fmt.Sprintf("purged %d unprocessed lots", n))
	return n, nil
}

// Lot busca un lote por su ID interno. ErrNotFound si no existe.
func (c *Controller) Lot(ctx context.Context, id string) (*entity.Lot, error) {
	lot, err := c.lots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load lot %s: %w", id, err)
	}
	if lot == nil {
		return nil, fmt.Errorf("lot %s: %w", id, domain.ErrNotFound)
	}
	return lot, nil
}

// PendingDeliveries lista los lotes aún no procesados (tabla de entregas).
func (c *Controller) PendingDeliveries(ctx context.Context) ([]*entity.Lot, error) {
	return c.lots.ListPending(ctx)
}

// DepartmentInventory lista los lotes pendientes de un departamento
// (dashboard del manager de departamento).
func (c *Controller) DepartmentInventory(ctx context.Context, dept entity.Department) ([]*entity.Lot, error) {
	return c.lots.ListByDepartment(ctx, dept, false)
}
