package tracking_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/spatrac/internal/application/auth"
	"github.com/jhoicas/spatrac/internal/application/tracking"
	"github.com/jhoicas/spatrac/internal/domain"
	"github.com/jhoicas/spatrac/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de test: registro de usuarios, repositorio de lotes y catálogo
// ──────────────────────────────────────────────────────────────────────────────

type memUserRepo struct {
	users map[string]*entity.User
}

func (r *memUserRepo) Create(u *entity.User) error {
	if _, ok := r.users[u.Username]; ok {
		return domain.ErrUserAlreadyExists
	}
	r.users[u.Username] = u
	return nil
}

func (r *memUserRepo) GetByUsername(username string) (*entity.User, error) {
	return r.users[username], nil
}

func (r *memUserRepo) List() ([]*entity.User, error) { return nil, nil }

var errStoreDown = errors.New("database is locked")

// memLotRepo repositorio de lotes en memoria con inyección de fallos de
// escritura para la propiedad de atomicidad.
type memLotRepo struct {
	lots       map[string]*entity.Lot
	failWrites bool
}

func newMemLotRepo() *memLotRepo { return &memLotRepo{lots: map[string]*entity.Lot{}} }

func (r *memLotRepo) Create(_ context.Context, lot *entity.Lot) error {
	if r.failWrites {
		return errStoreDown
	}
	r.lots[lot.ID] = lot.Clone()
	return nil
}

func (r *memLotRepo) Update(_ context.Context, lot *entity.Lot) error {
	if r.failWrites {
		return errStoreDown
	}
	r.lots[lot.ID] = lot.Clone()
	return nil
}

func (r *memLotRepo) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	if l, ok := r.lots[id]; ok {
		return l.Clone(), nil
	}
	return nil, nil
}

func (r *memLotRepo) GetByBatch(_ context.Context, productCode, supplierBatch string) (*entity.Lot, error) {
	for _, l := range r.lots {
		if l.ProductCode == productCode && l.SupplierBatch == supplierBatch {
			return l.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memLotRepo) List(_ context.Context) ([]*entity.Lot, error) {
	out := make([]*entity.Lot, 0, len(r.lots))
	for _, l := range r.lots {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (r *memLotRepo) ListByDepartment(_ context.Context, dept entity.Department, includeProcessed bool) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.lots {
		if !l.Department.Equals(dept) {
			continue
		}
		if !includeProcessed && l.Status == entity.StatusProcessed {
			continue
		}
		out = append(out, l.Clone())
	}
	return out, nil
}

func (r *memLotRepo) ListPending(_ context.Context) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, l := range r.lots {
		if l.Status != entity.StatusProcessed {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (r *memLotRepo) DeleteUnprocessed(_ context.Context) (int64, error) {
	if r.failWrites {
		return 0, errStoreDown
	}
	var n int64
	for id, l := range r.lots {
		if l.Status != entity.StatusProcessed {
			delete(r.lots, id)
			n++
		}
	}
	return n, nil
}

// memCatalog catálogo fijo de prueba.
type memCatalog struct {
	rows []entity.CatalogProduct
}

func (c *memCatalog) find(match func(entity.CatalogProduct) bool) (*entity.CatalogProduct, error) {
	var found *entity.CatalogProduct
	for i := range c.rows {
		if match(c.rows[i]) {
			if found != nil {
				return nil, domain.ErrAmbiguousProduct
			}
			found = &c.rows[i]
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (c *memCatalog) FindByCode(code string) (*entity.CatalogProduct, error) {
	return c.find(func(p entity.CatalogProduct) bool { return p.ProductCode == code })
}

func (c *memCatalog) FindBySupplierCode(code string) (*entity.CatalogProduct, error) {
	return c.find(func(p entity.CatalogProduct) bool { return p.SupplierProductCode == code })
}

func (c *memCatalog) FindByDescription(desc string) (*entity.CatalogProduct, error) {
	return c.find(func(p entity.CatalogProduct) bool { return p.Description == desc })
}

func (c *memCatalog) Descriptions() []string { return nil }

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

var testClock = func() time.Time {
	return time.Date(2025, 1, 2, 8, 30, 0, 0, time.UTC)
}

func promptFixed(v string) tracking.PromptFunc {
	return func(string) (decimal.Decimal, bool) {
		return decimal.RequireFromString(v), true
	}
}

var promptCancel = tracking.PromptFunc(func(string) (decimal.Decimal, bool) {
	return decimal.Decimal{}, false
})

type fixture struct {
	sessions *auth.SessionManager
	repo     *memLotRepo
	catalog  *memCatalog
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := auth.NewSessionManager(&memUserRepo{users: map[string]*entity.User{}},
		auth.WithClock(testClock))
	require.NoError(t, sessions.RegisterUser("alice", "pw1", entity.DepartmentButchery, entity.RoleManager))
	require.NoError(t, sessions.RegisterUser("bob", "pw2", entity.DepartmentBakery, entity.RoleManager))
	require.NoError(t, sessions.RegisterUser("dave", "pw3", entity.DepartmentDelivery, entity.RoleManager))
	require.NoError(t, sessions.RegisterUser("tom", "pw4", entity.DepartmentButchery, entity.RoleStaff))
	return &fixture{
		sessions: sessions,
		repo:     newMemLotRepo(),
		catalog: &memCatalog{rows: []entity.CatalogProduct{
			{ProductCode: "26710", SupplierProductCode: "SUP-26710", Description: "BEEF TOPSIDE",
				Supplier: "Big G Meats", Department: "Butchery", SubDepartmentCode: "202", SubDepartment: "BEEF"},
			{ProductCode: "30001", SupplierProductCode: "SUP-30001", Description: "WHITE LOAF",
				Supplier: "Big G Bakery", Department: "Bakery", SubDepartmentCode: "301", SubDepartment: "BREAD"},
			{ProductCode: "99999", Description: "MYSTERY BOX A", Department: "HMR"},
			{ProductCode: "99999", Description: "MYSTERY BOX B", Department: "HMR"},
		}},
	}
}

func (f *fixture) controller(prompt tracking.TemperaturePrompt) *tracking.Controller {
	return tracking.NewController(f.sessions, f.repo, f.catalog, prompt,
		tracking.WithClock(testClock),
		tracking.WithIDGenerator(func() string {
			f.seq++
			return fmt.Sprintf("lot-%d", f.seq)
		}))
}

func (f *fixture) loginAs(t *testing.T, username, password string) {
	t.Helper()
	f.sessions.Logout()
	require.True(t, f.sessions.Login(username, password))
}

func receiveBeef(t *testing.T, c *tracking.Controller) *entity.Lot {
	t.Helper()
	lot, err := c.Receive(context.Background(), tracking.ReceiveInput{
		ProductCode:   "26710",
		Quantity:      decimal.NewFromInt(10),
		Unit:          entity.UnitKg,
		SupplierBatch: "B1",
		SellByDate:    "2025-01-01",
	})
	require.NoError(t, err)
	return lot
}

// ──────────────────────────────────────────────────────────────────────────────
// Receive
// ──────────────────────────────────────────────────────────────────────────────

// Escenario concreto: alice recibe 10 kg del producto 26710.
func TestReceive_CreaLoteActivo(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("4.5"))

	lot := receiveBeef(t, c)

	assert.Equal(t, entity.StatusActive, lot.Status)
	assert.Equal(t, "alice", lot.ReceivedBy)
	assert.Equal(t, entity.DepartmentButchery, lot.Department)
	assert.Equal(t, "BEEF", lot.SubDepartment)
	assert.Equal(t, "LOT-20250102-26710", lot.BatchLot)
	assert.Equal(t, "Receiving", lot.CurrentLocation)

	require.Len(t, lot.History, 1)
	assert.Equal(t, "Received at 2025-01-02 08:30:00 by alice", lot.History[0].Line())

	require.Len(t, lot.Temperatures, 1)
	assert.Equal(t, "2025-01-02 08:30:00: 4.5°C (Receiving)", lot.Temperatures[0].Line())

	// Persistido con el mismo contenido.
	stored, err := f.repo.GetByID(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, lot, stored)
}

func TestReceive_SinSesionRechazado(t *testing.T) {
	f := newFixture(t)
	c := f.controller(tracking.NoPrompt)

	_, err := c.Receive(context.Background(), tracking.ReceiveInput{
		ProductCode: "26710", Quantity: decimal.NewFromInt(1),
		Unit: entity.UnitKg, SupplierBatch: "B1", SellByDate: "2025-01-01",
	})
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Empty(t, f.repo.lots, "nada debe persistirse sin sesión")
}

func TestReceive_ValidacionDeCampos(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(tracking.NoPrompt)

	base := tracking.ReceiveInput{
		ProductCode: "26710", Quantity: decimal.NewFromInt(10),
		Unit: entity.UnitKg, SupplierBatch: "B1", SellByDate: "2025-01-01",
	}

	cases := map[string]tracking.ReceiveInput{}
	in := base
	in.SupplierBatch = " "
	cases["lote de proveedor vacío"] = in
	in = base
	in.SellByDate = ""
	cases["sell-by vacío"] = in
	in = base
	in.Quantity = decimal.Zero
	cases["cantidad cero"] = in
	in = base
	in.Unit = "litres"
	cases["unidad desconocida"] = in

	for name, input := range cases {
		_, err := c.Receive(context.Background(), input)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
	assert.Empty(t, f.repo.lots)
}

func TestReceive_CodigoDesconocidoYAmbiguo(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(tracking.NoPrompt)

	in := tracking.ReceiveInput{
		ProductCode: "00000", Quantity: decimal.NewFromInt(1),
		Unit: entity.UnitPiece, SupplierBatch: "B1", SellByDate: "2025-01-01",
	}
	_, err := c.Receive(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	in.ProductCode = "99999"
	_, err = c.Receive(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrAmbiguousProduct)
}

// Cancelar el diálogo de temperatura en recepción NO aborta: el lote se crea
// con el registro de temperaturas vacío.
func TestReceive_CancelarTemperaturaNoAborta(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptCancel)

	lot := receiveBeef(t, c)
	assert.Empty(t, lot.Temperatures)
	assert.Equal(t, entity.StatusActive, lot.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Process
// ──────────────────────────────────────────────────────────────────────────────

// Escenario concreto completo: recibir, procesar y reintentar el procesado.
func TestProcess_FlujoCompletoEIdempotencia(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("2.0"))

	lot := receiveBeef(t, c)
	require.NoError(t, c.Process(context.Background(), lot))

	assert.Equal(t, entity.StatusProcessed, lot.Status)
	assert.Equal(t, "alice", lot.ProcessedBy)
	require.NotNil(t, lot.ProcessedAt)
	assert.Equal(t, testClock(), *lot.ProcessedAt)
	assert.Equal(t, "Butchery - BEEF", lot.CurrentLocation)
	require.Len(t, lot.History, 2)
	assert.Equal(t, "Processed in Butchery - BEEF (2°C) at 2025-01-02 08:30:00 by alice",
		lot.History[1].Line())
	assert.Len(t, lot.Temperatures, 2, "recepción + procesamiento")

	// Segundo intento: no-op reportado, sin entradas duplicadas.
	before := lot.Clone()
	err := c.Process(context.Background(), lot)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.Equal(t, before, lot, "el lote no debe cambiar ni un byte")

	stored, _ := f.repo.GetByID(context.Background(), lot.ID)
	assert.Equal(t, before, stored)
}

// Escenario concreto: alice (Butchery) no puede procesar un lote de Bakery.
func TestProcess_DepartamentoAjenoRechazado(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "bob", "pw2")
	c := f.controller(promptFixed("3.0"))

	lot, err := c.Receive(context.Background(), tracking.ReceiveInput{
		ProductCode: "30001", Quantity: decimal.NewFromInt(24),
		Unit: entity.UnitPiece, SupplierBatch: "BK-9", SellByDate: "2025-01-05",
	})
	require.NoError(t, err)

	f.loginAs(t, "alice", "pw1")
	before := lot.Clone()
	err = c.Process(context.Background(), lot)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, before, lot, "denegación sin mutación parcial")
}

func TestProcess_StaffSinRolManagerRechazado(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("3.0"))
	lot := receiveBeef(t, c)

	f.loginAs(t, "tom", "pw4") // Staff de Butchery: departamento correcto, rol insuficiente
	before := lot.Clone()
	assert.ErrorIs(t, c.Process(context.Background(), lot), domain.ErrUnauthorized)
	assert.Equal(t, before, lot)
}

// El Manager de Delivery procesa en cualquier departamento (carve-out).
func TestProcess_DeliveryManagerCualquierDepartamento(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("1.5"))
	lot := receiveBeef(t, c)

	f.loginAs(t, "dave", "pw3")
	require.NoError(t, c.Process(context.Background(), lot))
	assert.Equal(t, entity.StatusProcessed, lot.Status)
	assert.Equal(t, "dave", lot.ProcessedBy)
}

// Cancelar el diálogo de temperatura aborta el procesamiento completo:
// sin cambio de estado y sin entrada de auditoría.
func TestProcess_CancelarTemperaturaAborta(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("4.0"))
	lot := receiveBeef(t, c)

	cCancel := f.controller(promptCancel)
	before := lot.Clone()
	auditBefore := len(f.sessions.AuditLog())

	err := cCancel.Process(context.Background(), lot)
	assert.ErrorIs(t, err, domain.ErrPromptCancelled)
	assert.Equal(t, before, lot)
	assert.Len(t, f.sessions.AuditLog(), auditBefore, "sin entrada de auditoría al cancelar")

	stored, _ := f.repo.GetByID(context.Background(), lot.ID)
	assert.Equal(t, entity.StatusActive, stored.Status)
}

// Propiedad de atomicidad: si la escritura persistente falla, el estado en
// memoria queda igual al previo (sin divergencia memoria/almacén).
func TestProcess_FalloDeAlmacenamientoNoDiverge(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("2.5"))
	lot := receiveBeef(t, c)

	f.repo.failWrites = true
	before := lot.Clone()
	auditBefore := len(f.sessions.AuditLog())

	err := c.Process(context.Background(), lot)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, before, lot, "la mutación no debe publicarse si el almacén falló")
	assert.Len(t, f.sessions.AuditLog(), auditBefore)

	f.repo.failWrites = false
	stored, _ := f.repo.GetByID(context.Background(), lot.ID)
	assert.Equal(t, entity.StatusActive, stored.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// ApproveDelivery (paso intermedio opcional) y monotonicidad
// ──────────────────────────────────────────────────────────────────────────────

func TestApproveDelivery_PasoIntermedio(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("3.5"))
	lot := receiveBeef(t, c)

	require.NoError(t, c.ApproveDelivery(context.Background(), lot))
	assert.Equal(t, entity.StatusDeliveryApproved, lot.Status)
	require.Len(t, lot.History, 2)

	// Reaprobar es un no-op silencioso, sin historial duplicado.
	require.NoError(t, c.ApproveDelivery(context.Background(), lot))
	assert.Len(t, lot.History, 2)

	require.NoError(t, c.Process(context.Background(), lot))
	assert.Equal(t, entity.StatusProcessed, lot.Status)

	// Nunca hacia atrás: aprobar un lote procesado se rechaza.
	assert.ErrorIs(t, c.ApproveDelivery(context.Background(), lot), domain.ErrAlreadyProcessed)
	assert.Equal(t, entity.StatusProcessed, lot.Status)
}

func TestApproveDelivery_SinSesionRechazado(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(tracking.NoPrompt)
	lot := receiveBeef(t, c)

	f.sessions.Logout()
	assert.ErrorIs(t, c.ApproveDelivery(context.Background(), lot), domain.ErrNotAuthenticated)
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordTemperature y consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordTemperature_DesdeInventario(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("4.5"))
	lot := receiveBeef(t, c)

	// Cualquier autenticado, también Staff.
	f.loginAs(t, "tom", "pw4")
	require.NoError(t, c.RecordTemperature(context.Background(), lot, decimal.RequireFromString("6.1")))
	assert.Len(t, lot.Temperatures, 2)

	f.sessions.Logout()
	err := c.RecordTemperature(context.Background(), lot, decimal.NewFromInt(7))
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Len(t, lot.Temperatures, 2)
}

func TestConsultas_PendientesYPorDepartamento(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "dave", "pw3")
	c := f.controller(promptFixed("2.0"))

	beef := receiveBeef(t, c)
	_, err := c.Receive(context.Background(), tracking.ReceiveInput{
		ProductCode: "30001", Quantity: decimal.NewFromInt(12),
		Unit: entity.UnitPiece, SupplierBatch: "BK-2", SellByDate: "2025-01-04",
	})
	require.NoError(t, err)

	pending, err := c.PendingDeliveries(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, c.Process(context.Background(), beef))

	pending, err = c.PendingDeliveries(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1, "el lote procesado sale de pendientes")

	bakery, err := c.DepartmentInventory(context.Background(), entity.DepartmentBakery)
	require.NoError(t, err)
	require.Len(t, bakery, 1)
	assert.Equal(t, "WHITE LOAF", bakery[0].Description)

	butchery, err := c.DepartmentInventory(context.Background(), entity.DepartmentButchery)
	require.NoError(t, err)
	assert.Empty(t, butchery)
}

// ──────────────────────────────────────────────────────────────────────────────
// Purga administrativa
// ──────────────────────────────────────────────────────────────────────────────

func TestPurgeUnprocessed_SoloManagerPeroSinDepartamento(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, "alice", "pw1")
	c := f.controller(promptFixed("2.0"))

	beef := receiveBeef(t, c)
	require.NoError(t, c.Process(context.Background(), beef))

	f.loginAs(t, "dave", "pw3")
	_, err := c.Receive(context.Background(), tracking.ReceiveInput{
		ProductCode: "30001", Quantity: decimal.NewFromInt(6),
		Unit: entity.UnitPiece, SupplierBatch: "BK-3", SellByDate: "2025-01-04",
	})
	require.NoError(t, err)

	// Staff: denegado.
	f.loginAs(t, "tom", "pw4")
	_, err = c.PurgeUnprocessed(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Sin sesión: denegado.
	f.sessions.Logout()
	_, err = c.PurgeUnprocessed(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	// Cualquier Manager purga los lotes activos de TODOS los departamentos.
	f.loginAs(t, "bob", "pw2")
	n, err := c.PurgeUnprocessed(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "sólo el lote de Bakery estaba sin procesar")

	all, err := f.repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, entity.StatusProcessed, all[0].Status, "los procesados sobreviven a la purga")
}
