package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/spatrac/internal/domain/entity"
	"github.com/jhoicas/spatrac/internal/infrastructure/sqlite"
)

// newMockRepo monta el repositorio sobre una conexión simulada para poder
// inyectar fallos de almacenamiento y filas arbitrarias.
func newMockRepo(t *testing.T) (*sqlite.LotRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewLotRepository(&sqlite.DB{DB: db}), mock
}

var lotColumns = []string{
	"id", "product_code", "supplier_product_code", "description", "supplier",
	"batch_lot", "supplier_batch", "department", "sub_department", "quantity", "unit",
	"sell_by_date", "received_by", "received_date", "status", "current_location",
	"processed_by", "processing_date", "handling_history", "temperature_log",
}

// Una fila persistida con historial y temperaturas serializados a texto debe
// volver como entradas estructuradas.
func TestGetByID_DeserializaHistorialYTemperaturas(t *testing.T) {
	repo, mock := newMockRepo(t)

	history := "Received at 2025-01-02 08:30:00 by alice\n" +
		"Processed in Butchery - BEEF (2°C) at 2025-01-02 10:00:00 by alice"
	temps := "2025-01-02 08:30:00: 4.5°C (Receiving)\n" +
		"2025-01-02 10:00:00: 2°C (Butchery - BEEF)"

	mock.ExpectQuery("FROM received_products WHERE id").
		WithArgs("lot-1").
		WillReturnRows(sqlmock.NewRows(lotColumns).AddRow(
			"lot-1", "26710", "SUP-26710", "BEEF TOPSIDE", "Big G Meats",
			"LOT-20250102-26710", "B1", "Butchery", "BEEF", "10", "kg",
			"2025-01-01", "alice", "2025-01-02 08:30:00", "Processed", "Butchery - BEEF",
			"alice", "2025-01-02 10:00:00", history, temps,
		))

	lot, err := repo.GetByID(context.Background(), "lot-1")
	require.NoError(t, err)
	require.NotNil(t, lot)

	assert.Equal(t, entity.StatusProcessed, lot.Status)
	assert.Equal(t, entity.DepartmentButchery, lot.Department)
	assert.True(t, lot.Quantity.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, lot.ProcessedAt)
	assert.Equal(t, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), *lot.ProcessedAt)

	require.Len(t, lot.History, 2)
	assert.Equal(t, "alice", lot.History[0].Actor)
	assert.Equal(t, "Received", lot.History[0].Action)
	assert.Equal(t, "Processed in Butchery - BEEF (2°C)", lot.History[1].Action)

	require.Len(t, lot.Temperatures, 2)
	assert.Equal(t, "Receiving", lot.Temperatures[0].Location)
	assert.True(t, lot.Temperatures[0].Celsius.Equal(decimal.RequireFromString("4.5")))

	// Round-trip: la serialización reproduce exactamente el texto almacenado.
	assert.Equal(t, history, lot.HistoryText())
	assert.Equal(t, temps, lot.TemperatureText())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_SinFilaDevuelveNil(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM received_products WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	lot, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, lot)
}

// El fallo de escritura debe propagarse al llamador: es lo que permite al
// controlador no publicar la mutación en memoria.
func TestUpdate_FalloDeEscrituraPropagado(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE received_products SET").
		WillReturnError(sqlmock.ErrCancelled)

	lot := sampleLot()
	err := repo.Update(context.Background(), lot)
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlmock.ErrCancelled)
}

func TestUpdate_SinFilaEsError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE received_products SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), sampleLot())
	assert.ErrorContains(t, err, "no row")
}

func TestDeleteUnprocessed_DevuelveCuantosBorro(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM received_products WHERE status").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteUnprocessed(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestCreate_InsertaColumnasCompletas(t *testing.T) {
	repo, mock := newMockRepo(t)
	lot := sampleLot()

	mock.ExpectExec("INSERT INTO received_products").
		WithArgs(
			lot.ID, lot.ProductCode, lot.SupplierProductCode, lot.Description, lot.Supplier,
			lot.BatchLot, lot.SupplierBatch, "Butchery", lot.SubDepartment, "10", "kg",
			lot.SellByDate, lot.ReceivedBy, "2025-01-02 08:30:00", "Active", "Receiving",
			sql.NullString{}, sql.NullString{}, lot.HistoryText(), lot.TemperatureText(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), lot))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func sampleLot() *entity.Lot {
	receivedAt := time.Date(2025, 1, 2, 8, 30, 0, 0, time.UTC)
	lot := &entity.Lot{
		ID:                  "lot-1",
		ProductCode:         "26710",
		SupplierProductCode: "SUP-26710",
		Description:         "BEEF TOPSIDE",
		Supplier:            "Big G Meats",
		BatchLot:            "LOT-20250102-26710",
		SupplierBatch:       "B1",
		Department:          entity.DepartmentButchery,
		SubDepartment:       "BEEF",
		Quantity:            decimal.NewFromInt(10),
		Unit:                entity.UnitKg,
		SellByDate:          "2025-01-01",
		ReceivedBy:          "alice",
		ReceivedAt:          receivedAt,
		Status:              entity.StatusActive,
		CurrentLocation:     "Receiving",
	}
	lot.AppendHistory(receivedAt, "alice", "Received")
	return lot
}
