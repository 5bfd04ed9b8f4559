// Package sqlite implementa los puertos de persistencia sobre una base SQLite
// local de un único archivo. Es el único estado externo del que depende el
// núcleo: no hay red ni procesos concurrentes, sólo este archivo.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// DB envuelve la conexión database/sql.
type DB struct {
	*sql.DB
}

// Open abre (o crea) el archivo de base de datos y aplica los PRAGMA básicos.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	return &DB{db}, nil
}

// Migrate crea las tablas si no existen.
func (db *DB) Migrate() error {
	migrations := []string{
		createUsersTable,
		createReceivedProductsTable,
	}
	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	credential TEXT NOT NULL,
	department TEXT,
	role       TEXT,
	created_at TEXT NOT NULL
);
`

// received_products: una fila por lote recibido. handling_history y
// temperature_log se guardan como texto unido por saltos de línea; en memoria
// siempre viajan estructurados (la frontera de almacenamiento serializa).
const createReceivedProductsTable = `
CREATE TABLE IF NOT EXISTS received_products (
	id                    TEXT PRIMARY KEY,
	product_code          TEXT NOT NULL,
	supplier_product_code TEXT NOT NULL DEFAULT '',
	description           TEXT NOT NULL,
	supplier              TEXT NOT NULL DEFAULT '',
	batch_lot             TEXT NOT NULL,
	supplier_batch        TEXT NOT NULL,
	department            TEXT NOT NULL,
	sub_department        TEXT NOT NULL DEFAULT '',
	quantity              TEXT NOT NULL,
	unit                  TEXT NOT NULL,
	sell_by_date          TEXT NOT NULL,
	received_by           TEXT NOT NULL,
	received_date         TEXT NOT NULL,
	status                TEXT NOT NULL,
	current_location      TEXT NOT NULL DEFAULT '',
	processed_by          TEXT,
	processing_date       TEXT,
	handling_history      TEXT NOT NULL DEFAULT '',
	temperature_log       TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_received_products_identity
	ON received_products(product_code, supplier_batch);
CREATE INDEX IF NOT EXISTS idx_received_products_department
	ON received_products(department);
CREATE INDEX IF NOT EXISTS idx_received_products_status
	ON received_products(status);
`

// isUniqueViolation detecta la violación de unicidad de SQLite.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint
}
