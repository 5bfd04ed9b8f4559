// Package catalog carga el catálogo de productos de proveedor desde los CSV
// por departamento (exportes heredados: ISO-8859-1, separados por ';', con la
// fila de cabecera real en la segunda línea del archivo).
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/spatrac/internal/domain"
	"github.com/jhoicas/spatrac/internal/domain/entity"
	"github.com/jhoicas/spatrac/internal/domain/repository"
)

var _ repository.Catalog = (*CSVCatalog)(nil)

// CSVCatalog catálogo en memoria, de sólo lectura tras la carga.
type CSVCatalog struct {
	products []entity.CatalogProduct
}

// LoadFiles carga y concatena los catálogos de los archivos dados.
func LoadFiles(paths ...string) (*CSVCatalog, error) {
	c := &CSVCatalog{}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open catalog %s: %w", path, err)
		}
		err = c.load(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", path, err)
		}
	}
	return c, nil
}

// Load carga un catálogo desde un reader (bytes ISO-8859-1).
func Load(r io.Reader) (*CSVCatalog, error) {
	c := &CSVCatalog{}
	if err := c.load(r); err != nil {
		return nil, err
	}
	return c, nil
}

// Columnas del exporte heredado.
const (
	colProductCode         = "Product Code"
	colSupplierProductCode = "Supplier Product Code"
	colDescription         = "Product Description"
	colSupplier            = "Supplier Name"
	colDepartment          = "Department"
	colSubDepartment       = "Sub-Department"
)

func (c *CSVCatalog) load(r io.Reader) error {
	reader := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	// La primera línea es una cabecera de exporte sin valor; la segunda trae
	// los nombres de columna reales.
	if len(records) < 2 {
		return fmt.Errorf("csv too short: %d lines", len(records))
	}
	header := map[string]int{}
	for i, name := range records[1] {
		header[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colProductCode, colDescription, colDepartment} {
		if _, ok := header[required]; !ok {
			return fmt.Errorf("csv missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for _, row := range records[2:] {
		code := field(row, colProductCode)
		if code == "" {
			continue
		}
		subCode := field(row, colSubDepartment)
		c.products = append(c.products, entity.CatalogProduct{
			ProductCode:         code,
			SupplierProductCode: field(row, colSupplierProductCode),
			Description:         field(row, colDescription),
			Supplier:            field(row, colSupplier),
			Department:          field(row, colDepartment),
			SubDepartmentCode:   subCode,
			SubDepartment:       SubDepartmentFor(subCode).Name,
		})
	}
	return nil
}

// FindByCode busca por código de producto: cero filas → ErrNotFound,
// varias → ErrAmbiguousProduct.
func (c *CSVCatalog) FindByCode(code string) (*entity.CatalogProduct, error) {
	return c.find(func(p entity.CatalogProduct) bool { return p.ProductCode == code })
}

// FindBySupplierCode busca por código de producto del proveedor.
func (c *CSVCatalog) FindBySupplierCode(code string) (*entity.CatalogProduct, error) {
	return c.find(func(p entity.CatalogProduct) bool { return p.SupplierProductCode == code })
}

// FindByDescription busca por descripción exacta.
func (c *CSVCatalog) FindByDescription(description string) (*entity.CatalogProduct, error) {
	return c.find(func(p entity.CatalogProduct) bool { return p.Description == description })
}

// Descriptions lista las descripciones únicas ordenadas (combos de la UI).
func (c *CSVCatalog) Descriptions() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Description]; ok {
			continue
		}
		seen[p.Description] = struct{}{}
		out = append(out, p.Description)
	}
	sort.Strings(out)
	return out
}

// Len devuelve cuántas filas se cargaron.
func (c *CSVCatalog) Len() int { return len(c.products) }

func (c *CSVCatalog) find(match func(entity.CatalogProduct) bool) (*entity.CatalogProduct, error) {
	var found *entity.CatalogProduct
	for i := range c.products {
		if match(c.products[i]) {
			if found != nil {
				return nil, domain.ErrAmbiguousProduct
			}
			found = &c.products[i]
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	out := *found
	return &out, nil
}
