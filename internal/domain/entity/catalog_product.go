package entity

// CatalogProduct es una fila del catálogo de productos de proveedor
// (cargado desde los CSV por departamento). Es dato de referencia, no estado:
// el ciclo de vida vive en Lot.
type CatalogProduct struct {
	ProductCode         string
	SupplierProductCode string
	Description         string
	Supplier            string
	Department          string
	SubDepartmentCode   string
	SubDepartment       string
}
