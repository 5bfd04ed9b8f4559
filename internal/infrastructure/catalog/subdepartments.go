package catalog

// SubDepartment par (código corto, nombre) de un sub-departamento.
type SubDepartment struct {
	Code string
	Name string
}

// subDeptMapping mapa heredado de códigos de sub-departamento del catálogo.
var subDeptMapping = map[string]SubDepartment{
	"201": {"CALLC", "BUTCHERY"},
	"202": {"CBEEF", "BEEF"},
	"203": {"CCHIC", "BUTCHERY CHICKENS"},
	"204": {"CLAMB", "LAMB"},
	"205": {"CMUTT", "MUTTON"},
	"206": {"COFFL", "ALL OFFAL"},
	"207": {"CPORK", "PORK"},
	"208": {"CTURK", "BUTCHERY TURKEY"},
	"209": {"CVEAL", "VEAL"},
	"210": {"CBING", "INGREDIENTS"},
	"211": {"CALPAC", "BUTCHERY PACKAGING"},
}

// SubDepartmentFor resuelve el código numérico del CSV; códigos fuera del
// mapa devuelven Unknown, como el sistema original.
func SubDepartmentFor(code string) SubDepartment {
	if sd, ok := subDeptMapping[code]; ok {
		return sd
	}
	return SubDepartment{Code: "Unknown", Name: "Unknown"}
}
