package entity

import (
	"fmt"
	"strings"
)

// Department es el conjunto cerrado de departamentos de la operación.
// Delivery es la autoridad transversal de recepción: un Manager de Delivery
// está autorizado sobre cualquier departamento.
type Department string

const (
	DepartmentButchery Department = "Butchery"
	DepartmentBakery   Department = "Bakery"
	DepartmentHMR      Department = "HMR"
	DepartmentDelivery Department = "Delivery"
)

// Departments lista los departamentos válidos en orden estable.
func Departments() []Department {
	return []Department{DepartmentButchery, DepartmentBakery, DepartmentHMR, DepartmentDelivery}
}

// ParseDepartment normaliza entrada libre (mayúsculas/minúsculas y espacios)
// al valor canónico. Entrada desconocida se rechaza en el borde.
func ParseDepartment(s string) (Department, error) {
	trimmed := strings.TrimSpace(s)
	for _, d := range Departments() {
		if strings.EqualFold(trimmed, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown department %q", s)
}

// Equals compara ignorando mayúsculas y espacios alrededor.
func (d Department) Equals(other Department) bool {
	return strings.EqualFold(strings.TrimSpace(string(d)), strings.TrimSpace(string(other)))
}

func (d Department) String() string { return string(d) }

// Role es el conjunto cerrado de roles. Manager es el único rol privilegiado.
type Role string

const (
	RoleManager Role = "Manager"
	RoleStaff   Role = "Staff"
)

// ParseRole normaliza entrada libre al rol canónico.
func ParseRole(s string) (Role, error) {
	trimmed := strings.TrimSpace(s)
	switch {
	case strings.EqualFold(trimmed, string(RoleManager)):
		return RoleManager, nil
	case strings.EqualFold(trimmed, string(RoleStaff)):
		return RoleStaff, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsManager compara el rol sin distinguir mayúsculas.
func (r Role) IsManager() bool {
	return strings.EqualFold(string(r), string(RoleManager))
}

func (r Role) String() string { return string(r) }
