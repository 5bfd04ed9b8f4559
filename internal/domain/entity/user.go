package entity

import "time"

// User representa un operador registrado en el arranque.
// El registro es inmutable durante la ejecución: se siembra una vez y no se
// edita. Credential es la contraseña en claro (contrato heredado, comparación
// exacta) o un hash bcrypt si la instalación activa el modo endurecido.
type User struct {
	Username   string
	Credential string
	Department Department
	Role       Role
	CreatedAt  time.Time
}

// IsManager indica si el usuario tiene el rol privilegiado.
func (u *User) IsManager() bool {
	return u.Role.IsManager()
}
