package auth

import "golang.org/x/crypto/bcrypt"

// CredentialScheme define cómo se almacenan y verifican las credenciales.
// El contrato heredado es comparación exacta en claro (PlainCredentials);
// BcryptCredentials es el modo endurecido para instalaciones que lo activen.
type CredentialScheme interface {
	Encode(plain string) (string, error)
	Verify(stored, plain string) bool
}

// PlainCredentials compara la contraseña por igualdad exacta de cadenas,
// sensible a mayúsculas. Sólo aceptable en una herramienta de un único
// equipo de confianza; cualquier despliegue más amplio debe usar bcrypt.
type PlainCredentials struct{}

func (PlainCredentials) Encode(plain string) (string, error) { return plain, nil }

func (PlainCredentials) Verify(stored, plain string) bool { return stored == plain }

// BcryptCredentials almacena hashes bcrypt y verifica con comparación segura.
type BcryptCredentials struct {
	Cost int
}

func (c BcryptCredentials) Encode(plain string) (string, error) {
	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (c BcryptCredentials) Verify(stored, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}
