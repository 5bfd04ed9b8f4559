package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Las comprobaciones de autorización NUNCA devuelven error: son predicados
// booleanos; estos errores son para las operaciones que mutan estado.
var (
	ErrNotFound          = errors.New("no matching product")
	ErrAmbiguousProduct  = errors.New("multiple products found")
	ErrInvalidInput      = errors.New("missing or invalid field")
	ErrUserAlreadyExists = errors.New("username already registered")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotAuthenticated  = errors.New("no user logged in")
	ErrUnauthorized      = errors.New("not authorized")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrPromptCancelled   = errors.New("temperature prompt cancelled")
)
