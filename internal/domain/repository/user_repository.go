package repository

import "github.com/jhoicas/spatrac/internal/domain/entity"

// UserRepository define el puerto de persistencia para User (DIP).
// El registro se siembra en el arranque y no cambia durante la ejecución.
type UserRepository interface {
	Create(user *entity.User) error
	GetByUsername(username string) (*entity.User, error)
	List() ([]*entity.User, error)
}
