package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/spatrac/internal/domain"
	"github.com/jhoicas/spatrac/internal/domain/entity"
	"github.com/jhoicas/spatrac/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre SQLite.
type UserRepo struct {
	db *DB
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create persiste un nuevo usuario. Username duplicado → ErrUserAlreadyExists.
func (r *UserRepo) Create(user *entity.User) error {
	query := `
		INSERT INTO users (username, credential, department, role, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query,
		user.Username, user.Credential, string(user.Department), string(user.Role),
		user.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByUsername obtiene un usuario por username; (nil, nil) si no existe.
func (r *UserRepo) GetByUsername(username string) (*entity.User, error) {
	query := `
		SELECT username, credential, department, role, created_at
		FROM users WHERE username = ?`
	u, err := scanUser(r.db.QueryRow(query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// List devuelve todos los usuarios registrados.
func (r *UserRepo) List() ([]*entity.User, error) {
	rows, err := r.db.Query(`
		SELECT username, credential, department, role, created_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u          entity.User
		dept, role string
		createdAt  string
	)
	if err := row.Scan(&u.Username, &u.Credential, &dept, &role, &createdAt); err != nil {
		return nil, err
	}
	u.Department = entity.Department(dept)
	u.Role = entity.Role(role)
	if ts, err := time.Parse(time.DateTime, createdAt); err == nil {
		u.CreatedAt = ts
	}
	return &u, nil
}
