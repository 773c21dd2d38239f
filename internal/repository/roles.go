package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// RoleRepository — CRUD таблицы roles.
type RoleRepository interface {
	List(ctx context.Context) ([]model.Role, error)
	Get(ctx context.Context, id int64) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	Create(ctx context.Context, name string) (int64, error)
	Update(ctx context.Context, id int64, in model.RoleInput) error
	// Delete удаляет роль; у пользователей роль обнуляется (ON DELETE SET NULL).
	Delete(ctx context.Context, id int64) error
	// EnsureDefaults создаёт отсутствующие роли с указанными именами.
	EnsureDefaults(ctx context.Context, names []string) error
}

type roleRepo struct {
	db DBTX
}

// NewRoleRepository создаёт репозиторий ролей.
func NewRoleRepository(db DBTX) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) List(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка ролей: %w", err)
	}
	defer rows.Close()

	result := make([]model.Role, 0)
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования роли: %w", err)
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

func (r *roleRepo) Get(ctx context.Context, id int64) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRow(ctx, `SELECT id, name FROM roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if err != nil {
		return nil, mapError(err)
	}
	return role, nil
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	role := &model.Role{}
	err := r.db.QueryRow(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		return nil, mapError(err)
	}
	return role, nil
}

func (r *roleRepo) Create(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO roles (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания роли: %w", mapError(err))
	}
	return id, nil
}

func (r *roleRepo) Update(ctx context.Context, id int64, in model.RoleInput) error {
	var set setList
	if in.Name != nil {
		set.add("name", *in.Name)
	}
	return set.update(ctx, r.db, "roles", id)
}

func (r *roleRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "roles", id)
}

func (r *roleRepo) EnsureDefaults(ctx context.Context, names []string) error {
	for _, name := range names {
		_, err := r.db.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
		if err != nil {
			return fmt.Errorf("ошибка создания роли %q: %w", name, err)
		}
	}
	return nil
}
