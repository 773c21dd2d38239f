package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// UserRepository — CRUD таблицы users и поиск по данным провайдера.
type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id int64) (*model.Account, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// Any сообщает, есть ли в базе хотя бы один пользователь.
	Any(ctx context.Context) (bool, error)
	Create(ctx context.Context, in model.UserInput) (int64, error)
	// CreateAccount создаёт пользователя, вошедшего через провайдера.
	CreateAccount(ctx context.Context, acc *model.Account) error
	// LinkProvider обновляет привязку к провайдеру и профиль.
	// nil-поля name и picture не затирают сохранённые значения.
	LinkProvider(ctx context.Context, id int64, googleID string, name, picture *string) error
	Update(ctx context.Context, id int64, in model.UserInput) error
	// Delete удаляет пользователя; владельцы проектов и задач обнуляются.
	Delete(ctx context.Context, id int64) error
	// RoleName возвращает имя текущей роли пользователя ("" — роль не назначена).
	RoleName(ctx context.Context, id int64) (string, error)
}

type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

const accountSelect = `
	SELECT u.id, u.username, u.email, u.role_id, r.name, u.google_id, u.name, u.picture
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id`

func scanAccount(row pgx.Row) (*model.Account, error) {
	acc := &model.Account{}
	err := row.Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.RoleID, &acc.RoleName,
		&acc.GoogleID, &acc.Name, &acc.Picture,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return acc, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, accountSelect+` ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	result := make([]model.User, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		result = append(result, acc.User)
	}
	return result, rows.Err()
}

func (r *userRepo) Get(ctx context.Context, id int64) (*model.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, accountSelect+` WHERE u.id = $1`, id))
}

func (r *userRepo) GetByGoogleID(ctx context.Context, googleID string) (*model.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, accountSelect+` WHERE u.google_id = $1`, googleID))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, accountSelect+` WHERE u.email = $1`, email))
}

func (r *userRepo) Any(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки пользователей: %w", err)
	}
	return exists, nil
}

func (r *userRepo) Create(ctx context.Context, in model.UserInput) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, email, role_id) VALUES ($1, $2, $3) RETURNING id`,
		in.Username, in.Email, in.RoleID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания пользователя: %w", mapError(err))
	}
	return id, nil
}

func (r *userRepo) CreateAccount(ctx context.Context, acc *model.Account) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, google_id, name, picture, role_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		acc.Username, acc.Email, acc.GoogleID, acc.Name, acc.Picture, acc.RoleID,
	).Scan(&acc.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания пользователя: %w", mapError(err))
	}
	return nil
}

func (r *userRepo) LinkProvider(ctx context.Context, id int64, googleID string, name, picture *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			google_id = $2,
			name = COALESCE($3, name),
			picture = COALESCE($4, picture)
		WHERE id = $1`,
		id, googleID, name, picture,
	)
	if err != nil {
		return fmt.Errorf("ошибка привязки провайдера: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) Update(ctx context.Context, id int64, in model.UserInput) error {
	var set setList
	if in.Username != nil {
		set.add("username", *in.Username)
	}
	if in.Email != nil {
		set.add("email", *in.Email)
	}
	if in.RoleID != nil {
		set.add("role_id", *in.RoleID)
	}
	return set.update(ctx, r.db, "users", id)
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "users", id)
}

func (r *userRepo) RoleName(ctx context.Context, id int64) (string, error) {
	var name *string
	err := r.db.QueryRow(ctx, `
		SELECT r.name FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`, id).Scan(&name)
	if err != nil {
		return "", mapError(err)
	}
	if name == nil {
		return "", nil
	}
	return *name, nil
}
