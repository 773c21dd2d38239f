package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// ProjectRepository — CRUD таблицы projects.
type ProjectRepository interface {
	List(ctx context.Context) ([]model.Project, error)
	Get(ctx context.Context, id int64) (*model.Project, error)
	Create(ctx context.Context, in model.ProjectInput) (int64, error)
	Update(ctx context.Context, id int64, in model.ProjectInput) error
	// Delete удаляет проект вместе с его задачами (ON DELETE CASCADE).
	Delete(ctx context.Context, id int64) error
}

type projectRepo struct {
	db DBTX
}

// NewProjectRepository создаёт репозиторий проектов.
func NewProjectRepository(db DBTX) ProjectRepository {
	return &projectRepo{db: db}
}

const projectColumns = `id, name, description, start_date, end_date, owner_id`

func scanProject(row pgx.Row) (*model.Project, error) {
	p := &model.Project{}
	var start, end *time.Time
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &p.OwnerID); err != nil {
		return nil, mapError(err)
	}
	p.StartDate = toDate(start)
	p.EndDate = toDate(end)
	return p, nil
}

func (r *projectRepo) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка проектов: %w", err)
	}
	defer rows.Close()

	result := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования проекта: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *projectRepo) Get(ctx context.Context, id int64) (*model.Project, error) {
	return scanProject(r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (r *projectRepo) Create(ctx context.Context, in model.ProjectInput) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects (name, description, start_date, end_date, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		in.Name, in.Description, dateArg(in.StartDate), dateArg(in.EndDate), in.OwnerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания проекта: %w", mapError(err))
	}
	return id, nil
}

func (r *projectRepo) Update(ctx context.Context, id int64, in model.ProjectInput) error {
	var set setList
	if in.Name != nil {
		set.add("name", *in.Name)
	}
	if in.Description != nil {
		set.add("description", *in.Description)
	}
	if in.StartDate != nil {
		set.add("start_date", dateArg(in.StartDate))
	}
	if in.EndDate != nil {
		set.add("end_date", dateArg(in.EndDate))
	}
	if in.OwnerID != nil {
		set.add("owner_id", *in.OwnerID)
	}
	return set.update(ctx, r.db, "projects", id)
}

func (r *projectRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "projects", id)
}
