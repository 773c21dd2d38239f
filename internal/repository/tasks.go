package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// TaskRepository — CRUD таблицы tasks.
type TaskRepository interface {
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id int64) (*model.Task, error)
	Create(ctx context.Context, in model.TaskInput) (int64, error)
	Update(ctx context.Context, id int64, in model.TaskInput) error
	Delete(ctx context.Context, id int64) error
}

type taskRepo struct {
	db DBTX
}

// NewTaskRepository создаёт репозиторий задач.
func NewTaskRepository(db DBTX) TaskRepository {
	return &taskRepo{db: db}
}

const taskColumns = `id, description, due_date, status, owner_id, project_id`

func scanTask(row pgx.Row) (*model.Task, error) {
	t := &model.Task{}
	var due *time.Time
	var status *string
	if err := row.Scan(&t.ID, &t.Description, &due, &status, &t.OwnerID, &t.ProjectID); err != nil {
		return nil, mapError(err)
	}
	t.DueDate = toDate(due)
	if status != nil {
		s := model.TaskStatus(*status)
		t.Status = &s
	}
	return t, nil
}

func (r *taskRepo) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка задач: %w", err)
	}
	defer rows.Close()

	result := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования задачи: %w", err)
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

func (r *taskRepo) Get(ctx context.Context, id int64) (*model.Task, error) {
	return scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

func (r *taskRepo) Create(ctx context.Context, in model.TaskInput) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO tasks (description, due_date, status, owner_id, project_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		in.Description, dateArg(in.DueDate), statusArg(in.Status), in.OwnerID, in.ProjectID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания задачи: %w", mapError(err))
	}
	return id, nil
}

func (r *taskRepo) Update(ctx context.Context, id int64, in model.TaskInput) error {
	var set setList
	if in.Description != nil {
		set.add("description", *in.Description)
	}
	if in.DueDate != nil {
		set.add("due_date", dateArg(in.DueDate))
	}
	if in.Status != nil {
		set.add("status", string(*in.Status))
	}
	if in.OwnerID != nil {
		set.add("owner_id", *in.OwnerID)
	}
	if in.ProjectID != nil {
		set.add("project_id", *in.ProjectID)
	}
	return set.update(ctx, r.db, "tasks", id)
}

func (r *taskRepo) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "tasks", id)
}

func statusArg(s *model.TaskStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
