package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
	"github.com/bigkaa/tasktracker/internal/repository"
)

// ReadOnlyStatusMessage — отказ Read Only при изменении полей, кроме статуса.
const ReadOnlyStatusMessage = "Read Only users can only update task status."

// TaskService — операции над задачами.
type TaskService struct {
	repo   repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService создаёт сервис задач.
func NewTaskService(repo repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: logger.With(slog.String("component", "task_service")),
	}
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.repo.List(ctx)
}

func (s *TaskService) Get(ctx context.Context, id int64) (*model.Task, error) {
	t, err := s.repo.Get(ctx, id)
	return t, mapRepoError(err, "Task")
}

// Create создаёт задачу. Обязательно только description.
func (s *TaskService) Create(ctx context.Context, in model.TaskInput) (int64, error) {
	if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
		return 0, missingField("description")
	}
	if err := checkStatus(in.Status); err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return 0, mapRepoError(err, "Task")
	}
	s.logger.Info("Задача создана", slog.Int64("task_id", id))
	return id, nil
}

// Update меняет переданные поля задачи. Роль Read Only может менять
// только статус.
func (s *TaskService) Update(ctx context.Context, role string, id int64, in model.TaskInput) error {
	if role == rbac.RoleReadOnly && !in.StatusOnly() {
		return forbidden(ReadOnlyStatusMessage)
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		return invalid("Field 'description' must not be empty.")
	}
	if err := checkStatus(in.Status); err != nil {
		return err
	}
	return mapRepoError(s.repo.Update(ctx, id, in), "Task")
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "Task")
	}
	s.logger.Info("Задача удалена", slog.Int64("task_id", id))
	return nil
}

func checkStatus(status *model.TaskStatus) error {
	if status == nil || status.Valid() {
		return nil
	}
	names := make([]string, len(model.TaskStatuses))
	for i, st := range model.TaskStatuses {
		names[i] = string(st)
	}
	return invalid("Invalid status '%s'. Allowed: %s.", *status, strings.Join(names, ", "))
}
