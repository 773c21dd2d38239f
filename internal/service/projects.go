// Пакет service — бизнес-логика Task Tracker: правила CRUD ресурсов,
// вход через провайдера идентичности и мониторинг зависимостей.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/repository"
)

// ProjectService — операции над проектами.
type ProjectService struct {
	repo   repository.ProjectRepository
	logger *slog.Logger
}

// NewProjectService создаёт сервис проектов.
func NewProjectService(repo repository.ProjectRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		repo:   repo,
		logger: logger.With(slog.String("component", "project_service")),
	}
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	return s.repo.List(ctx)
}

func (s *ProjectService) Get(ctx context.Context, id int64) (*model.Project, error) {
	p, err := s.repo.Get(ctx, id)
	return p, mapRepoError(err, "Project")
}

// Create создаёт проект. Обязательно только name.
func (s *ProjectService) Create(ctx context.Context, in model.ProjectInput) (int64, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return 0, missingField("name")
	}
	if err := checkProjectDates(in); err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return 0, mapRepoError(err, "Project")
	}
	s.logger.Info("Проект создан", slog.Int64("project_id", id))
	return id, nil
}

// Update меняет только переданные поля.
func (s *ProjectService) Update(ctx context.Context, id int64, in model.ProjectInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("Field 'name' must not be empty.")
	}
	if err := checkProjectDates(in); err != nil {
		return err
	}
	return mapRepoError(s.repo.Update(ctx, id, in), "Project")
}

// Delete удаляет проект и его задачи.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "Project")
	}
	s.logger.Info("Проект удалён", slog.Int64("project_id", id))
	return nil
}

func checkProjectDates(in model.ProjectInput) error {
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(in.StartDate.Time) {
		return invalid("end_date must not be before start_date.")
	}
	return nil
}
