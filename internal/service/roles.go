package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/repository"
)

// RoleService — операции над ролями.
type RoleService struct {
	repo   repository.RoleRepository
	logger *slog.Logger
}

// NewRoleService создаёт сервис ролей.
func NewRoleService(repo repository.RoleRepository, logger *slog.Logger) *RoleService {
	return &RoleService{
		repo:   repo,
		logger: logger.With(slog.String("component", "role_service")),
	}
}

func (s *RoleService) List(ctx context.Context) ([]model.Role, error) {
	return s.repo.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, id int64) (*model.Role, error) {
	r, err := s.repo.Get(ctx, id)
	return r, mapRepoError(err, "Role")
}

func (s *RoleService) Create(ctx context.Context, in model.RoleInput) (int64, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return 0, missingField("name")
	}
	id, err := s.repo.Create(ctx, strings.TrimSpace(*in.Name))
	if err != nil {
		return 0, mapRepoError(err, "Role")
	}
	s.logger.Info("Роль создана", slog.Int64("role_id", id))
	return id, nil
}

func (s *RoleService) Update(ctx context.Context, id int64, in model.RoleInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return invalid("Field 'name' must not be empty.")
	}
	return mapRepoError(s.repo.Update(ctx, id, in), "Role")
}

// Delete удаляет роль; пользователи с этой ролью остаются без роли.
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "Role")
	}
	s.logger.Info("Роль удалена", slog.Int64("role_id", id))
	return nil
}
