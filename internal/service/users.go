package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/repository"
)

// UserService — операции над пользователями.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	acc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "User")
	}
	return &acc.User, nil
}

// Create создаёт пользователя. Обязательны username и email.
func (s *UserService) Create(ctx context.Context, in model.UserInput) (int64, error) {
	if in.Username == nil || strings.TrimSpace(*in.Username) == "" {
		return 0, missingField("username")
	}
	if in.Email == nil || strings.TrimSpace(*in.Email) == "" {
		return 0, missingField("email")
	}
	if err := checkEmail(in.Email); err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, in)
	if err != nil {
		return 0, mapRepoError(err, "User")
	}
	s.logger.Info("Пользователь создан", slog.Int64("user_id", id))
	return id, nil
}

func (s *UserService) Update(ctx context.Context, id int64, in model.UserInput) error {
	if in.Username != nil && strings.TrimSpace(*in.Username) == "" {
		return invalid("Field 'username' must not be empty.")
	}
	if err := checkEmail(in.Email); err != nil {
		return err
	}
	return mapRepoError(s.repo.Update(ctx, id, in), "User")
}

// Delete удаляет пользователя; его проекты и задачи остаются без владельца.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "User")
	}
	s.logger.Info("Пользователь удалён", slog.Int64("user_id", id))
	return nil
}

func checkEmail(email *string) error {
	if email != nil && !strings.Contains(*email, "@") {
		return invalid("Invalid email address.")
	}
	return nil
}
