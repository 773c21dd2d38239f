// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"

	"github.com/bigkaa/tasktracker/internal/repository"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrForbidden — действие запрещено для роли.
	ErrForbidden = errors.New("действие запрещено")
	// ErrUnauthenticated — токен провайдера или приложения не принят.
	ErrUnauthenticated = errors.New("требуется аутентификация")
)

// Error — ошибка сервиса с сообщением для клиента.
// Kind — одна из sentinel-ошибок пакета.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func forbidden(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// missingField — ошибка отсутствующего обязательного поля.
func missingField(name string) error {
	return invalid("Missing required field: '%s'", name)
}

// InvalidDate — ошибка формата даты поля field.
func InvalidDate(field string) error {
	return invalid("Invalid %s format. Please use YYYY-MM-DD.", field)
}

// Message возвращает сообщение для клиента: текст *Error либо fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}

// mapRepoError переводит ошибки репозитория в ошибки сервиса.
// entity — имя сущности для сообщений ("Project", "Task", ...).
func mapRepoError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: ErrNotFound, Message: entity + " not found."}
	case errors.Is(err, repository.ErrConflict):
		return &Error{Kind: ErrConflict, Message: entity + " already exists."}
	case errors.Is(err, repository.ErrReference):
		return invalid("%s references a record that does not exist.", entity)
	default:
		return err
	}
}
