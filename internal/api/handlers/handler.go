// handler.go — основной обработчик REST API Task Tracker.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/bigkaa/tasktracker/internal/api/errors"
	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/service"
)

// maxBodyBytes — предельный размер тела запроса.
const maxBodyBytes = 1 << 20

// ProjectService — операции над проектами (реализуется service.ProjectService).
type ProjectService interface {
	List(ctx context.Context) ([]model.Project, error)
	Get(ctx context.Context, id int64) (*model.Project, error)
	Create(ctx context.Context, in model.ProjectInput) (int64, error)
	Update(ctx context.Context, id int64, in model.ProjectInput) error
	Delete(ctx context.Context, id int64) error
}

// TaskService — операции над задачами (реализуется service.TaskService).
type TaskService interface {
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id int64) (*model.Task, error)
	Create(ctx context.Context, in model.TaskInput) (int64, error)
	Update(ctx context.Context, role string, id int64, in model.TaskInput) error
	Delete(ctx context.Context, id int64) error
}

// UserService — операции над пользователями (реализуется service.UserService).
type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, in model.UserInput) (int64, error)
	Update(ctx context.Context, id int64, in model.UserInput) error
	Delete(ctx context.Context, id int64) error
}

// RoleService — операции над ролями (реализуется service.RoleService).
type RoleService interface {
	List(ctx context.Context) ([]model.Role, error)
	Get(ctx context.Context, id int64) (*model.Role, error)
	Create(ctx context.Context, in model.RoleInput) (int64, error)
	Update(ctx context.Context, id int64, in model.RoleInput) error
	Delete(ctx context.Context, id int64) error
}

// AuthService — вход и профиль (реализуется service.AuthService).
type AuthService interface {
	Login(ctx context.Context, providerToken string) (*service.LoginResult, error)
	Me(ctx context.Context, userID int64, roleName string) (*model.Identity, error)
}

// RoleInvalidator сбрасывает закэшированные роли после изменения
// пользователей и ролей.
type RoleInvalidator interface {
	Invalidate(userID int64)
	Purge()
}

// Services — зависимости APIHandler.
type Services struct {
	Projects ProjectService
	Tasks    TaskService
	Users    UserService
	Roles    RoleService
	Auth     AuthService
	// RoleCache может быть nil
	RoleCache RoleInvalidator
}

// APIHandler — основной обработчик REST API.
type APIHandler struct {
	projects  ProjectService
	tasks     TaskService
	users     UserService
	roles     RoleService
	auth      AuthService
	roleCache RoleInvalidator
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(s Services, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		projects:  s.Projects,
		tasks:     s.Tasks,
		users:     s.Users,
		roles:     s.Roles,
		auth:      s.Auth,
		roleCache: s.RoleCache,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// messageResponse — ответ на изменение и удаление.
type messageResponse struct {
	Message string `json:"message"`
}

// writeCreated — 201 {"message": "<Entity> created successfully", "<entity>_id": id}.
func writeCreated(w http.ResponseWriter, entity, idField string, id int64) {
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": entity + " created successfully",
		idField:   id,
	})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

// listOrEmpty гарантирует JSON-массив вместо null.
func listOrEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// errMalformedBody — тело запроса не является JSON-объектом.
var errMalformedBody = errors.New("Request body must be a JSON object.")

// decodeBody разбирает JSON-объект тела в dst и возвращает множество
// переданных ключей.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) (map[string]json.RawMessage, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errMalformedBody
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil || keys == nil {
		return nil, errMalformedBody
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return nil, errMalformedBody
	}
	return keys, nil
}

// pathID извлекает {id} из пути. Некорректный id — 404, как для
// несуществующего ресурса.
func pathID(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		apierrors.NotFound(w, entity+" not found.")
		return 0, false
	}
	return id, true
}

// parseDate разбирает дату YYYY-MM-DD. Пустое значение — nil.
func parseDate(field string, value *string) (*openapi_types.Date, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *value)
	if err != nil {
		return nil, service.InvalidDate(field)
	}
	return &openapi_types.Date{Time: t}, nil
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ.
// Неизвестные ошибки логируются и возвращаются как 500.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, action string) {
	message := service.Message(err, "")
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, message)
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, message)
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, message)
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, message)
	case errors.Is(err, service.ErrUnauthenticated):
		apierrors.Unauthorized(w, message)
	default:
		h.logger.Error(action, slog.String("error", err.Error()))
		apierrors.InternalError(w, apierrors.MsgInternal)
	}
}
