// tasks.go — обработчики /tasks endpoints.
// Read Only может обновлять задачу только телом вида {"status": ...}.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/tasktracker/internal/api/errors"
	"github.com/bigkaa/tasktracker/internal/api/middleware"
	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
	"github.com/bigkaa/tasktracker/internal/service"
)

// taskRequest — тело POST/PUT /tasks.
type taskRequest struct {
	Description *string           `json:"description"`
	DueDate     *string           `json:"due_date"`
	Status      *model.TaskStatus `json:"status"`
	OwnerID     *int64            `json:"owner_id"`
	ProjectID   *int64            `json:"project_id"`
}

func (req taskRequest) input() (model.TaskInput, error) {
	in := model.TaskInput{
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     req.OwnerID,
		ProjectID:   req.ProjectID,
	}
	var err error
	in.DueDate, err = parseDate("due_date", req.DueDate)
	return in, err
}

// ListTasks — GET /tasks/.
func (h *APIHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	items, err := h.tasks.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения списка задач")
		return
	}
	writeJSON(w, http.StatusOK, listOrEmpty(items))
}

// GetTask — GET /tasks/{id}.
func (h *APIHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}
	t, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения задачи")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTask — POST /tasks/. Доступ: Admin, Task Creator.
func (h *APIHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if _, err := decodeBody(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeServiceError(w, err, "Ошибка разбора задачи")
		return
	}

	id, err := h.tasks.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка создания задачи")
		return
	}
	writeCreated(w, "Task", "task_id", id)
}

// UpdateTask — PUT /tasks/{id}. Доступ: все роли; Read Only — только статус.
func (h *APIHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		apierrors.Unauthorized(w, apierrors.MsgTokenMissing)
		return
	}

	var req taskRequest
	keys, err := decodeBody(w, r, &req)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	// Неизвестные ключи тоже считаются попыткой изменить не только статус
	if _, hasStatus := keys["status"]; actor.Role == rbac.RoleReadOnly && (len(keys) != 1 || !hasStatus) {
		apierrors.Forbidden(w, service.ReadOnlyStatusMessage)
		return
	}

	in, err := req.input()
	if err != nil {
		h.writeServiceError(w, err, "Ошибка разбора задачи")
		return
	}
	if err := h.tasks.Update(r.Context(), actor.Role, id, in); err != nil {
		h.writeServiceError(w, err, "Ошибка обновления задачи")
		return
	}
	writeMessage(w, "Task updated successfully")
}

// DeleteTask — DELETE /tasks/{id}. Доступ: Admin, Task Creator.
func (h *APIHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Task")
	if !ok {
		return
	}
	if err := h.tasks.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "Ошибка удаления задачи")
		return
	}
	writeMessage(w, "Task deleted successfully")
}
