// projects.go — обработчики /projects endpoints.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/tasktracker/internal/api/errors"
	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// projectRequest — тело POST/PUT /projects. Даты приходят строками.
type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	OwnerID     *int64  `json:"owner_id"`
}

func (req projectRequest) input() (model.ProjectInput, error) {
	in := model.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
	}
	var err error
	if in.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		return in, err
	}
	if in.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		return in, err
	}
	return in, nil
}

// ListProjects — GET /projects/.
func (h *APIHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	items, err := h.projects.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения списка проектов")
		return
	}
	writeJSON(w, http.StatusOK, listOrEmpty(items))
}

// GetProject — GET /projects/{id}.
func (h *APIHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения проекта")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProject — POST /projects/. Доступ: Admin.
func (h *APIHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if _, err := decodeBody(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeServiceError(w, err, "Ошибка разбора проекта")
		return
	}

	id, err := h.projects.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка создания проекта")
		return
	}
	writeCreated(w, "Project", "project_id", id)
}

// UpdateProject — PUT /projects/{id}. Доступ: Admin.
func (h *APIHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}
	var req projectRequest
	if _, err := decodeBody(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeServiceError(w, err, "Ошибка разбора проекта")
		return
	}

	if err := h.projects.Update(r.Context(), id, in); err != nil {
		h.writeServiceError(w, err, "Ошибка обновления проекта")
		return
	}
	writeMessage(w, "Project updated successfully")
}

// DeleteProject — DELETE /projects/{id}. Задачи проекта удаляются вместе с ним.
func (h *APIHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "Ошибка удаления проекта")
		return
	}
	writeMessage(w, "Project deleted successfully")
}
