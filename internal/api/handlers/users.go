// users.go — обработчики /users и /roles endpoints.
// Изменение пользователей и ролей сбрасывает кэш ролей авторизации.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/tasktracker/internal/api/errors"
	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// ListUsers — GET /users/.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	items, err := h.users.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения списка пользователей")
		return
	}
	writeJSON(w, http.StatusOK, listOrEmpty(items))
}

// GetUser — GET /users/{id}.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "User")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения пользователя")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// CreateUser — POST /users/. Доступ: Admin.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in model.UserInput
	if _, err := decodeBody(w, r, &in); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	id, err := h.users.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка создания пользователя")
		return
	}
	writeCreated(w, "User", "user_id", id)
}

// UpdateUser — PUT /users/{id}. Доступ: Admin.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "User")
	if !ok {
		return
	}
	var in model.UserInput
	if _, err := decodeBody(w, r, &in); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	if err := h.users.Update(r.Context(), id, in); err != nil {
		h.writeServiceError(w, err, "Ошибка обновления пользователя")
		return
	}
	h.invalidateRole(id)
	writeMessage(w, "User updated successfully")
}

// DeleteUser — DELETE /users/{id}. Доступ: Admin.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "User")
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "Ошибка удаления пользователя")
		return
	}
	h.invalidateRole(id)
	writeMessage(w, "User deleted successfully")
}

// ListRoles — GET /roles/.
func (h *APIHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	items, err := h.roles.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения списка ролей")
		return
	}
	writeJSON(w, http.StatusOK, listOrEmpty(items))
}

// GetRole — GET /roles/{id}.
func (h *APIHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Role")
	if !ok {
		return
	}
	role, err := h.roles.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения роли")
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// CreateRole — POST /roles/. Доступ: Admin.
func (h *APIHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var in model.RoleInput
	if _, err := decodeBody(w, r, &in); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	id, err := h.roles.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка создания роли")
		return
	}
	writeCreated(w, "Role", "role_id", id)
}

// UpdateRole — PUT /roles/{id}. Доступ: Admin.
func (h *APIHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Role")
	if !ok {
		return
	}
	var in model.RoleInput
	if _, err := decodeBody(w, r, &in); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	if err := h.roles.Update(r.Context(), id, in); err != nil {
		h.writeServiceError(w, err, "Ошибка обновления роли")
		return
	}
	h.purgeRoles()
	writeMessage(w, "Role updated successfully")
}

// DeleteRole — DELETE /roles/{id}. Пользователи с этой ролью остаются без роли.
func (h *APIHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Role")
	if !ok {
		return
	}
	if err := h.roles.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "Ошибка удаления роли")
		return
	}
	h.purgeRoles()
	writeMessage(w, "Role deleted successfully")
}

func (h *APIHandler) invalidateRole(userID int64) {
	if h.roleCache != nil {
		h.roleCache.Invalidate(userID)
	}
}

func (h *APIHandler) purgeRoles() {
	if h.roleCache != nil {
		h.roleCache.Purge()
	}
}
