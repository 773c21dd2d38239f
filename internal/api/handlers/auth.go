// auth.go — обработчики /auth endpoints: вход через провайдера и профиль.
package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/bigkaa/tasktracker/internal/api/errors"
	"github.com/bigkaa/tasktracker/internal/api/middleware"
	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/service"
)

// loginRequest — тело POST /auth/provider.
type loginRequest struct {
	Token string `json:"token"`
}

// loginResponse — ответ на успешный вход.
type loginResponse struct {
	Message string         `json:"message"`
	User    model.Identity `json:"user"`
	Token   string         `json:"token"`
}

// meResponse — ответ GET /auth/me.
type meResponse struct {
	User model.Identity `json:"user"`
}

// ProviderLogin — POST /auth/provider (и /auth/google).
// Обменивает ID-токен провайдера на токен приложения.
func (h *APIHandler) ProviderLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	// Нечитаемое тело равносильно отсутствию токена
	_, _ = decodeBody(w, r, &req)

	res, err := h.auth.Login(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, service.ErrValidation) || errors.Is(err, service.ErrUnauthenticated) {
			h.writeServiceError(w, err, "")
			return
		}
		h.logger.Error("Ошибка входа через провайдера", "error", err)
		apierrors.InternalError(w, "A server error occurred during authentication.")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Authentication successful.",
		User:    res.Identity,
		Token:   res.Token,
	})
}

// Me — GET /auth/me. Профиль пользователя токена с действующей ролью.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == nil {
		apierrors.Unauthorized(w, apierrors.MsgTokenMissing)
		return
	}
	identity, err := h.auth.Me(r.Context(), actor.UserID, actor.Role)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения профиля")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: *identity})
}
