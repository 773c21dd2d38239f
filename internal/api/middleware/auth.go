// auth.go — аутентификация по токену приложения и проверка прав роли.
// Роль для авторизации берётся из БД по app_user_id (через кэш), чтобы
// смена роли действовала без повторного входа. При ошибке чтения
// используется roleName из токена.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/tasktracker/internal/api/errors"
	"github.com/bigkaa/tasktracker/internal/apptoken"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// contextKeyActor — аутентифицированный пользователь запроса.
	contextKeyActor contextKey = "actor"
	// contextKeyRequestID — идентификатор запроса.
	contextKeyRequestID contextKey = "request_id"
)

// Actor — пользователь, от имени которого выполняется запрос.
type Actor struct {
	UserID int64
	Email  string
	RoleID *int64
	// Role — действующая роль (из БД либо из токена)
	Role string
	// TokenRole — роль, записанная в токене при входе
	TokenRole string
}

// TokenParser проверяет токен приложения (реализуется apptoken.Issuer).
type TokenParser interface {
	Parse(token string) (*apptoken.Claims, error)
}

// RoleSource возвращает текущую роль пользователя.
type RoleSource interface {
	RoleOf(ctx context.Context, userID int64) (string, error)
}

// Authenticator — middleware проверки Bearer-токена приложения.
type Authenticator struct {
	parser TokenParser
	roles  RoleSource
	logger *slog.Logger
}

// NewAuthenticator создаёт Authenticator. roles может быть nil:
// тогда роль берётся только из токена.
func NewAuthenticator(parser TokenParser, roles RoleSource, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		parser: parser,
		roles:  roles,
		logger: logger.With(slog.String("component", "auth")),
	}
}

// Middleware возвращает HTTP middleware аутентификации. Actor помещается
// в контекст запроса.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenString) == "" {
				apierrors.Unauthorized(w, apierrors.MsgTokenMissing)
				return
			}

			claims, err := a.parser.Parse(strings.TrimSpace(tokenString))
			if err != nil {
				a.logger.Debug("Токен приложения отклонён",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				if errors.Is(err, apptoken.ErrExpired) {
					apierrors.Unauthorized(w, apptoken.ErrExpired.Error())
					return
				}
				apierrors.Unauthorized(w, apptoken.ErrInvalid.Error())
				return
			}

			actor := &Actor{
				UserID:    claims.UserID,
				Email:     claims.Email,
				RoleID:    claims.RoleID,
				Role:      claims.RoleName,
				TokenRole: claims.RoleName,
			}
			if a.roles != nil {
				role, err := a.roles.RoleOf(r.Context(), claims.UserID)
				if err != nil {
					a.logger.Warn("Не удалось получить роль из БД, используется роль токена",
						slog.Int64("user_id", claims.UserID),
						slog.String("error", err.Error()),
					)
				} else {
					actor.Role = role
				}
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequirePermission возвращает middleware, пропускающий только роли,
// которым разрешена операция op над ресурсом entity.
// Должен использоваться ПОСЛЕ Authenticator.Middleware().
func RequirePermission(entity rbac.Entity, op rbac.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				apierrors.Unauthorized(w, apierrors.MsgTokenMissing)
				return
			}
			if !rbac.Permits(actor.Role, entity, op) {
				apierrors.Forbidden(w, apierrors.MsgPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireKnownRole пропускает пользователей с одной из ролей системы.
// Пользователь без роли или с пользовательской ролью получает 403.
func RequireKnownRole() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				apierrors.Unauthorized(w, apierrors.MsgTokenMissing)
				return
			}
			if !rbac.IsValidRole(actor.Role) {
				apierrors.Forbidden(w, apierrors.MsgPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Context helpers ---

// ActorFromContext извлекает Actor из контекста запроса.
// Возвращает nil, если запрос не аутентифицирован.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(contextKeyActor).(*Actor)
	return actor
}

// WithActor возвращает контекст с Actor и отмечает пользователя в журнале обращений.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	noteActor(ctx, actor)
	return context.WithValue(ctx, contextKeyActor, actor)
}
