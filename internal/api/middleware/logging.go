// logging.go — журнал обращений к API: одна запись slog на запрос.
// Запись содержит шаблон маршрута chi, пользователя (если запрос прошёл
// аутентификацию) и итог ответа.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// statusRecorder запоминает код ответа и число записанных байт.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}

// Unwrap нужен http.ResponseController.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// accessRecord — данные запроса, которые появляются ниже по цепочке
// middleware и нужны журналу после ответа.
type accessRecord struct {
	actor *Actor
}

const contextKeyAccess contextKey = "access_record"

// noteActor сохраняет пользователя запроса для журнала обращений.
func noteActor(ctx context.Context, actor *Actor) {
	if rec, ok := ctx.Value(contextKeyAccess).(*accessRecord); ok {
		rec.actor = actor
	}
}

// levelFor — уровень записи по коду ответа: 5xx — ERROR, 401/403 — INFO
// (обычный исход для истёкших токенов), остальные 4xx — WARN.
func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return slog.LevelInfo
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// routePattern — шаблон маршрута chi (/tasks/{id}); для запросов мимо
// роутера — исходный путь.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// RequestLogger пишет запись о каждом обращении к API.
// Ставится после RequestID и до Authenticator.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &accessRecord{}
			sr := newStatusRecorder(w)

			next.ServeHTTP(sr, r.WithContext(context.WithValue(r.Context(), contextKeyAccess, rec)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("route", routePattern(r)),
				slog.String("path", r.URL.Path),
				slog.Int("status", sr.status),
				slog.Int64("bytes", sr.bytes),
				slog.Duration("duration", time.Since(started)),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if ua := r.UserAgent(); ua != "" {
				attrs = append(attrs, slog.String("user_agent", ua))
			}
			if id := RequestIDFromContext(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if rec.actor != nil {
				attrs = append(attrs,
					slog.Int64("user_id", rec.actor.UserID),
					slog.String("role", rec.actor.Role),
				)
			}
			logger.LogAttrs(r.Context(), levelFor(sr.status), "Обращение к API", attrs...)
		})
	}
}
