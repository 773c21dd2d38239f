package syncengine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/tasktracker/internal/apiclient"
	"github.com/bigkaa/tasktracker/internal/session"
)

// Requester — транспорт запросов (реализуется apiclient.Client).
type Requester interface {
	Do(ctx context.Context, method, path string, body any) (*apiclient.Response, error)
}

// ConfirmFunc — подтверждение необратимого действия пользователем.
// prompt описывает последствия; false отменяет действие.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Engine — единый путь отправки запросов: запрос, классификация,
// реакция на 401, отбрасывание ответов устаревшей сессии.
type Engine struct {
	client  Requester
	session *session.Session
	metrics *Metrics
	logger  *slog.Logger
}

// NewEngine создаёт Engine. metrics может быть nil.
func NewEngine(client Requester, sess *session.Session, metrics *Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		client:  client,
		session: sess,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "sync_engine")),
	}
}

// Session возвращает сессию, к которой привязан Engine.
func (e *Engine) Session() *session.Session {
	return e.session
}

// Execute отправляет запрос и классифицирует ответ. При 401 сессия
// текущей эпохи завершается. Если сессия сменилась, пока запрос был
// в пути, результат помечается Stale и не должен применяться.
func (e *Engine) Execute(ctx context.Context, method, path string, body any) Result {
	epoch := e.session.Epoch()

	var r Result
	resp, err := e.client.Do(ctx, method, path, body)
	if err != nil {
		r = NetworkFailure(err)
	} else {
		r = Classify(resp.StatusCode, resp.Body)
	}
	r.Epoch = epoch

	if r.Kind == KindSessionExpired {
		if _, err := e.session.ExpireAt(ctx, epoch); err != nil {
			e.logger.Error("Ошибка завершения сессии",
				slog.String("error", err.Error()),
			)
		}
	}
	r.Stale = !e.session.IsCurrent(epoch) && r.Kind != KindSessionExpired

	e.metrics.observe(method, r)
	if !r.OK() {
		attrs := []any{
			slog.String("method", method),
			slog.String("path", path),
			slog.String("kind", r.Kind.String()),
			slog.Int("status", r.Status),
			slog.String("message", r.Message),
		}
		if r.Cause != nil {
			attrs = append(attrs, slog.String("error", r.Cause.Error()))
		}
		e.logger.Debug("Запрос завершился ошибкой", attrs...)
	}
	return r
}

// Current сообщает, что результат получен в текущей эпохе сессии.
func (e *Engine) Current(r Result) bool {
	return !r.Stale && e.session.IsCurrent(r.Epoch)
}

// Fetch — GET коллекции.
func (e *Engine) Fetch(ctx context.Context, path string) Result {
	return e.Execute(ctx, http.MethodGet, path, nil)
}

// Create — POST нового элемента в коллекцию.
func (e *Engine) Create(ctx context.Context, path string, payload any) Result {
	return e.Execute(ctx, http.MethodPost, path, payload)
}

// Update — PUT элемента. payload может быть частичным.
func (e *Engine) Update(ctx context.Context, path string, id int64, payload any) Result {
	return e.Execute(ctx, http.MethodPut, ItemPath(path, id), payload)
}

// Delete — DELETE элемента после подтверждения. Возвращает false, если
// пользователь отказался; запрос в этом случае не отправляется.
func (e *Engine) Delete(ctx context.Context, path string, id int64, confirm ConfirmFunc, prompt string) (Result, bool) {
	if confirm != nil && !confirm(ctx, prompt) {
		e.logger.Debug("Удаление отменено пользователем",
			slog.String("path", path),
			slog.Int64("id", id),
		)
		return Result{}, false
	}
	return e.Execute(ctx, http.MethodDelete, ItemPath(path, id), nil), true
}

// ItemPath строит путь элемента коллекции: "/projects/" + 5 → "/projects/5".
func ItemPath(collectionPath string, id int64) string {
	return fmt.Sprintf("%s/%d", strings.TrimRight(collectionPath, "/"), id)
}
