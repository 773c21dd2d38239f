package syncengine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Collection — локальная копия коллекции ресурса. Содержимое всегда
// заменяется целиком тем, что вернул сервер; слияния и оптимистичных
// изменений нет.
type Collection[T any] struct {
	name     string
	path     string
	scope    Scope
	engine   *Engine
	notifier *Notifier
	logger   *slog.Logger

	mu      sync.RWMutex
	items   []T
	warning string
	loaded  bool
}

// NewCollection создаёт коллекцию name, синхронизируемую с path.
// scope — область сообщений формы ресурса.
func NewCollection[T any](name, path string, scope Scope, engine *Engine, notifier *Notifier, logger *slog.Logger) *Collection[T] {
	return &Collection[T]{
		name:     name,
		path:     path,
		scope:    scope,
		engine:   engine,
		notifier: notifier,
		logger:   logger.With(slog.String("collection", name)),
	}
}

// Name возвращает имя коллекции ("projects", "tasks", ...).
func (c *Collection[T]) Name() string { return c.name }

// Path возвращает путь коллекции в REST API.
func (c *Collection[T]) Path() string { return c.path }

// Scope возвращает область сообщений коллекции.
func (c *Collection[T]) Scope() Scope { return c.scope }

// Refresh загружает коллекцию:
//   - 2xx: замена содержимого массивом из ответа;
//   - 403: коллекция очищается, выставляется предупреждение коллекции;
//   - 401: сессия уже завершена Engine, содержимое не трогаем;
//   - прочее: ошибка страницы, содержимое не трогаем.
func (c *Collection[T]) Refresh(ctx context.Context) Result {
	r := c.engine.Fetch(ctx, c.path)
	if r.Stale {
		return r
	}

	switch r.Kind {
	case KindOK:
		items, err := Decode[[]T](r)
		if err != nil {
			r = Result{Kind: KindRemoteFailure, Status: r.Status, Message: err.Error(), Epoch: r.Epoch}
			c.notifier.SetError(ScopePage, c.fetchError(r.Message))
			return r
		}
		if items == nil {
			items = []T{}
		}
		c.apply(r.Epoch, items, "")

	case KindPermissionDenied:
		c.apply(r.Epoch, []T{}, fmt.Sprintf("You do not have permission to view %s.", c.name))
		c.logger.Warn("Нет прав на просмотр коллекции")

	case KindSessionExpired:
		// сессия уже завершена в Engine.Execute

	default:
		c.notifier.SetError(ScopePage, c.fetchError(r.Message))
	}
	return r
}

// fetchError — текст ошибки страницы при неудачной загрузке.
func (c *Collection[T]) fetchError(msg string) string {
	return fmt.Sprintf("Failed to fetch %s: %s. Make sure the backend is running and accessible.", c.name, msg)
}

// apply заменяет содержимое, если эпоха сессии не сменилась.
func (c *Collection[T]) apply(epoch uint64, items []T, warning string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.engine.Session().IsCurrent(epoch) {
		return
	}
	c.items = items
	c.warning = warning
	c.loaded = true
}

// Replace заменяет содержимое коллекции.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.warning = ""
	c.loaded = true
}

// Reset очищает коллекцию (выход из сессии).
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.warning = ""
	c.loaded = false
}

// Items возвращает копию текущего содержимого.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len возвращает число элементов.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Warning возвращает предупреждение коллекции (например, нет прав).
func (c *Collection[T]) Warning() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warning
}

// Loaded сообщает, была ли коллекция хоть раз успешно загружена.
func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
