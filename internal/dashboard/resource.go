package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/tasktracker/internal/domain/rbac"
	"github.com/bigkaa/tasktracker/internal/syncengine"
)

// PermissionDeniedMessage — текст 403 по умолчанию.
const PermissionDeniedMessage = "Permission denied. You do not have the required role to perform this action."

// refresher — то, что можно перезагрузить после изменения (коллекция).
type refresher interface {
	Refresh(ctx context.Context) syncengine.Result
}

// Resource — коллекция ресурса вместе с формой, правилами проверки
// и списком зависимых коллекций, которые перезагружаются после удаления.
type Resource[T any, In any] struct {
	Entity     rbac.Entity
	Collection *syncengine.Collection[T]
	Form       *Form[In]

	title        string
	singular     string
	validate     func(In, Mode) string
	deletePrompt string
	dependents   []refresher
	engine       *syncengine.Engine
	notifier     *syncengine.Notifier
	confirm      syncengine.ConfirmFunc
	logger       *slog.Logger
}

// resourceSpec — параметры ресурса.
type resourceSpec[In any] struct {
	entity       rbac.Entity
	name         string
	singular     string
	title        string
	path         string
	scope        syncengine.Scope
	validate     func(In, Mode) string
	deletePrompt string
}

func newResource[T any, In any](spec resourceSpec[In], engine *syncengine.Engine, notifier *syncengine.Notifier, confirm syncengine.ConfirmFunc, logger *slog.Logger) *Resource[T, In] {
	var zero In
	return &Resource[T, In]{
		Entity:       spec.entity,
		Collection:   syncengine.NewCollection[T](spec.name, spec.path, spec.scope, engine, notifier, logger),
		Form:         newForm(zero),
		title:        spec.title,
		singular:     spec.singular,
		validate:     spec.validate,
		deletePrompt: spec.deletePrompt,
		engine:       engine,
		notifier:     notifier,
		confirm:      confirm,
		logger:       logger.With(slog.String("resource", spec.name)),
	}
}

// dependsOn задаёт коллекции, перезагружаемые после удаления элемента.
func (r *Resource[T, In]) dependsOn(deps ...refresher) {
	r.dependents = append(r.dependents, deps...)
}

// Refresh перезагружает коллекцию ресурса.
func (r *Resource[T, In]) Refresh(ctx context.Context) syncengine.Result {
	return r.Collection.Refresh(ctx)
}

func (r *Resource[T, In]) scope() syncengine.Scope {
	return r.Collection.Scope()
}

// Create проверяет форму, создаёт элемент и при успехе сбрасывает
// и скрывает форму, затем перезагружает коллекцию. При ошибке введённые
// значения остаются в форме.
func (r *Resource[T, In]) Create(ctx context.Context, input In) syncengine.Result {
	r.Form.Set(input)

	if msg := r.validate(input, ModeCreate); msg != "" {
		r.notifier.SetError(r.scope(), msg)
		return syncengine.ValidationFailure(msg)
	}

	res := r.engine.Create(ctx, r.Collection.Path(), input)
	if !r.engine.Current(res) {
		return res
	}

	switch res.Kind {
	case syncengine.KindOK:
		r.notifier.SetMessage(r.scope(), orDefault(res.Message, r.title+" created successfully!"))
		r.Form.Reset()
		r.Form.Hide()
		r.Collection.Refresh(ctx)
	default:
		r.reportFailure(res, "creating")
	}
	return res
}

// Update отправляет (возможно частичный) патч элемента id. При успехе
// форма выходит из режима редактирования, коллекция перезагружается.
func (r *Resource[T, In]) Update(ctx context.Context, id int64, patch In) syncengine.Result {
	if msg := r.validate(patch, ModeUpdate); msg != "" {
		r.notifier.SetError(r.scope(), msg)
		return syncengine.ValidationFailure(msg)
	}

	res := r.engine.Update(ctx, r.Collection.Path(), id, patch)
	if !r.engine.Current(res) {
		return res
	}

	switch res.Kind {
	case syncengine.KindOK:
		r.notifier.SetMessage(r.scope(), orDefault(res.Message, r.title+" updated successfully!"))
		if editing, ok := r.Form.Editing(); ok && editing == id {
			r.Form.Reset()
			r.Form.Hide()
		}
		r.Collection.Refresh(ctx)
	default:
		r.reportFailure(res, "updating")
	}
	return res
}

// Delete запрашивает подтверждение и удаляет элемент id. При успехе
// перезагружаются коллекция и зависимые коллекции. Второе значение —
// подтвердил ли пользователь удаление.
func (r *Resource[T, In]) Delete(ctx context.Context, id int64) (syncengine.Result, bool) {
	res, confirmed := r.engine.Delete(ctx, r.Collection.Path(), id, r.confirm, r.deletePrompt)
	if !confirmed || !r.engine.Current(res) {
		return res, confirmed
	}

	switch res.Kind {
	case syncengine.KindOK:
		r.notifier.SetMessage(r.scope(), orDefault(res.Message, r.title+" deleted successfully!"))
		r.Collection.Refresh(ctx)
		for _, dep := range r.dependents {
			dep.Refresh(ctx)
		}
	default:
		r.reportFailure(res, "deleting")
	}
	return res, true
}

// reportFailure выводит ошибку операции в область ресурса.
func (r *Resource[T, In]) reportFailure(res syncengine.Result, verb string) {
	switch res.Kind {
	case syncengine.KindSessionExpired:
		// сессия завершена, сообщение выставит Dashboard
	case syncengine.KindPermissionDenied:
		r.notifier.SetError(r.scope(), orDefault(res.Message, PermissionDeniedMessage))
	default:
		r.notifier.SetError(r.scope(), fmt.Sprintf("Error %s %s: %s", verb, r.singular, res.Message))
	}
	r.logger.Debug("Операция не выполнена",
		slog.String("operation", verb),
		slog.String("kind", res.Kind.String()),
	)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
