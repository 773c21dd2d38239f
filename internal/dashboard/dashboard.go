// Пакет dashboard — контроллер клиента Task Tracker: восстановление
// сессии, вход и выход, четыре ресурса (проекты, задачи, пользователи,
// роли) и правила показа действий по роли пользователя.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bigkaa/tasktracker/internal/apiclient"
	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
	"github.com/bigkaa/tasktracker/internal/session"
	"github.com/bigkaa/tasktracker/internal/syncengine"
)

// Пути коллекций REST API.
const (
	PathProjects = "/projects/"
	PathTasks    = "/tasks/"
	PathUsers    = "/users/"
	PathRoles    = "/roles/"
)

// Transport — транспорт контроллера: обычные запросы и обмен токена провайдера.
type Transport interface {
	syncengine.Requester
	ExchangeProviderToken(ctx context.Context, providerToken string) (*apiclient.Response, error)
}

// LoginResponse — ответ POST /auth/provider.
type LoginResponse struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    model.Identity `json:"user"`
}

// Dashboard — контроллер клиента.
type Dashboard struct {
	Projects *Resource[model.Project, model.ProjectInput]
	Tasks    *Resource[model.Task, model.TaskInput]
	Users    *Resource[model.User, model.UserInput]
	Roles    *Resource[model.Role, model.RoleInput]

	session   *session.Session
	transport Transport
	engine    *syncengine.Engine
	notifier  *syncengine.Notifier
	confirm   syncengine.ConfirmFunc
	logger    *slog.Logger
}

// New собирает контроллер. confirm вызывается перед каждым необратимым
// действием (удаление, завершение задачи).
func New(
	sess *session.Session,
	transport Transport,
	notifier *syncengine.Notifier,
	confirm syncengine.ConfirmFunc,
	metrics *syncengine.Metrics,
	logger *slog.Logger,
) *Dashboard {
	logger = logger.With(slog.String("component", "dashboard"))
	engine := syncengine.NewEngine(transport, sess, metrics, logger)

	d := &Dashboard{
		session:   sess,
		transport: transport,
		engine:    engine,
		notifier:  notifier,
		confirm:   confirm,
		logger:    logger,
	}

	d.Projects = newResource[model.Project](resourceSpec[model.ProjectInput]{
		entity: rbac.EntityProject, name: "projects", singular: "project", title: "Project",
		path: PathProjects, scope: syncengine.ScopeProjects, validate: ValidateProject,
		deletePrompt: "Are you sure you want to delete this project? All tasks of the project will be deleted as well.",
	}, engine, notifier, confirm, logger)

	d.Tasks = newResource[model.Task](resourceSpec[model.TaskInput]{
		entity: rbac.EntityTask, name: "tasks", singular: "task", title: "Task",
		path: PathTasks, scope: syncengine.ScopeTasks, validate: ValidateTask,
		deletePrompt: "Are you sure you want to delete this task?",
	}, engine, notifier, confirm, logger)

	d.Users = newResource[model.User](resourceSpec[model.UserInput]{
		entity: rbac.EntityUser, name: "users", singular: "user", title: "User",
		path: PathUsers, scope: syncengine.ScopeUsers, validate: ValidateUser,
		deletePrompt: "Are you sure you want to delete this user? Projects and tasks owned by the user will lose their owner.",
	}, engine, notifier, confirm, logger)

	d.Roles = newResource[model.Role](resourceSpec[model.RoleInput]{
		entity: rbac.EntityRole, name: "roles", singular: "role", title: "Role",
		path: PathRoles, scope: syncengine.ScopeRoles, validate: ValidateRole,
		deletePrompt: "Are you sure you want to delete this role? Users with this role will be left without a role.",
	}, engine, notifier, confirm, logger)

	// Каскады удаления на сервере меняют зависимые коллекции
	d.Projects.dependsOn(d.Tasks.Collection)
	d.Users.dependsOn(d.Projects.Collection, d.Tasks.Collection)
	d.Roles.dependsOn(d.Users.Collection)

	sess.OnChange(d.onSessionChange)
	return d
}

// Session возвращает сессию контроллера.
func (d *Dashboard) Session() *session.Session {
	return d.session
}

// Notifier возвращает хранилище транзиентных сообщений.
func (d *Dashboard) Notifier() *syncengine.Notifier {
	return d.notifier
}

// Bootstrap восстанавливает сессию из хранилища. Решение о том, показывать
// ли вход или данные, принимается до любой отрисовки. При наличии
// credential запускаются четыре независимые загрузки коллекций.
func (d *Dashboard) Bootstrap(ctx context.Context) (bool, error) {
	ok, err := d.session.Restore(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		d.logger.Debug("Сохранённой сессии нет, требуется вход")
		return false, nil
	}
	d.RefreshAll(ctx)
	return true, nil
}

// RefreshAll параллельно загружает все четыре коллекции. Ошибка одной
// загрузки не влияет на остальные.
func (d *Dashboard) RefreshAll(ctx context.Context) {
	refreshers := []refresher{d.Projects, d.Tasks, d.Users, d.Roles}

	var wg sync.WaitGroup
	wg.Add(len(refreshers))
	for _, r := range refreshers {
		go func() {
			defer wg.Done()
			r.Refresh(ctx)
		}()
	}
	wg.Wait()
}

// Login обменивает ID-токен провайдера на токен приложения, сохраняет
// сессию и загружает данные.
func (d *Dashboard) Login(ctx context.Context, providerToken string) syncengine.Result {
	var res syncengine.Result
	resp, err := d.transport.ExchangeProviderToken(ctx, providerToken)
	if err != nil {
		res = syncengine.NetworkFailure(err)
	} else {
		res = syncengine.Classify(resp.StatusCode, resp.Body)
	}

	if !res.OK() {
		d.notifier.SetError(syncengine.ScopePage, "Login failed: "+orDefault(res.Message, res.Kind.String()))
		return res
	}

	var lr LoginResponse
	if err := json.Unmarshal(res.Payload, &lr); err != nil || lr.Token == "" {
		msg := "Login failed: invalid server response"
		d.notifier.SetError(syncengine.ScopePage, msg)
		return syncengine.Result{Kind: syncengine.KindRemoteFailure, Status: res.Status, Message: msg}
	}

	if err := d.session.Login(ctx, lr.Token, lr.User); err != nil {
		d.logger.Error("Не удалось сохранить сессию", slog.String("error", err.Error()))
		msg := "Login failed: could not store the session"
		d.notifier.SetError(syncengine.ScopePage, msg)
		return syncengine.Result{Kind: syncengine.KindRemoteFailure, Message: msg, Cause: err}
	}

	d.notifier.SetMessage(syncengine.ScopePage, orDefault(lr.Message, fmt.Sprintf("Logged in as %s.", lr.User.Email)))
	d.RefreshAll(ctx)
	return res
}

// Logout завершает сессию по желанию пользователя.
func (d *Dashboard) Logout(ctx context.Context) error {
	return d.session.Logout(ctx)
}

// onSessionChange очищает данные и формы при любом выходе.
// Истечение сессии отдельного сообщения не показывает: пользователь видит вид входа.
func (d *Dashboard) onSessionChange(c session.Change) {
	if c.Authenticated {
		return
	}
	d.Projects.Collection.Reset()
	d.Tasks.Collection.Reset()
	d.Users.Collection.Reset()
	d.Roles.Collection.Reset()
	d.Projects.Form.Reset()
	d.Tasks.Form.Reset()
	d.Users.Form.Reset()
	d.Roles.Form.Reset()
}

// MarkTaskComplete после подтверждения переводит задачу в статус completed.
// Отправляется только поле status.
func (d *Dashboard) MarkTaskComplete(ctx context.Context, id int64) (syncengine.Result, bool) {
	if d.confirm != nil && !d.confirm(ctx, "Mark this task as completed?") {
		return syncengine.Result{}, false
	}
	status := model.TaskStatusCompleted
	return d.Tasks.Update(ctx, id, model.TaskInput{Status: &status}), true
}

// Can сообщает, показывать ли текущему пользователю действие над ресурсом.
func (d *Dashboard) Can(entity rbac.Entity, action rbac.Action) bool {
	return rbac.Allowed(d.session.Role(), entity, action)
}

// Actions возвращает действия над ресурсом, доступные текущему пользователю.
func (d *Dashboard) Actions(entity rbac.Entity) []rbac.Action {
	return rbac.AllowedActions(d.session.Role(), entity)
}

// CanMarkComplete — действие «завершить» показывается для незавершённых задач.
func (d *Dashboard) CanMarkComplete(t model.Task) bool {
	return !t.Completed() && d.Can(rbac.EntityTask, rbac.ActionMarkComplete)
}

// TaskOwnerCandidates — пользователи, которым можно назначить задачу.
func (d *Dashboard) TaskOwnerCandidates() []model.User {
	return filterUsers(d.Users.Collection.Items(), rbac.RoleReadOnly)
}

// ProjectOwnerCandidates — пользователи, которые могут владеть проектом.
func (d *Dashboard) ProjectOwnerCandidates() []model.User {
	return filterUsers(d.Users.Collection.Items(), rbac.RoleAdmin)
}

func filterUsers(users []model.User, role string) []model.User {
	var out []model.User
	for _, u := range users {
		if u.HasRole(role) {
			out = append(out, u)
		}
	}
	return out
}
