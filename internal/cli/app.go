package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bigkaa/tasktracker/internal/dashboard"
	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
	"github.com/bigkaa/tasktracker/internal/syncengine"
)

var (
	// ErrReported — операция не выполнена, причина уже выведена пользователю.
	ErrReported = errors.New("операция не выполнена")
	// ErrNotLoggedIn — нет сохранённой сессии.
	ErrNotLoggedIn = errors.New("not logged in, run 'tasktracker login' first")
)

// App — команды клиента поверх контроллера Dashboard.
type App struct {
	dash     *dashboard.Dashboard
	prompter *Prompter
	out      *Renderer
	stderr   io.Writer
	logger   *slog.Logger
}

// NewApp создаёт App.
func NewApp(dash *dashboard.Dashboard, prompter *Prompter, out *Renderer, stderr io.Writer, logger *slog.Logger) *App {
	return &App{
		dash:     dash,
		prompter: prompter,
		out:      out,
		stderr:   stderr,
		logger:   logger.With(slog.String("component", "cli")),
	}
}

// Run выполняет командную строку args (без имени программы).
func (a *App) Run(ctx context.Context, args []string) error {
	return a.Root().Execute(ctx, args, a.stderr)
}

// Root возвращает корень дерева команд.
func (a *App) Root() *Command {
	d := a.dash
	return &Command{
		Name:    "tasktracker",
		Summary: "Task Tracker: проекты, задачи, пользователи и роли",
		Subcommands: []*Command{
			a.loginCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.dashboardCommand(),
			resourceCommand(a, "projects", "Проекты", rbac.EntityProject, d.Projects, bindProject, a.out.Projects),
			a.withComplete(resourceCommand(a, "tasks", "Задачи", rbac.EntityTask, d.Tasks, bindTask, func(items []model.Task) {
				a.out.Tasks(items, d.CanMarkComplete)
			})),
			resourceCommand(a, "users", "Пользователи", rbac.EntityUser, d.Users, bindUser, a.out.Users),
			resourceCommand(a, "roles", "Роли", rbac.EntityRole, d.Roles, bindRole, a.out.Roles),
		},
	}
}

func (a *App) loginCommand() *Command {
	var token, tokenFile *string
	return &Command{
		Name:    "login",
		Summary: "Вход по ID-токену Google",
		Usage:   "tasktracker login [--id-token TOKEN | --id-token-file PATH|-]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			token = fs.String("id-token", "", "ID-токен Google")
			tokenFile = fs.String("id-token-file", "", "файл с ID-токеном ('-' — stdin)")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			providerToken := *token
			if providerToken == "" {
				var err error
				if providerToken, err = a.prompter.ReadSecret("Google ID token", *tokenFile); err != nil {
					return err
				}
			}

			res := a.dash.Login(ctx, providerToken)
			a.out.Banner(a.dash.Notifier().Get(syncengine.ScopePage))
			if !res.OK() {
				return a.failed(res)
			}
			if id, ok := a.dash.Session().Identity(); ok {
				a.out.Identity(id)
			}
			return nil
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Выход и удаление сохранённой сессии",
		Run: func(ctx context.Context, _ []string) error {
			if _, err := a.dash.Session().Restore(ctx); err != nil {
				return err
			}
			if err := a.dash.Logout(ctx); err != nil {
				return fmt.Errorf("выход: %w", err)
			}
			a.out.Banner(syncengine.Banner{Message: "Logged out."})
			return nil
		},
	}
}

func (a *App) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Текущий пользователь",
		Run: func(ctx context.Context, _ []string) error {
			if err := a.restore(ctx); err != nil {
				return err
			}
			id, _ := a.dash.Session().Identity()
			a.out.Identity(id)
			return nil
		},
	}
}

func (a *App) dashboardCommand() *Command {
	return &Command{
		Name:    "dashboard",
		Summary: "Все коллекции и доступные действия",
		Run: func(ctx context.Context, _ []string) error {
			ok, err := a.dash.Bootstrap(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotLoggedIn
			}

			d := a.dash
			// сессия истекла во время загрузки коллекций
			if !d.Session().Authenticated() {
				return ErrNotLoggedIn
			}
			id, authenticated := d.Session().Identity()
			if authenticated {
				a.out.Identity(id)
			}

			a.out.Section("Projects", d.Projects.Collection.Warning())
			a.out.Actions(rbac.EntityProject, d.Actions(rbac.EntityProject))
			a.out.Projects(d.Projects.Collection.Items())

			a.out.Section("Tasks", d.Tasks.Collection.Warning())
			a.out.Actions(rbac.EntityTask, d.Actions(rbac.EntityTask))
			a.out.Tasks(d.Tasks.Collection.Items(), d.CanMarkComplete)

			a.out.Section("Users", d.Users.Collection.Warning())
			a.out.Actions(rbac.EntityUser, d.Actions(rbac.EntityUser))
			a.out.Users(d.Users.Collection.Items())

			a.out.Section("Roles", d.Roles.Collection.Warning())
			a.out.Actions(rbac.EntityRole, d.Actions(rbac.EntityRole))
			a.out.Roles(d.Roles.Collection.Items())

			if a.out.Banners(d.Notifier(), syncengine.ScopePage) {
				return ErrReported
			}
			return nil
		},
	}
}

func (a *App) withComplete(tasks *Command) *Command {
	var yes *bool
	tasks.Subcommands = append(tasks.Subcommands, &Command{
		Name:    "complete",
		Summary: "Отметить задачу завершённой",
		Usage:   "tasktracker tasks complete <id> [--yes]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("complete", pflag.ContinueOnError)
			yes = fs.BoolP("yes", "y", false, "не запрашивать подтверждение")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			if err := a.restore(ctx); err != nil {
				return err
			}
			if err := a.gate(rbac.EntityTask, rbac.ActionMarkComplete); err != nil {
				return err
			}
			a.prompter.SetAssumeYes(*yes)

			res, confirmed := a.dash.MarkTaskComplete(ctx, id)
			if !confirmed {
				fmt.Fprintln(a.stderr, "Отменено.")
				return nil
			}
			return a.report(res, syncengine.ScopeTasks)
		},
	})
	return tasks
}

// restore поднимает сохранённую сессию без загрузки коллекций.
func (a *App) restore(ctx context.Context) error {
	ok, err := a.dash.Session().Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLoggedIn
	}
	return nil
}

// gate скрывает действия, недоступные роли текущего пользователя.
func (a *App) gate(entity rbac.Entity, action rbac.Action) error {
	if a.dash.Can(entity, action) {
		return nil
	}
	return fmt.Errorf("%w: action %q on %s is not available for role %q",
		ErrUsage, action, entity, a.dash.Session().Role())
}

// report печатает сообщения области ресурса и страницы.
func (a *App) report(res syncengine.Result, scope syncengine.Scope) error {
	failed := a.out.Banners(a.dash.Notifier(), scope, syncengine.ScopePage)
	if !res.OK() || failed {
		return a.failed(res)
	}
	return nil
}

func (a *App) failed(res syncengine.Result) error {
	a.logger.Debug("Команда завершилась ошибкой",
		slog.String("kind", res.Kind.String()),
		slog.Int("status", res.Status),
	)
	if res.Kind == syncengine.KindSessionExpired {
		return ErrNotLoggedIn
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	return ErrReported
}
