package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bigkaa/tasktracker/internal/dashboard"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
)

// resourceCommand строит группу list/create/update/delete для ресурса.
// bind регистрирует флаги ресурса и возвращает сборщик тела запроса.
func resourceCommand[T any, In any](
	a *App,
	name, summary string,
	entity rbac.Entity,
	res *dashboard.Resource[T, In],
	bind func(fs *pflag.FlagSet) func() (In, error),
	show func([]T),
) *Command {
	scope := res.Collection.Scope()

	list := &Command{
		Name:    "list",
		Summary: "Список",
		Run: func(ctx context.Context, _ []string) error {
			if err := a.restore(ctx); err != nil {
				return err
			}
			r := res.Refresh(ctx)
			if w := res.Collection.Warning(); w != "" {
				a.out.Section(summary, w)
			}
			if r.OK() {
				show(res.Collection.Items())
			}
			return a.report(r, scope)
		},
	}

	var createInput func() (In, error)
	create := &Command{
		Name:    "create",
		Summary: "Создать",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
			createInput = bind(fs)
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			in, err := createInput()
			if err != nil {
				return err
			}
			if err := a.restore(ctx); err != nil {
				return err
			}
			if err := a.gate(entity, rbac.ActionCreate); err != nil {
				return err
			}
			return a.report(res.Create(ctx, in), scope)
		},
	}

	var updateInput func() (In, error)
	update := &Command{
		Name:    "update",
		Summary: "Изменить (передаются только заданные флаги)",
		Usage:   fmt.Sprintf("tasktracker %s update <id> [flags]", name),
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
			updateInput = bind(fs)
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args)
			if err != nil {
				return err
			}
			in, err := updateInput()
			if err != nil {
				return err
			}
			if err := a.restore(ctx); err != nil {
				return err
			}
			if err := a.gate(entity, rbac.ActionEdit); err != nil {
				return err
			}
			return a.report(res.Update(ctx, id, in), scope)
		},
	}

	var yes *bool
	del := &Command{
		Name:    "delete",
		Summary: "Удалить",
		Usage:   fmt.Sprintf("tasktracker %s delete <id> [--yes]", name),
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
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
			if err := a.gate(entity, rbac.ActionDelete); err != nil {
				return err
			}
			a.prompter.SetAssumeYes(*yes)

			r, confirmed := res.Delete(ctx, id)
			if !confirmed {
				fmt.Fprintln(a.stderr, "Отменено.")
				return nil
			}
			return a.report(r, scope)
		},
	}

	return &Command{
		Name:        name,
		Summary:     summary,
		Subcommands: []*Command{list, create, update, del},
	}
}
