package cli

import (
	"fmt"
	"strconv"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/spf13/pflag"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// bindProject регистрирует флаги проекта. В тело запроса попадают только
// явно заданные флаги: при создании незаданные обязательные поля ловит
// валидация формы, при обновлении получается частичный патч.
func bindProject(fs *pflag.FlagSet) func() (model.ProjectInput, error) {
	name := fs.String("name", "", "название проекта")
	desc := fs.String("description", "", "описание")
	start := fs.String("start-date", "", "дата начала (YYYY-MM-DD)")
	end := fs.String("end-date", "", "дата окончания (YYYY-MM-DD)")
	owner := fs.Int64("owner-id", 0, "ID владельца (пользователь с ролью Admin)")

	return func() (model.ProjectInput, error) {
		var in model.ProjectInput
		var err error
		in.Name = changedString(fs, "name", *name)
		in.Description = changedString(fs, "description", *desc)
		in.OwnerID = changedInt(fs, "owner-id", *owner)
		if in.StartDate, err = changedDate(fs, "start-date", "start_date", *start); err != nil {
			return in, err
		}
		if in.EndDate, err = changedDate(fs, "end-date", "end_date", *end); err != nil {
			return in, err
		}
		return in, nil
	}
}

func bindTask(fs *pflag.FlagSet) func() (model.TaskInput, error) {
	desc := fs.String("description", "", "описание задачи")
	due := fs.String("due-date", "", "срок (YYYY-MM-DD)")
	status := fs.String("status", "", "статус: not started, new, in-progress, blocked, completed")
	owner := fs.Int64("owner-id", 0, "ID исполнителя (пользователь с ролью Read Only)")
	project := fs.Int64("project-id", 0, "ID проекта")

	return func() (model.TaskInput, error) {
		var in model.TaskInput
		var err error
		in.Description = changedString(fs, "description", *desc)
		in.OwnerID = changedInt(fs, "owner-id", *owner)
		in.ProjectID = changedInt(fs, "project-id", *project)
		if fs.Changed("status") {
			s := model.TaskStatus(*status)
			in.Status = &s
		}
		if in.DueDate, err = changedDate(fs, "due-date", "due_date", *due); err != nil {
			return in, err
		}
		return in, nil
	}
}

func bindUser(fs *pflag.FlagSet) func() (model.UserInput, error) {
	username := fs.String("username", "", "имя пользователя")
	email := fs.String("email", "", "email")
	role := fs.Int64("role-id", 0, "ID роли")

	return func() (model.UserInput, error) {
		return model.UserInput{
			Username: changedString(fs, "username", *username),
			Email:    changedString(fs, "email", *email),
			RoleID:   changedInt(fs, "role-id", *role),
		}, nil
	}
}

func bindRole(fs *pflag.FlagSet) func() (model.RoleInput, error) {
	name := fs.String("name", "", "название роли")

	return func() (model.RoleInput, error) {
		return model.RoleInput{Name: changedString(fs, "name", *name)}, nil
	}
}

func changedString(fs *pflag.FlagSet, flag, v string) *string {
	if !fs.Changed(flag) {
		return nil
	}
	return &v
}

func changedInt(fs *pflag.FlagSet, flag string, v int64) *int64 {
	if !fs.Changed(flag) {
		return nil
	}
	return &v
}

func changedDate(fs *pflag.FlagSet, flag, field, v string) (*openapi_types.Date, error) {
	if !fs.Changed(flag) {
		return nil, nil
	}
	t, err := time.Parse(openapi_types.DateFormat, v)
	if err != nil {
		return nil, fmt.Errorf("%w: Invalid %s format. Please use YYYY-MM-DD.", ErrUsage, field)
	}
	return &openapi_types.Date{Time: t}, nil
}

// parseID разбирает единственный позиционный аргумент — ID элемента.
func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: ожидается один аргумент <id>", ErrUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: некорректный ID %q", ErrUsage, args[0])
	}
	return id, nil
}
