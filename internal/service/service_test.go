package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
	"github.com/bigkaa/tasktracker/internal/idp"
	"github.com/bigkaa/tasktracker/internal/repository"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func day(s string) *openapi_types.Date {
	t, _ := time.Parse(time.DateOnly, s)
	return &openapi_types.Date{Time: t}
}

// assertKind проверяет sentinel-ошибку и сообщение для клиента.
func assertKind(t *testing.T, err, kind error, message string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("ожидалась ошибка %v, получено %v", kind, err)
	}
	if message != "" && Message(err, "") != message {
		t.Errorf("сообщение: ожидалось %q, получено %q", message, Message(err, ""))
	}
}

func TestMapRepoError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    error
		message string
	}{
		{"not found", repository.ErrNotFound, ErrNotFound, "Project not found."},
		{"conflict", repository.ErrConflict, ErrConflict, "Project already exists."},
		{"reference", repository.ErrReference, ErrValidation, "Project references a record that does not exist."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertKind(t, mapRepoError(tt.err, "Project"), tt.kind, tt.message)
		})
	}

	if mapRepoError(nil, "Project") != nil {
		t.Error("nil должен остаться nil")
	}
	other := errors.New("сбой")
	if !errors.Is(mapRepoError(other, "Project"), other) {
		t.Error("прочие ошибки должны передаваться без изменений")
	}
}

func TestMessage_Fallback(t *testing.T) {
	if got := Message(errors.New("внутренняя"), "Internal server error."); got != "Internal server error." {
		t.Errorf("ожидался fallback, получено %q", got)
	}
	if got := Message(InvalidDate("due_date"), ""); got != "Invalid due_date format. Please use YYYY-MM-DD." {
		t.Errorf("неожиданное сообщение: %q", got)
	}
}

func TestProjectService(t *testing.T) {
	ctx := context.Background()
	svc := NewProjectService(newMemProjects(), testLogger())

	_, err := svc.Create(ctx, model.ProjectInput{Description: ptr("без имени")})
	assertKind(t, err, ErrValidation, "Missing required field: 'name'")

	_, err = svc.Create(ctx, model.ProjectInput{
		Name:      ptr("Alpha"),
		StartDate: day("2026-05-10"),
		EndDate:   day("2026-05-01"),
	})
	assertKind(t, err, ErrValidation, "end_date must not be before start_date.")

	id, err := svc.Create(ctx, model.ProjectInput{Name: ptr("Alpha"), StartDate: day("2026-05-01")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Update(ctx, id, model.ProjectInput{Name: ptr("  ")})
	assertKind(t, err, ErrValidation, "Field 'name' must not be empty.")

	if err := svc.Update(ctx, id, model.ProjectInput{Name: ptr("Beta")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p, err := svc.Get(ctx, id)
	if err != nil || p.Name != "Beta" {
		t.Fatalf("Get: %+v, %v", p, err)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = svc.Get(ctx, id)
	assertKind(t, err, ErrNotFound, "Project not found.")
	assertKind(t, svc.Delete(ctx, id), ErrNotFound, "Project not found.")
}

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewTaskService(newMemTasks(), testLogger())

	_, err := svc.Create(ctx, model.TaskInput{Status: ptr(model.TaskStatusNew)})
	assertKind(t, err, ErrValidation, "Missing required field: 'description'")

	_, err = svc.Create(ctx, model.TaskInput{Description: ptr("x"), Status: ptr(model.TaskStatus("done"))})
	assertKind(t, err, ErrValidation, "")

	if _, err := svc.Create(ctx, model.TaskInput{Description: ptr("Написать тесты")}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestTaskService_UpdateByRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		in      model.TaskInput
		wantErr error
	}{
		{"Read Only меняет статус", rbac.RoleReadOnly, model.TaskInput{Status: ptr(model.TaskStatusCompleted)}, nil},
		{"Read Only меняет описание", rbac.RoleReadOnly, model.TaskInput{Description: ptr("другое")}, ErrForbidden},
		{"Read Only меняет статус и срок", rbac.RoleReadOnly,
			model.TaskInput{Status: ptr(model.TaskStatusCompleted), DueDate: day("2026-06-01")}, ErrForbidden},
		{"Read Only с пустым телом", rbac.RoleReadOnly, model.TaskInput{}, ErrForbidden},
		{"Task Creator меняет описание", rbac.RoleTaskCreator, model.TaskInput{Description: ptr("другое")}, nil},
		{"Admin меняет всё", rbac.RoleAdmin,
			model.TaskInput{Description: ptr("другое"), Status: ptr(model.TaskStatusBlocked)}, nil},
		{"недопустимый статус", rbac.RoleAdmin, model.TaskInput{Status: ptr(model.TaskStatus("archived"))}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewTaskService(newMemTasks(), testLogger())
			id, err := svc.Create(ctx, model.TaskInput{Description: ptr("Задача")})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			err = svc.Update(ctx, tt.role, id, tt.in)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Update: %v", err)
				}
				return
			}
			assertKind(t, err, tt.wantErr, "")
			if tt.wantErr == ErrForbidden && Message(err, "") != ReadOnlyStatusMessage {
				t.Errorf("неожиданное сообщение: %q", Message(err, ""))
			}
		})
	}
}

func TestTaskService_UpdateMissing(t *testing.T) {
	svc := NewTaskService(newMemTasks(), testLogger())
	err := svc.Update(context.Background(), rbac.RoleAdmin, 42, model.TaskInput{Status: ptr(model.TaskStatusNew)})
	assertKind(t, err, ErrNotFound, "Task not found.")
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	roles := newMemRoles()
	if err := roles.EnsureDefaults(ctx, rbac.DefaultRoles); err != nil {
		t.Fatal(err)
	}
	svc := NewUserService(newMemUsers(roles), testLogger())

	tests := []struct {
		name    string
		in      model.UserInput
		message string
	}{
		{"без username", model.UserInput{Email: ptr("a@example.com")}, "Missing required field: 'username'"},
		{"без email", model.UserInput{Username: ptr("alice")}, "Missing required field: 'email'"},
		{"email без @", model.UserInput{Username: ptr("alice"), Email: ptr("alice")}, "Invalid email address."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assertKind(t, err, ErrValidation, tt.message)
		})
	}

	id, err := svc.Create(ctx, model.UserInput{Username: ptr("alice"), Email: ptr("alice@example.com"), RoleID: ptr(int64(2))})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	u, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !u.HasRole(rbac.RoleTaskCreator) {
		t.Errorf("ожидалась роль Task Creator, получено %v", u.RoleName)
	}

	_, err = svc.Create(ctx, model.UserInput{Username: ptr("alice"), Email: ptr("alice@example.com")})
	assertKind(t, err, ErrConflict, "User already exists.")

	_, err = svc.Create(ctx, model.UserInput{Username: ptr("bob"), Email: ptr("bob@example.com"), RoleID: ptr(int64(99))})
	assertKind(t, err, ErrValidation, "User references a record that does not exist.")
}

func TestRoleService(t *testing.T) {
	ctx := context.Background()
	svc := NewRoleService(newMemRoles(), testLogger())

	_, err := svc.Create(ctx, model.RoleInput{})
	assertKind(t, err, ErrValidation, "Missing required field: 'name'")

	id, err := svc.Create(ctx, model.RoleInput{Name: ptr(" Auditor ")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r, err := svc.Get(ctx, id)
	if err != nil || r.Name != "Auditor" {
		t.Fatalf("имя роли должно быть без пробелов: %+v, %v", r, err)
	}

	_, err = svc.Create(ctx, model.RoleInput{Name: ptr("Auditor")})
	assertKind(t, err, ErrConflict, "Role already exists.")

	assertKind(t, svc.Update(ctx, id, model.RoleInput{Name: ptr("")}), ErrValidation, "Field 'name' must not be empty.")
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

// authFixture — AuthService поверх in-memory репозиториев.
type authFixture struct {
	svc    *AuthService
	users  *memUsers
	roles  *memRoles
	issuer *stubIssuer
}

func newAuthFixture(profiles map[string]idp.Profile) *authFixture {
	roles := newMemRoles()
	users := newMemUsers(roles)
	issuer := &stubIssuer{}
	tx := &memTx{stores: repository.Stores{Users: users, Roles: roles}}
	return &authFixture{
		svc:    NewAuthService(&stubVerifier{profiles: profiles}, issuer, tx, users, testLogger()),
		users:  users,
		roles:  roles,
		issuer: issuer,
	}
}

func TestAuthService_Login_FirstUserIsAdmin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(map[string]idp.Profile{
		"first":  {Subject: "g-1", Email: "first@example.com", Name: "First", Picture: "https://pic/1"},
		"second": {Subject: "g-2", Email: "second@example.com", Name: "Second"},
	})

	first, err := f.svc.Login(ctx, "first")
	if err != nil {
		t.Fatalf("Login first: %v", err)
	}
	if !first.Created || first.Identity.RoleName != rbac.RoleAdmin {
		t.Errorf("первый пользователь должен стать Admin: %+v", first)
	}
	if first.Token != "token-first@example.com" {
		t.Errorf("неожиданный токен %q", first.Token)
	}
	if first.Identity.GoogleID != "g-1" || first.Identity.Name != "First" || first.Identity.Picture == nil {
		t.Errorf("профиль провайдера не сохранён: %+v", first.Identity)
	}
	if len(f.roles.rows) != len(rbac.DefaultRoles) {
		t.Errorf("ожидалось %d ролей, создано %d", len(rbac.DefaultRoles), len(f.roles.rows))
	}

	second, err := f.svc.Login(ctx, "second")
	if err != nil {
		t.Fatalf("Login second: %v", err)
	}
	if second.Identity.RoleName != rbac.RoleReadOnly {
		t.Errorf("второй пользователь должен стать Read Only, получено %q", second.Identity.RoleName)
	}
	acc, err := f.users.Get(ctx, second.Identity.ID)
	if err != nil || acc.Username != "second" {
		t.Errorf("username должен браться из email: %+v, %v", acc, err)
	}

	again, err := f.svc.Login(ctx, "first")
	if err != nil {
		t.Fatalf("повторный Login: %v", err)
	}
	if again.Created || again.Identity.ID != first.Identity.ID {
		t.Errorf("повторный вход не должен создавать пользователя: %+v", again)
	}
}

func TestAuthService_Login_LinksByEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(map[string]idp.Profile{
		"tok": {Subject: "g-77", Email: "carol@example.com", Name: "Carol"},
	})
	_ = f.roles.EnsureDefaults(ctx, rbac.DefaultRoles)
	id, err := f.users.Create(ctx, model.UserInput{
		Username: ptr("carol"), Email: ptr("carol@example.com"), RoleID: ptr(int64(2)),
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Login(ctx, "tok")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Created || res.Identity.ID != id {
		t.Fatalf("ожидалась привязка к существующему пользователю %d: %+v", id, res)
	}
	if res.Identity.GoogleID != "g-77" || res.Identity.Name != "Carol" {
		t.Errorf("данные провайдера не привязаны: %+v", res.Identity)
	}
	if res.Identity.RoleName != rbac.RoleTaskCreator {
		t.Errorf("роль должна сохраниться, получено %q", res.Identity.RoleName)
	}
}

func TestAuthService_Login_Rejected(t *testing.T) {
	f := newAuthFixture(nil)

	_, err := f.svc.Login(context.Background(), "  ")
	assertKind(t, err, ErrValidation, "Google ID token is missing.")

	_, err = f.svc.Login(context.Background(), "forged")
	assertKind(t, err, ErrUnauthenticated, "Invalid Google ID token.")

	if len(f.issuer.issued) != 0 {
		t.Error("токен не должен выпускаться при отказе")
	}
}

func TestAuthService_MeAndRoleOf(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(map[string]idp.Profile{
		"tok": {Subject: "g-1", Email: "dave@example.com", Name: "Dave"},
	})
	res, err := f.svc.Login(ctx, "tok")
	if err != nil {
		t.Fatal(err)
	}

	me, err := f.svc.Me(ctx, res.Identity.ID, rbac.RoleAdmin)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != "dave@example.com" || me.RoleName != rbac.RoleAdmin {
		t.Errorf("неожиданный профиль: %+v", me)
	}

	_, err = f.svc.Me(ctx, 999, rbac.RoleAdmin)
	assertKind(t, err, ErrUnauthenticated, "User not found or token invalid.")

	role, err := f.svc.RoleOf(ctx, res.Identity.ID)
	if err != nil || role != rbac.RoleAdmin {
		t.Fatalf("RoleOf: %q, %v", role, err)
	}

	adminRole, _ := f.roles.GetByName(ctx, rbac.RoleAdmin)
	if err := f.roles.Delete(ctx, adminRole.ID); err != nil {
		t.Fatal(err)
	}
	role, err = f.svc.RoleOf(ctx, res.Identity.ID)
	if err != nil || role != NoRoleName {
		t.Errorf("без роли ожидалось %q, получено %q (%v)", NoRoleName, role, err)
	}
}

// countingResolver считает обращения к источнику ролей.
type countingResolver struct {
	roles map[int64]string
	calls int
}

func (r *countingResolver) RoleOf(_ context.Context, userID int64) (string, error) {
	r.calls++
	role, ok := r.roles[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return role, nil
}

func TestRoleCache(t *testing.T) {
	ctx := context.Background()
	src := &countingResolver{roles: map[int64]string{1: rbac.RoleAdmin}}
	cache := NewRoleCache(src, 16, time.Minute)

	for range 3 {
		role, err := cache.RoleOf(ctx, 1)
		if err != nil || role != rbac.RoleAdmin {
			t.Fatalf("RoleOf: %q, %v", role, err)
		}
	}
	if src.calls != 1 {
		t.Errorf("ожидалось 1 обращение к источнику, было %d", src.calls)
	}

	src.roles[1] = rbac.RoleReadOnly
	cache.Invalidate(1)
	if role, _ := cache.RoleOf(ctx, 1); role != rbac.RoleReadOnly {
		t.Errorf("после Invalidate ожидалась новая роль, получено %q", role)
	}

	if _, err := cache.RoleOf(ctx, 2); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("ошибка источника должна передаваться: %v", err)
	}
	if _, err := cache.RoleOf(ctx, 2); err == nil {
		t.Error("ошибки не должны кэшироваться")
	}
	if src.calls != 4 {
		t.Errorf("ожидалось 4 обращения к источнику, было %d", src.calls)
	}
}

func TestRoleCache_Disabled(t *testing.T) {
	src := &countingResolver{roles: map[int64]string{1: rbac.RoleAdmin}}
	cache := NewRoleCache(src, 16, 0)
	for range 2 {
		_, _ = cache.RoleOf(context.Background(), 1)
	}
	cache.Purge()
	if src.calls != 2 {
		t.Errorf("без TTL каждый вызов идёт в источник, было %d обращений", src.calls)
	}
}
