// fakes_test.go — in-memory реализации репозиториев для unit-тестов сервисов.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/idp"
	"github.com/bigkaa/tasktracker/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// memRoles — роли в памяти.
type memRoles struct {
	nextID int64
	rows   map[int64]model.Role
}

func newMemRoles() *memRoles {
	return &memRoles{rows: make(map[int64]model.Role)}
}

func (m *memRoles) List(_ context.Context) ([]model.Role, error) {
	out := make([]model.Role, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRoles) Get(_ context.Context, id int64) (*model.Role, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (m *memRoles) GetByName(_ context.Context, name string) (*model.Role, error) {
	for _, r := range m.rows {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRoles) Create(ctx context.Context, name string) (int64, error) {
	if _, err := m.GetByName(ctx, name); err == nil {
		return 0, repository.ErrConflict
	}
	m.nextID++
	m.rows[m.nextID] = model.Role{ID: m.nextID, Name: name}
	return m.nextID, nil
}

func (m *memRoles) Update(_ context.Context, id int64, in model.RoleInput) error {
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Name != nil {
		r.Name = *in.Name
	}
	m.rows[id] = r
	return nil
}

func (m *memRoles) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memRoles) EnsureDefaults(ctx context.Context, names []string) error {
	for _, n := range names {
		if _, err := m.GetByName(ctx, n); errors.Is(err, repository.ErrNotFound) {
			if _, err := m.Create(ctx, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// memUsers — пользователи в памяти; роль разрешается через roles.
type memUsers struct {
	nextID int64
	rows   map[int64]model.Account
	roles  *memRoles
}

func newMemUsers(roles *memRoles) *memUsers {
	return &memUsers{rows: make(map[int64]model.Account), roles: roles}
}

func (m *memUsers) withRole(acc model.Account) *model.Account {
	acc.RoleName = nil
	if acc.RoleID != nil {
		if r, ok := m.roles.rows[*acc.RoleID]; ok {
			acc.RoleName = ptr(r.Name)
		}
	}
	return &acc
}

func (m *memUsers) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.rows))
	for _, a := range m.rows {
		out = append(out, m.withRole(a).User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Get(_ context.Context, id int64) (*model.Account, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.withRole(a), nil
}

func (m *memUsers) GetByGoogleID(_ context.Context, googleID string) (*model.Account, error) {
	for _, a := range m.rows {
		if a.GoogleID != nil && *a.GoogleID == googleID {
			return m.withRole(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	for _, a := range m.rows {
		if a.Email == email {
			return m.withRole(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Any(_ context.Context) (bool, error) {
	return len(m.rows) > 0, nil
}

func (m *memUsers) Create(ctx context.Context, in model.UserInput) (int64, error) {
	acc := &model.Account{User: model.User{Username: *in.Username, Email: *in.Email, RoleID: in.RoleID}}
	if err := m.CreateAccount(ctx, acc); err != nil {
		return 0, err
	}
	return acc.ID, nil
}

func (m *memUsers) CreateAccount(_ context.Context, acc *model.Account) error {
	for _, a := range m.rows {
		if a.Email == acc.Email || a.Username == acc.Username {
			return repository.ErrConflict
		}
	}
	if acc.RoleID != nil {
		if _, ok := m.roles.rows[*acc.RoleID]; !ok {
			return repository.ErrReference
		}
	}
	m.nextID++
	acc.ID = m.nextID
	m.rows[acc.ID] = *acc
	return nil
}

func (m *memUsers) LinkProvider(_ context.Context, id int64, googleID string, name, picture *string) error {
	a, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.GoogleID = &googleID
	if name != nil {
		a.Name = name
	}
	if picture != nil {
		a.Picture = picture
	}
	m.rows[id] = a
	return nil
}

func (m *memUsers) Update(_ context.Context, id int64, in model.UserInput) error {
	a, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Username != nil {
		a.Username = *in.Username
	}
	if in.Email != nil {
		a.Email = *in.Email
	}
	if in.RoleID != nil {
		a.RoleID = in.RoleID
	}
	m.rows[id] = a
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memUsers) RoleName(ctx context.Context, id int64) (string, error) {
	acc, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if acc.RoleName == nil {
		return "", nil
	}
	return *acc.RoleName, nil
}

// memProjects — проекты в памяти.
type memProjects struct {
	nextID int64
	rows   map[int64]model.Project
}

func newMemProjects() *memProjects {
	return &memProjects{rows: make(map[int64]model.Project)}
}

func (m *memProjects) List(_ context.Context) ([]model.Project, error) {
	out := make([]model.Project, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProjects) Get(_ context.Context, id int64) (*model.Project, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memProjects) Create(_ context.Context, in model.ProjectInput) (int64, error) {
	m.nextID++
	m.rows[m.nextID] = model.Project{
		ID: m.nextID, Name: *in.Name, Description: in.Description,
		StartDate: in.StartDate, EndDate: in.EndDate, OwnerID: in.OwnerID,
	}
	return m.nextID, nil
}

func (m *memProjects) Update(_ context.Context, id int64, in model.ProjectInput) error {
	p, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	m.rows[id] = p
	return nil
}

func (m *memProjects) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// memTasks — задачи в памяти.
type memTasks struct {
	nextID int64
	rows   map[int64]model.Task
}

func newMemTasks() *memTasks {
	return &memTasks{rows: make(map[int64]model.Task)}
}

func (m *memTasks) List(_ context.Context) ([]model.Task, error) {
	out := make([]model.Task, 0, len(m.rows))
	for _, t := range m.rows {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTasks) Get(_ context.Context, id int64) (*model.Task, error) {
	t, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m *memTasks) Create(_ context.Context, in model.TaskInput) (int64, error) {
	m.nextID++
	m.rows[m.nextID] = model.Task{
		ID: m.nextID, Description: *in.Description, DueDate: in.DueDate,
		Status: in.Status, OwnerID: in.OwnerID, ProjectID: in.ProjectID,
	}
	return m.nextID, nil
}

func (m *memTasks) Update(_ context.Context, id int64, in model.TaskInput) error {
	t, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = in.Status
	}
	m.rows[id] = t
	return nil
}

func (m *memTasks) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// memTx выполняет fn поверх тех же in-memory репозиториев.
type memTx struct {
	stores repository.Stores
	calls  int
}

func (m *memTx) InTx(_ context.Context, fn func(repository.Stores) error) error {
	m.calls++
	return fn(m.stores)
}

// stubVerifier возвращает профиль по заранее известному токену.
type stubVerifier struct {
	profiles map[string]idp.Profile
}

func (v *stubVerifier) Verify(_ context.Context, raw string) (*idp.Profile, error) {
	p, ok := v.profiles[raw]
	if !ok {
		return nil, idp.ErrInvalidToken
	}
	return &p, nil
}

// stubIssuer выпускает токен вида "token-<email>".
type stubIssuer struct {
	issued []model.Identity
}

func (i *stubIssuer) Issue(identity model.Identity) (string, error) {
	i.issued = append(i.issued, identity)
	return "token-" + identity.Email, nil
}
