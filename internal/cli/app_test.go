package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/tasktracker/internal/apiclient"
	"github.com/bigkaa/tasktracker/internal/credstore"
	"github.com/bigkaa/tasktracker/internal/dashboard"
	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/session"
	"github.com/bigkaa/tasktracker/internal/syncengine"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubReply struct {
	status int
	body   string
}

// stubAPI — REST API с фиксированными ответами по "METHOD path".
type stubAPI struct {
	mu      sync.Mutex
	replies map[string]stubReply
	calls   []string
	bodies  map[string]string
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.calls = append(s.calls, key)
	s.bodies[key] = string(body)
	rep, ok := s.replies[key]
	s.mu.Unlock()

	if !ok {
		rep = stubReply{404, `{"error":"Not found"}`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = w.Write([]byte(rep.body))
}

func (s *stubAPI) called(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == key {
			return true
		}
	}
	return false
}

type appFixture struct {
	api    *stubAPI
	store  *credstore.MemoryStore
	app    *App
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// setupApp собирает App поверх stub API. role — роль сохранённой сессии
// ("" — сессии нет).
func setupApp(t *testing.T, role string) *appFixture {
	t.Helper()

	api := &stubAPI{
		replies: map[string]stubReply{
			"GET /projects/": {200, `[{"id":1,"name":"Alpha","description":"First","start_date":"2024-01-01","end_date":"2024-02-01","owner_id":1}]`},
			"GET /tasks/":    {200, `[{"id":3,"description":"Write docs","due_date":"2024-01-15","status":"new","owner_id":2,"project_id":1}]`},
			"GET /users/":    {200, `[{"id":1,"username":"alice","email":"alice@example.com","role_id":1,"roleName":"Admin"}]`},
			"GET /roles/":    {200, `[{"id":1,"name":"Admin"}]`},
		},
		bodies: make(map[string]string),
	}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	store := credstore.NewMemoryStore()
	if role != "" {
		err := store.Save(context.Background(), "app-token", model.Identity{
			ID: 1, Email: "alice@example.com", Name: "Alice", RoleName: role,
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	logger := testLogger()
	sess := session.New(store, logger)
	client := apiclient.New(server.URL, store, 5*time.Second, logger)
	notifier := syncengine.NewNotifier(time.Minute)
	t.Cleanup(notifier.Close)

	var stdout, stderr bytes.Buffer
	prompter := &Prompter{
		in:       strings.NewReader(""),
		out:      &stderr,
		terminal: func() bool { return false },
	}
	dash := dashboard.New(sess, client, notifier, prompter.ConfirmFunc(), nil, logger)

	return &appFixture{
		api:    api,
		store:  store,
		app:    NewApp(dash, prompter, NewRenderer(&stdout, true), &stderr, logger),
		stdout: &stdout,
		stderr: &stderr,
	}
}

func (f *appFixture) run(t *testing.T, args ...string) error {
	t.Helper()
	return f.app.Run(context.Background(), args)
}

func TestApp_NotLoggedIn(t *testing.T) {
	f := setupApp(t, "")

	for _, args := range [][]string{{"whoami"}, {"dashboard"}, {"projects", "list"}} {
		if err := f.run(t, args...); !errors.Is(err, ErrNotLoggedIn) {
			t.Errorf("%v: ожидалась ErrNotLoggedIn, получено %v", args, err)
		}
	}
	if len(f.api.calls) != 0 {
		t.Errorf("без сессии запросов быть не должно: %v", f.api.calls)
	}
}

func TestApp_Login(t *testing.T) {
	f := setupApp(t, "")
	f.api.replies["POST /auth/provider"] = stubReply{200,
		`{"message":"Authentication successful.","token":"app-jwt","user":{"id":1,"email":"alice@example.com","name":"Alice","roleName":"Admin"}}`}

	if err := f.run(t, "login", "--id-token", "google-id-token"); err != nil {
		t.Fatalf("login: %v", err)
	}

	cred, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cred.Token != "app-jwt" {
		t.Errorf("token = %q, ожидалось app-jwt", cred.Token)
	}
	if !strings.Contains(f.api.bodies["POST /auth/provider"], "google-id-token") {
		t.Errorf("тело обмена: %s", f.api.bodies["POST /auth/provider"])
	}
	out := f.stdout.String()
	if !strings.Contains(out, "Authentication successful.") || !strings.Contains(out, "alice@example.com") {
		t.Errorf("вывод login:\n%s", out)
	}
}

func TestApp_LoginRejected(t *testing.T) {
	f := setupApp(t, "")
	f.api.replies["POST /auth/provider"] = stubReply{401, `{"error":"Invalid Google token."}`}

	err := f.run(t, "login", "--id-token", "bad")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("ожидалась ErrReported, получено %v", err)
	}
	if !strings.Contains(f.stdout.String(), "Login failed: Invalid Google token.") {
		t.Errorf("вывод:\n%s", f.stdout.String())
	}
}

func TestApp_Dashboard(t *testing.T) {
	f := setupApp(t, "Read Only")

	if err := f.run(t, "dashboard"); err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	out := f.stdout.String()
	for _, want := range []string{"Alpha", "Write docs", "alice", "Actions (project): view only", "Actions (task): mark-complete", "can complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("вывод dashboard не содержит %q:\n%s", want, out)
		}
	}
}

func TestApp_CreateProject(t *testing.T) {
	f := setupApp(t, "Admin")
	f.api.replies["POST /projects/"] = stubReply{201, `{"message":"Project created successfully","project_id":2}`}

	err := f.run(t, "projects", "create",
		"--name", "Beta", "--description", "Second",
		"--start-date", "2024-01-01", "--end-date", "2024-06-30", "--owner-id", "1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body := f.api.bodies["POST /projects/"]
	if !strings.Contains(body, `"start_date":"2024-01-01"`) || !strings.Contains(body, `"name":"Beta"`) {
		t.Errorf("тело запроса: %s", body)
	}
	if !strings.Contains(f.stdout.String(), "Project created successfully") {
		t.Errorf("вывод:\n%s", f.stdout.String())
	}
}

func TestApp_CreateValidation(t *testing.T) {
	f := setupApp(t, "Admin")

	err := f.run(t, "projects", "create", "--name", "Beta")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("ожидалась ErrReported, получено %v", err)
	}
	if f.api.called("POST /projects/") {
		t.Error("невалидная форма не должна отправляться")
	}
	if !strings.Contains(f.stdout.String(), "Please fill in all required fields") {
		t.Errorf("вывод:\n%s", f.stdout.String())
	}
}

func TestApp_GateByRole(t *testing.T) {
	f := setupApp(t, "Read Only")

	err := f.run(t, "projects", "delete", "1", "--yes")
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("ожидалась ErrUsage, получено %v", err)
	}
	if f.api.called("DELETE /projects/1") {
		t.Error("скрытое действие не должно отправляться")
	}
}

func TestApp_DeleteRequiresConfirmation(t *testing.T) {
	f := setupApp(t, "Admin")
	f.api.replies["DELETE /projects/1"] = stubReply{200, `{"message":"Project deleted successfully"}`}

	if err := f.run(t, "projects", "delete", "1"); err != nil {
		t.Fatalf("delete без --yes: %v", err)
	}
	if f.api.called("DELETE /projects/1") {
		t.Fatal("без подтверждения запрос не должен отправляться")
	}

	if err := f.run(t, "projects", "delete", "1", "--yes"); err != nil {
		t.Fatalf("delete --yes: %v", err)
	}
	if !f.api.called("DELETE /projects/1") {
		t.Error("ожидался DELETE /projects/1")
	}
	// удаление проекта перезагружает задачи
	if !f.api.called("GET /tasks/") {
		t.Error("ожидалась перезагрузка задач")
	}
}

func TestApp_CompleteTask(t *testing.T) {
	f := setupApp(t, "Read Only")
	f.api.replies["PUT /tasks/3"] = stubReply{200, `{"message":"Task updated successfully"}`}

	if err := f.run(t, "tasks", "complete", "3", "--yes"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if body := f.api.bodies["PUT /tasks/3"]; body != `{"status":"completed"}` {
		t.Errorf("тело запроса = %s, ожидалось только поле status", body)
	}
}

func TestApp_SessionExpired(t *testing.T) {
	commands := [][]string{
		{"projects", "list"},
		{"dashboard"},
	}
	for _, args := range commands {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			f := setupApp(t, "Admin")
			f.api.replies["GET /projects/"] = stubReply{401, `{"error":"Token expired"}`}

			err := f.run(t, args...)
			if !errors.Is(err, ErrNotLoggedIn) {
				t.Fatalf("ожидалась ErrNotLoggedIn, получено %v", err)
			}
			if strings.Contains(strings.ToLower(f.stdout.String()), "expired") {
				t.Errorf("истечение сессии не должно выводить сообщение:\n%s", f.stdout.String())
			}
			if _, err := f.store.Load(context.Background()); !errors.Is(err, credstore.ErrNotFound) {
				t.Errorf("credential должен быть удалён, Load: %v", err)
			}
		})
	}
}

func TestApp_Logout(t *testing.T) {
	f := setupApp(t, "Admin")

	if err := f.run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.store.Load(context.Background()); !errors.Is(err, credstore.ErrNotFound) {
		t.Errorf("после logout credential должен отсутствовать: %v", err)
	}
}
