package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
	"github.com/bigkaa/tasktracker/internal/syncengine"
)

// Renderer печатает коллекции и сообщения в терминал.
type Renderer struct {
	w io.Writer

	title   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}

// NewRenderer создаёт Renderer. При plain стили не применяются
// (вывод не в терминал).
func NewRenderer(w io.Writer, plain bool) *Renderer {
	r := &Renderer{
		w:       w,
		title:   lipgloss.NewStyle().Bold(true),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
	if plain {
		r.title = lipgloss.NewStyle()
		r.success = lipgloss.NewStyle()
		r.failure = lipgloss.NewStyle()
		r.warning = lipgloss.NewStyle()
		r.muted = lipgloss.NewStyle()
	}
	return r
}

// Banner печатает сообщение и ошибку области, если они есть.
// Возвращает true, если была напечатана ошибка.
func (r *Renderer) Banner(b syncengine.Banner) bool {
	if b.Message != "" {
		fmt.Fprintln(r.w, r.success.Render(b.Message))
	}
	if b.Error != "" {
		fmt.Fprintln(r.w, r.failure.Render(b.Error))
		return true
	}
	return false
}

// Banners печатает текущие сообщения указанных областей.
func (r *Renderer) Banners(n *syncengine.Notifier, scopes ...syncengine.Scope) bool {
	failed := false
	for _, s := range scopes {
		if r.Banner(n.Get(s)) {
			failed = true
		}
	}
	return failed
}

// Section печатает заголовок раздела и предупреждение коллекции.
func (r *Renderer) Section(title, warning string) {
	fmt.Fprintln(r.w, r.title.Render(title))
	if warning != "" {
		fmt.Fprintln(r.w, r.warning.Render(warning))
	}
}

// Identity печатает профиль текущего пользователя.
func (r *Renderer) Identity(id model.Identity) {
	fmt.Fprintf(r.w, "%s <%s>\n", id.Name, id.Email)
	role := id.RoleName
	if role == "" {
		role = "-"
	}
	fmt.Fprintf(r.w, "%s %s\n", r.muted.Render("Role:"), role)
}

// Actions печатает действия, доступные роли над сущностью.
func (r *Renderer) Actions(entity rbac.Entity, actions []rbac.Action) {
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, string(a))
	}
	if len(names) == 0 {
		names = append(names, "view only")
	}
	fmt.Fprintf(r.w, "%s %s\n", r.muted.Render("Actions ("+string(entity)+"):"), strings.Join(names, ", "))
}

// Projects печатает таблицу проектов.
func (r *Renderer) Projects(items []model.Project) {
	r.table([]string{"ID", "NAME", "DESCRIPTION", "START", "END", "OWNER"}, len(items), func(i int) []string {
		p := items[i]
		return []string{
			strconv.FormatInt(p.ID, 10), p.Name, str(p.Description),
			date(p.StartDate), date(p.EndDate), id(p.OwnerID),
		}
	})
}

// Tasks печатает таблицу задач. completable отмечает задачи,
// которые текущий пользователь может завершить.
func (r *Renderer) Tasks(items []model.Task, completable func(model.Task) bool) {
	r.table([]string{"ID", "DESCRIPTION", "DUE", "STATUS", "OWNER", "PROJECT", ""}, len(items), func(i int) []string {
		t := items[i]
		status := "-"
		if t.Status != nil {
			status = string(*t.Status)
		}
		mark := ""
		if completable != nil && completable(t) {
			mark = "can complete"
		}
		return []string{
			strconv.FormatInt(t.ID, 10), t.Description, date(t.DueDate),
			status, id(t.OwnerID), id(t.ProjectID), mark,
		}
	})
}

// Users печатает таблицу пользователей.
func (r *Renderer) Users(items []model.User) {
	r.table([]string{"ID", "USERNAME", "EMAIL", "ROLE"}, len(items), func(i int) []string {
		u := items[i]
		return []string{strconv.FormatInt(u.ID, 10), u.Username, u.Email, str(u.RoleName)}
	})
}

// Roles печатает таблицу ролей.
func (r *Renderer) Roles(items []model.Role) {
	r.table([]string{"ID", "NAME"}, len(items), func(i int) []string {
		return []string{strconv.FormatInt(items[i].ID, 10), items[i].Name}
	})
}

func (r *Renderer) table(header []string, n int, row func(int) []string) {
	if n == 0 {
		fmt.Fprintln(r.w, r.muted.Render("(empty)"))
		return
	}
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i := 0; i < n; i++ {
		fmt.Fprintln(tw, strings.Join(row(i), "\t"))
	}
	tw.Flush()
}

func str(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func id(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func date(d *openapi_types.Date) string {
	if d == nil {
		return "-"
	}
	return d.Time.Format(openapi_types.DateFormat)
}
