package dashboard

import (
	"fmt"
	"strings"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// Mode — создание или обновление (при обновлении поля опциональны).
type Mode int

// Режимы проверки формы.
const (
	ModeCreate Mode = iota
	ModeUpdate
)

// missingFields собирает сообщение о незаполненных полях.
func missingFields(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("Please fill in all required fields: %s.", strings.Join(missing, ", "))
}

// blank сообщает, что строковое поле не задано или пустое.
func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// emptyIfSet сообщает, что поле передано, но пустое.
func emptyIfSet(s *string) bool {
	return s != nil && strings.TrimSpace(*s) == ""
}

// check добавляет имя поля в missing по правилу режима.
func check(missing []string, name string, mode Mode, s *string) []string {
	if (mode == ModeCreate && blank(s)) || (mode == ModeUpdate && emptyIfSet(s)) {
		return append(missing, name)
	}
	return missing
}

// ValidateProject проверяет обязательные поля проекта.
func ValidateProject(in model.ProjectInput, mode Mode) string {
	var missing []string
	missing = check(missing, "name", mode, in.Name)
	missing = check(missing, "description", mode, in.Description)
	if mode == ModeCreate {
		if in.StartDate == nil {
			missing = append(missing, "start_date")
		}
		if in.EndDate == nil {
			missing = append(missing, "end_date")
		}
		if in.OwnerID == nil {
			missing = append(missing, "owner_id")
		}
	}
	if msg := missingFields(missing); msg != "" {
		return msg
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Time.Before(in.StartDate.Time) {
		return "End date cannot be before start date."
	}
	return ""
}

// ValidateTask проверяет обязательные поля задачи.
func ValidateTask(in model.TaskInput, mode Mode) string {
	var missing []string
	missing = check(missing, "description", mode, in.Description)
	if mode == ModeCreate {
		if in.DueDate == nil {
			missing = append(missing, "due_date")
		}
		if in.Status == nil {
			missing = append(missing, "status")
		}
		if in.OwnerID == nil {
			missing = append(missing, "owner_id")
		}
		if in.ProjectID == nil {
			missing = append(missing, "project_id")
		}
	}
	if msg := missingFields(missing); msg != "" {
		return msg
	}
	if in.Status != nil && !in.Status.Valid() {
		return fmt.Sprintf("Invalid status %q.", *in.Status)
	}
	return ""
}

// ValidateUser проверяет обязательные поля пользователя.
func ValidateUser(in model.UserInput, mode Mode) string {
	var missing []string
	missing = check(missing, "username", mode, in.Username)
	missing = check(missing, "email", mode, in.Email)
	if msg := missingFields(missing); msg != "" {
		return msg
	}
	if in.Email != nil && !strings.Contains(*in.Email, "@") {
		return "Please enter a valid email address."
	}
	return ""
}

// ValidateRole проверяет обязательные поля роли.
func ValidateRole(in model.RoleInput, mode Mode) string {
	return missingFields(check(nil, "name", mode, in.Name))
}
