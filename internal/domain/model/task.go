package model

import openapi_types "github.com/oapi-codegen/runtime/types"

// TaskStatus — статус задачи.
type TaskStatus string

// Допустимые статусы задачи.
const (
	TaskStatusNotStarted TaskStatus = "not started"
	TaskStatusNew        TaskStatus = "new"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses — все статусы в порядке отображения.
var TaskStatuses = []TaskStatus{
	TaskStatusNotStarted,
	TaskStatusNew,
	TaskStatusInProgress,
	TaskStatusBlocked,
	TaskStatusCompleted,
}

// Valid проверяет, что статус входит в перечисление.
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Task — задача проекта.
type Task struct {
	ID          int64               `json:"id"`
	Description string              `json:"description"`
	DueDate     *openapi_types.Date `json:"due_date"`
	Status      *TaskStatus         `json:"status"`
	OwnerID     *int64              `json:"owner_id"`
	ProjectID   *int64              `json:"project_id"`
}

// Completed сообщает, что задача уже завершена.
func (t Task) Completed() bool {
	return t.Status != nil && *t.Status == TaskStatusCompleted
}

// TaskInput — тело запроса создания/обновления задачи.
// Частичное обновление ({"status": "completed"}) — штатный случай.
type TaskInput struct {
	Description *string             `json:"description,omitempty"`
	DueDate     *openapi_types.Date `json:"due_date,omitempty"`
	Status      *TaskStatus         `json:"status,omitempty"`
	OwnerID     *int64              `json:"owner_id,omitempty"`
	ProjectID   *int64              `json:"project_id,omitempty"`
}

// StatusOnly сообщает, что в патче задан только статус.
func (in TaskInput) StatusOnly() bool {
	return in.Status != nil && in.Description == nil && in.DueDate == nil &&
		in.OwnerID == nil && in.ProjectID == nil
}
