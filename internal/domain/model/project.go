package model

import openapi_types "github.com/oapi-codegen/runtime/types"

// Project — проект. Даты в формате YYYY-MM-DD.
type Project struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	OwnerID     *int64              `json:"owner_id"`
}

// ProjectInput — тело запроса создания/обновления проекта.
// Все поля опциональны: при обновлении передаются только изменённые.
type ProjectInput struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	StartDate   *openapi_types.Date `json:"start_date,omitempty"`
	EndDate     *openapi_types.Date `json:"end_date,omitempty"`
	OwnerID     *int64              `json:"owner_id,omitempty"`
}
