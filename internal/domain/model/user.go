package model

// User — пользователь Task Tracker.
type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	RoleID   *int64  `json:"role_id"`
	RoleName *string `json:"roleName"`
}

// HasRole сообщает, что пользователю назначена роль с указанным именем.
func (u User) HasRole(name string) bool {
	return u.RoleName != nil && *u.RoleName == name
}

// UserInput — тело запроса создания/обновления пользователя.
type UserInput struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	RoleID   *int64  `json:"role_id,omitempty"`
}

// Role — роль пользователя.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RoleInput — тело запроса создания/обновления роли.
type RoleInput struct {
	Name *string `json:"name,omitempty"`
}

// Account — серверная запись пользователя: поля REST API плюс привязка
// к провайдеру идентичности.
type Account struct {
	User
	GoogleID *string
	Name     *string
	Picture  *string
}

// Identity возвращает профиль для клиента. roleName — имя роли,
// действующее для сессии.
func (a Account) Identity(roleName string) Identity {
	id := Identity{
		ID:       a.ID,
		Email:    a.Email,
		Picture:  a.Picture,
		RoleID:   a.RoleID,
		RoleName: roleName,
	}
	if a.GoogleID != nil {
		id.GoogleID = *a.GoogleID
	}
	if a.Name != nil {
		id.Name = *a.Name
	}
	return id
}
