// Пакет model — доменные модели Task Tracker: сущности REST API
// (проекты, задачи, пользователи, роли) и сессионные данные клиента.
package model

// Identity — профиль аутентифицированного пользователя.
// Возвращается сервером при обмене токена провайдера и кэшируется клиентом
// вместе с токеном приложения.
type Identity struct {
	// ID — идентификатор пользователя в Task Tracker
	ID int64 `json:"id"`
	// GoogleID — subject пользователя у провайдера идентичности
	GoogleID string `json:"googleId"`
	// Email — адрес электронной почты
	Email string `json:"email"`
	// Name — отображаемое имя
	Name string `json:"name"`
	// Picture — URL аватара (может отсутствовать)
	Picture *string `json:"picture,omitempty"`
	// RoleID — идентификатор роли (nil, если роль не назначена)
	RoleID *int64 `json:"roleId"`
	// RoleName — имя роли: Admin, Task Creator, Read Only
	RoleName string `json:"roleName"`
}

// Credential — пара (токен приложения, профиль), хранимая между запусками.
// Существует только целиком: токен без профиля (или наоборот) не является
// валидной сессией.
type Credential struct {
	Token    string
	Identity Identity
}

// Valid сообщает, что обе части credential заполнены: есть токен и
// профиль пользователя с идентификатором.
func (c *Credential) Valid() bool {
	return c != nil && c.Token != "" && c.Identity.ID != 0
}
