// Пакет rbac — статические таблицы прав Task Tracker.
// Две таблицы: клиентская (какие действия показывать пользователю
// с данной ролью) и серверная (какие HTTP-операции разрешены роли).
// Неизвестная роль не получает ничего.
package rbac

// Роли Task Tracker. Создаются при первом входе любого пользователя.
const (
	RoleAdmin       = "Admin"
	RoleTaskCreator = "Task Creator"
	RoleReadOnly    = "Read Only"
)

// DefaultRoles — роли, гарантированно существующие в системе.
var DefaultRoles = []string{RoleAdmin, RoleTaskCreator, RoleReadOnly}

// Entity — тип ресурса.
type Entity string

// Ресурсы REST API.
const (
	EntityProject Entity = "project"
	EntityTask    Entity = "task"
	EntityUser    Entity = "user"
	EntityRole    Entity = "role"
)

// Entities — все ресурсы в порядке загрузки.
var Entities = []Entity{EntityProject, EntityTask, EntityUser, EntityRole}

// Action — действие, которое клиент может предложить пользователю.
type Action string

// Действия клиента.
const (
	ActionCreate       Action = "create"
	ActionEdit         Action = "edit"
	ActionDelete       Action = "delete"
	ActionMarkComplete Action = "mark-complete"
)

// Actions — все действия в порядке отображения.
var Actions = []Action{ActionCreate, ActionEdit, ActionDelete, ActionMarkComplete}

// Operation — серверная операция над ресурсом.
type Operation string

// Операции REST API.
const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type actionKey struct {
	role   string
	entity Entity
	action Action
}

type operationKey struct {
	role   string
	entity Entity
	op     Operation
}

// actionTable — права клиентского представления.
var actionTable = buildActionTable()

// operationTable — права серверных маршрутов.
var operationTable = buildOperationTable()

func buildActionTable() map[actionKey]bool {
	t := make(map[actionKey]bool)
	allow := func(entity Entity, action Action, roles ...string) {
		for _, r := range roles {
			t[actionKey{r, entity, action}] = true
		}
	}

	for _, e := range []Entity{EntityProject, EntityUser, EntityRole} {
		allow(e, ActionCreate, RoleAdmin)
		allow(e, ActionEdit, RoleAdmin)
		allow(e, ActionDelete, RoleAdmin)
	}
	allow(EntityTask, ActionCreate, RoleAdmin, RoleTaskCreator)
	allow(EntityTask, ActionEdit, RoleAdmin, RoleTaskCreator)
	allow(EntityTask, ActionDelete, RoleAdmin)
	allow(EntityTask, ActionMarkComplete, RoleAdmin, RoleTaskCreator, RoleReadOnly)
	return t
}

func buildOperationTable() map[operationKey]bool {
	t := make(map[operationKey]bool)
	allow := func(entity Entity, op Operation, roles ...string) {
		for _, r := range roles {
			t[operationKey{r, entity, op}] = true
		}
	}

	for _, e := range Entities {
		allow(e, OpList, DefaultRoles...)
		allow(e, OpGet, DefaultRoles...)
	}
	for _, e := range []Entity{EntityProject, EntityUser, EntityRole} {
		allow(e, OpCreate, RoleAdmin)
		allow(e, OpUpdate, RoleAdmin)
		allow(e, OpDelete, RoleAdmin)
	}
	allow(EntityTask, OpCreate, RoleAdmin, RoleTaskCreator)
	// Read Only допускается к обновлению задач, но только статуса:
	// ограничение проверяется на уровне сервиса.
	allow(EntityTask, OpUpdate, DefaultRoles...)
	allow(EntityTask, OpDelete, RoleAdmin, RoleTaskCreator)
	return t
}

// Allowed сообщает, показывать ли роли действие над ресурсом.
func Allowed(role string, entity Entity, action Action) bool {
	return actionTable[actionKey{role, entity, action}]
}

// AllowedActions возвращает действия, доступные роли для ресурса.
func AllowedActions(role string, entity Entity) []Action {
	var result []Action
	for _, a := range Actions {
		if Allowed(role, entity, a) {
			result = append(result, a)
		}
	}
	return result
}

// Permits сообщает, разрешена ли роли серверная операция над ресурсом.
func Permits(role string, entity Entity, op Operation) bool {
	return operationTable[operationKey{role, entity, op}]
}

// RolesFor возвращает роли, которым разрешена операция (для сообщений и логов).
func RolesFor(entity Entity, op Operation) []string {
	var result []string
	for _, r := range DefaultRoles {
		if Permits(r, entity, op) {
			result = append(result, r)
		}
	}
	return result
}

// IsValidRole проверяет, является ли строка известной ролью.
func IsValidRole(role string) bool {
	for _, r := range DefaultRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleForNewUser — роль, назначаемая пользователю при первом входе.
// Первый пользователь системы становится администратором.
func RoleForNewUser(firstUser bool) string {
	if firstUser {
		return RoleAdmin
	}
	return RoleReadOnly
}
