// Пакет credstore — хранение учётных данных клиента между запусками:
// токен приложения и профиль пользователя. Пара сохраняется и удаляется
// атомарно; наличие только одной части считается отсутствием credential.
// Пакет не обращается к сети и не проверяет токен.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// Ключи хранилища.
const (
	KeyToken   = "app_token"
	KeyProfile = "user_profile"
)

// ErrNotFound — credential отсутствует (или сохранён не полностью).
var ErrNotFound = errors.New("учётные данные не найдены")

// Store — хранилище credential.
type Store interface {
	// Save сохраняет токен и профиль одной операцией.
	Save(ctx context.Context, token string, identity model.Identity) error
	// Load возвращает сохранённый credential или ErrNotFound.
	Load(ctx context.Context) (*model.Credential, error)
	// Clear удаляет обе части credential.
	Clear(ctx context.Context) error
}

// encodeProfile сериализует профиль для хранения под KeyProfile.
func encodeProfile(identity model.Identity) (string, error) {
	data, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("сериализация профиля: %w", err)
	}
	return string(data), nil
}

// decodeProfile разбирает сохранённый профиль.
func decodeProfile(raw string) (model.Identity, error) {
	var identity model.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return model.Identity{}, fmt.Errorf("десериализация профиля: %w", err)
	}
	return identity, nil
}
