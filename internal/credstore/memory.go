package credstore

import (
	"context"
	"sync"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// MemoryStore — Store в памяти процесса (тесты, одноразовые сессии).
type MemoryStore struct {
	mu   sync.Mutex
	cred *model.Credential
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save сохраняет credential.
func (m *MemoryStore) Save(_ context.Context, token string, identity model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &model.Credential{Token: token, Identity: identity}
	return nil
}

// Load возвращает копию сохранённого credential.
func (m *MemoryStore) Load(_ context.Context) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cred.Valid() {
		return nil, ErrNotFound
	}
	c := *m.cred
	return &c, nil
}

// Clear удаляет credential.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}
