// Пакет session — явный объект сессии клиента.
// Сессия имеет ровно три перехода: Login, Logout и Expire (принудительный,
// по ответу 401). Каждый переход увеличивает эпоху; обработчики ответов
// запоминают эпоху до отправки запроса и отбрасывают результат, если
// сессия за это время сменилась.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bigkaa/tasktracker/internal/credstore"
	"github.com/bigkaa/tasktracker/internal/domain/model"
)

// Reason — причина последнего перехода.
type Reason string

// Причины переходов сессии.
const (
	ReasonRestored Reason = "restored"
	ReasonLogin    Reason = "login"
	ReasonLogout   Reason = "logout"
	ReasonExpired  Reason = "expired"
)

// Change — событие смены состояния сессии.
type Change struct {
	Authenticated bool
	Reason        Reason
	Epoch         uint64
}

// Session — состояние аутентификации клиента.
type Session struct {
	store  credstore.Store
	logger *slog.Logger

	mu        sync.RWMutex
	identity  *model.Identity
	epoch     uint64
	listeners []func(Change)
}

// New создаёт неаутентифицированную сессию поверх хранилища credential.
func New(store credstore.Store, logger *slog.Logger) *Session {
	return &Session{
		store:  store,
		logger: logger.With(slog.String("component", "session")),
	}
}

// Store возвращает хранилище credential сессии.
func (s *Session) Store() credstore.Store {
	return s.store
}

// OnChange регистрирует обработчик смены состояния.
// Обработчик вызывается синхронно после перехода, вне блокировки.
func (s *Session) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Restore читает сохранённый credential. Возвращает true, если сессия
// восстановлена. Отсутствие credential — не ошибка.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	cred, err := s.store.Load(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("восстановление сессии: %w", err)
	}

	s.transition(&cred.Identity, ReasonRestored)
	s.logger.Info("Сессия восстановлена",
		slog.String("email", cred.Identity.Email),
		slog.String("role", cred.Identity.RoleName),
	)
	return true, nil
}

// Login сохраняет credential и делает сессию аутентифицированной.
func (s *Session) Login(ctx context.Context, token string, identity model.Identity) error {
	if token == "" {
		return errors.New("пустой токен приложения")
	}
	// Хранилище не вернёт credential без профиля: такой вход не пережил бы перезапуск
	if identity.ID == 0 {
		return errors.New("профиль пользователя без идентификатора")
	}
	if err := s.store.Save(ctx, token, identity); err != nil {
		return fmt.Errorf("сохранение учётных данных: %w", err)
	}

	s.transition(&identity, ReasonLogin)
	s.logger.Info("Вход выполнен",
		slog.String("email", identity.Email),
		slog.String("role", identity.RoleName),
	)
	return nil
}

// Logout очищает хранилище и сбрасывает сессию.
func (s *Session) Logout(ctx context.Context) error {
	return s.end(ctx, ReasonLogout)
}

// Expire — принудительное завершение сессии (сервер ответил 401).
func (s *Session) Expire(ctx context.Context) error {
	return s.end(ctx, ReasonExpired)
}

// ExpireAt завершает сессию, только если epoch всё ещё текущая.
// 401 на запрос, отправленный в прошлой сессии, новую сессию не трогает.
func (s *Session) ExpireAt(ctx context.Context, epoch uint64) (bool, error) {
	if !s.IsCurrent(epoch) {
		s.logger.Debug("Устаревший 401 проигнорирован", slog.Uint64("epoch", epoch))
		return false, nil
	}
	return true, s.Expire(ctx)
}

func (s *Session) end(ctx context.Context, reason Reason) error {
	// Состояние сбрасывается даже при ошибке хранилища
	s.transition(nil, reason)

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("Ошибка очистки учётных данных",
			slog.String("reason", string(reason)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("очистка учётных данных: %w", err)
	}

	if reason == ReasonExpired {
		s.logger.Warn("Сессия истекла")
	} else {
		s.logger.Info("Выход выполнен")
	}
	return nil
}

func (s *Session) transition(identity *model.Identity, reason Reason) {
	s.mu.Lock()
	s.identity = identity
	s.epoch++
	change := Change{Authenticated: identity != nil, Reason: reason, Epoch: s.epoch}
	listeners := append([]func(Change){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
}

// Authenticated сообщает, аутентифицирована ли сессия.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Identity возвращает профиль текущего пользователя.
func (s *Session) Identity() (model.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return model.Identity{}, false
	}
	return *s.identity, true
}

// Role возвращает роль текущего пользователя ("" без сессии).
func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.RoleName
}

// Epoch возвращает номер текущей эпохи сессии.
func (s *Session) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// IsCurrent сообщает, что с эпохи epoch переходов не было.
func (s *Session) IsCurrent(epoch uint64) bool {
	return s.Epoch() == epoch
}
