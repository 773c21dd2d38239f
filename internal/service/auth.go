package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/tasktracker/internal/domain/model"
	"github.com/bigkaa/tasktracker/internal/domain/rbac"
	"github.com/bigkaa/tasktracker/internal/idp"
	"github.com/bigkaa/tasktracker/internal/repository"
)

// NoRoleName — имя роли в профиле пользователя без назначенной роли.
const NoRoleName = "N/A"

// TokenVerifier проверяет ID-токен провайдера.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*idp.Profile, error)
}

// TokenIssuer выпускает токен приложения.
type TokenIssuer interface {
	Issue(identity model.Identity) (string, error)
}

// Transactor выполняет fn с репозиториями в одной транзакции.
type Transactor interface {
	InTx(ctx context.Context, fn func(repository.Stores) error) error
}

// LoginResult — результат входа: токен приложения и профиль.
type LoginResult struct {
	Token    string
	Identity model.Identity
	Created  bool
}

// AuthService — вход через провайдера и профиль текущего пользователя.
type AuthService struct {
	verifier TokenVerifier
	issuer   TokenIssuer
	tx       Transactor
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(verifier TokenVerifier, issuer TokenIssuer, tx Transactor, users repository.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		verifier: verifier,
		issuer:   issuer,
		tx:       tx,
		users:    users,
		logger:   logger.With(slog.String("component", "auth_service")),
	}
}

// Login проверяет ID-токен провайдера, находит пользователя по subject,
// затем по email (с привязкой subject), иначе создаёт нового. Первый
// пользователь системы получает роль Admin, остальные — Read Only.
func (s *AuthService) Login(ctx context.Context, providerToken string) (*LoginResult, error) {
	if strings.TrimSpace(providerToken) == "" {
		return nil, invalid("Google ID token is missing.")
	}

	profile, err := s.verifier.Verify(ctx, providerToken)
	if err != nil {
		s.logger.Info("ID-токен провайдера отклонён", slog.String("error", err.Error()))
		return nil, &Error{Kind: ErrUnauthenticated, Message: idp.ErrInvalidToken.Error()}
	}

	var acc *model.Account
	var created bool
	err = s.tx.InTx(ctx, func(st repository.Stores) error {
		var txErr error
		acc, created, txErr = s.resolveAccount(ctx, st, profile)
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("вход пользователя %s: %w", profile.Email, err)
	}

	identity := acc.Identity(roleNameOf(acc))
	token, err := s.issuer.Issue(identity)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("Создан пользователь",
			slog.String("email", identity.Email),
			slog.String("role", identity.RoleName),
		)
	} else {
		s.logger.Info("Вход пользователя", slog.String("email", identity.Email))
	}
	return &LoginResult{Token: token, Identity: identity, Created: created}, nil
}

func (s *AuthService) resolveAccount(ctx context.Context, st repository.Stores, p *idp.Profile) (*model.Account, bool, error) {
	acc, err := st.Users.GetByGoogleID(ctx, p.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		acc, err = st.Users.GetByEmail(ctx, p.Email)
	}

	switch {
	case err == nil:
		if err := st.Users.LinkProvider(ctx, acc.ID, p.Subject, optional(p.Name), optional(p.Picture)); err != nil {
			return nil, false, err
		}
		// профиль перечитывается: имя и аватар могли обновиться
		acc, err = st.Users.Get(ctx, acc.ID)
		return acc, false, err
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	if err := st.Roles.EnsureDefaults(ctx, rbac.DefaultRoles); err != nil {
		return nil, false, err
	}
	anyUsers, err := st.Users.Any(ctx)
	if err != nil {
		return nil, false, err
	}
	role, err := st.Roles.GetByName(ctx, rbac.RoleForNewUser(!anyUsers))
	if err != nil {
		return nil, false, err
	}

	acc = &model.Account{
		User: model.User{
			Username: usernameFromEmail(p.Email),
			Email:    p.Email,
			RoleID:   &role.ID,
			RoleName: &role.Name,
		},
		GoogleID: &p.Subject,
		Name:     optional(p.Name),
		Picture:  optional(p.Picture),
	}
	if err := st.Users.CreateAccount(ctx, acc); err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

// Me возвращает профиль пользователя. roleName — роль, по которой
// авторизован запрос.
func (s *AuthService) Me(ctx context.Context, userID int64, roleName string) (*model.Identity, error) {
	acc, err := s.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &Error{Kind: ErrUnauthenticated, Message: "User not found or token invalid."}
	}
	if err != nil {
		return nil, err
	}
	identity := acc.Identity(roleName)
	return &identity, nil
}

// RoleOf возвращает текущее имя роли пользователя из базы.
func (s *AuthService) RoleOf(ctx context.Context, userID int64) (string, error) {
	name, err := s.users.RoleName(ctx, userID)
	if err != nil {
		return "", err
	}
	if name == "" {
		return NoRoleName, nil
	}
	return name, nil
}

func roleNameOf(acc *model.Account) string {
	if acc.RoleName == nil {
		return NoRoleName
	}
	return *acc.RoleName
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
