// Пакет idp — проверка ID-токенов провайдера идентичности (Google):
// подпись RS256 по JWKS провайдера, audience и issuer.
package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken — ID-токен не прошёл проверку.
var ErrInvalidToken = errors.New("Invalid Google ID token.")

// Profile — данные пользователя из ID-токена.
type Profile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// googleClaims — claims ID-токена Google.
type googleClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verifier проверяет ID-токены провайдера.
type Verifier struct {
	jwks     keyfunc.Keyfunc
	audience string
	issuers  []string
	leeway   time.Duration
	logger   *slog.Logger
}

// NewVerifier создаёт Verifier с JWKS, загружаемым по HTTP и обновляемым
// в фоне. Старт не блокируется недоступностью провайдера.
func NewVerifier(
	ctx context.Context,
	jwksURL string,
	audience string,
	issuers []string,
	clientTimeout time.Duration,
	refreshInterval time.Duration,
	leeway time.Duration,
	logger *slog.Logger,
) (*Verifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: clientTimeout},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}
	return NewVerifierWithKeyfunc(k, audience, issuers, leeway, logger), nil
}

// NewVerifierWithKeyfunc создаёт Verifier с готовой keyfunc.
func NewVerifierWithKeyfunc(kf keyfunc.Keyfunc, audience string, issuers []string, leeway time.Duration, logger *slog.Logger) *Verifier {
	return &Verifier{
		jwks:     kf,
		audience: audience,
		issuers:  issuers,
		leeway:   leeway,
		logger:   logger.With(slog.String("component", "idp")),
	}
}

// Verify проверяет ID-токен и возвращает профиль пользователя.
// Любая ошибка проверки — ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Profile, error) {
	claims := &googleClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, v.jwks.KeyfuncCtx(ctx),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		v.logger.Debug("ID-токен не прошёл проверку", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	// Google выпускает токены с двумя вариантами iss
	if !slices.Contains(v.issuers, claims.Issuer) {
		return nil, fmt.Errorf("%w: недопустимый issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: нет sub", ErrInvalidToken)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: нет email", ErrInvalidToken)
	}

	return &Profile{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

const statusFail = "fail"

// ReadinessChecker — проверка доступности JWKS провайдера.
type ReadinessChecker struct {
	jwksURL string
	client  *http.Client
}

// NewReadinessChecker создаёт checker доступности JWKS.
func NewReadinessChecker(jwksURL string, timeout time.Duration) *ReadinessChecker {
	return &ReadinessChecker{
		jwksURL: jwksURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// CheckReady запрашивает JWKS и проверяет, что в нём есть ключи.
func (c *ReadinessChecker) CheckReady(ctx context.Context) (status, message string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, http.NoBody)
	if err != nil {
		return statusFail, "ошибка создания запроса: " + err.Error()
	}
	resp, err := c.client.Do(req) //nolint:gosec // URL из конфигурации
	if err != nil {
		return statusFail, fmt.Sprintf("JWKS провайдера недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusFail, fmt.Sprintf("JWKS провайдера вернул статус %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return "degraded", fmt.Sprintf("JWKS провайдера: невалидный JSON: %v", err)
	}
	if len(jwks.Keys) == 0 {
		return "degraded", "JWKS провайдера: нет ключей"
	}
	return "ok", fmt.Sprintf("JWKS доступен, ключей: %d", len(jwks.Keys))
}
