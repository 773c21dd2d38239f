// Пакет apptoken — выпуск и проверка токенов приложения (HS256).
// Токен выдаётся после входа через провайдера и предъявляется
// клиентом в заголовке Authorization: Bearer.
package apptoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bigkaa/tasktracker/internal/domain/model"
)

var (
	// ErrExpired — срок действия токена истёк.
	ErrExpired = errors.New("Token has expired.")
	// ErrInvalid — токен повреждён или подписан другим ключом.
	ErrInvalid = errors.New("Token is invalid.")
)

// Claims — содержимое токена приложения.
type Claims struct {
	UserID   int64  `json:"app_user_id"`
	Email    string `json:"email"`
	RoleID   *int64 `json:"roleId"`
	RoleName string `json:"roleName"`
	jwt.RegisteredClaims
}

// Issuer подписывает и проверяет токены общим секретом.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewIssuer создаёт Issuer. ttl — время жизни выпускаемых токенов,
// leeway — допуск расхождения часов при проверке.
func NewIssuer(secret string, ttl, leeway time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		leeway: leeway,
		now:    time.Now,
	}
}

// Issue выпускает токен для профиля пользователя.
func (i *Issuer) Issue(identity model.Identity) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:   identity.ID,
		Email:    identity.Email,
		RoleID:   identity.RoleID,
		RoleName: identity.RoleName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("подпись токена приложения: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия токена.
// Возвращает ErrExpired или ErrInvalid.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(i.leeway),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: нет app_user_id", ErrInvalid)
	}
	return claims, nil
}
