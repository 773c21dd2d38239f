package credstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Sealer шифрует токен перед записью на диск (AES-256-GCM).
type Sealer struct {
	gcm cipher.AEAD
}

// KeyHexLen — длина ключа шифрования в hex (32 байта).
const KeyHexLen = 64

// ValidateKey проверяет, что key — 32 байта в hex.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("пустой ключ шифрования")
	}
	if len(key) != KeyHexLen {
		return fmt.Errorf("ожидается %d hex-символа (32 байта), получено %d", KeyHexLen, len(key))
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("ключ не является hex-строкой: %w", err)
	}
	return nil
}

// NewSealer создаёт Sealer. key — 32 байта в hex (см. ValidateKey).
func NewSealer(key string) (*Sealer, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	keyBytes, _ := hex.DecodeString(key)

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}
	return &Sealer{gcm: gcm}, nil
}

// Seal шифрует строку. Nonce добавляется перед шифротекстом.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := s.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Open дешифрует строку, полученную от Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	ciphertext, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := s.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("ошибка дешифрования токена: %w", err)
	}
	return string(plaintext), nil
}
