// Пакет config — загрузка и валидация конфигурации Task Tracker
// из переменных окружения (сервер: префикс TT_, клиент: TT_CLIENT_).
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// rawConfig — сырые значения переменных окружения сервера до валидации.
type rawConfig struct {
	Port      int    `env:"TT_PORT" envDefault:"5000"`
	LogLevel  string `env:"TT_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"TT_LOG_FORMAT" envDefault:"json"`

	DBHost     string `env:"TT_DB_HOST,required,notEmpty"`
	DBPort     int    `env:"TT_DB_PORT" envDefault:"5432"`
	DBName     string `env:"TT_DB_NAME,required,notEmpty"`
	DBUser     string `env:"TT_DB_USER,required,notEmpty"`
	DBPassword string `env:"TT_DB_PASSWORD,required,notEmpty"`
	DBSSLMode  string `env:"TT_DB_SSL_MODE" envDefault:"disable"`

	JWTSecret string        `env:"TT_JWT_SECRET,required,notEmpty"`
	JWTTTL    time.Duration `env:"TT_JWT_TTL" envDefault:"24h"`

	GoogleClientID string   `env:"TT_GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleJWKSURL  string   `env:"TT_GOOGLE_JWKS_URL" envDefault:"https://www.googleapis.com/oauth2/v3/certs"`
	GoogleIssuers  []string `env:"TT_GOOGLE_ISSUERS" envSeparator:"," envDefault:"accounts.google.com,https://accounts.google.com"`

	JWKSRefreshInterval time.Duration `env:"TT_JWKS_REFRESH_INTERVAL" envDefault:"15m"`
	JWKSClientTimeout   time.Duration `env:"TT_JWKS_CLIENT_TIMEOUT" envDefault:"10s"`
	JWTLeeway           time.Duration `env:"TT_JWT_LEEWAY" envDefault:"30s"`

	RoleCacheTTL  time.Duration `env:"TT_ROLE_CACHE_TTL" envDefault:"30s"`
	RoleCacheSize int           `env:"TT_ROLE_CACHE_SIZE" envDefault:"1024"`

	CORSAllowedOrigins []string `env:"TT_CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	DephealthGroup         string        `env:"TT_DEPHEALTH_GROUP" envDefault:"tasktracker"`
	DephealthCheckInterval time.Duration `env:"TT_DEPHEALTH_CHECK_INTERVAL" envDefault:"15s"`
	ShutdownTimeout        time.Duration `env:"TT_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Config содержит все параметры конфигурации сервера Task Tracker.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Токены приложения (HS256) ---

	// Секрет подписи токенов приложения
	JWTSecret string
	// Время жизни токена приложения
	JWTTTL time.Duration

	// --- Провайдер идентичности (Google) ---

	// Client ID приложения у провайдера (ожидаемый aud ID-токена)
	GoogleClientID string
	// URL JWKS провайдера
	GoogleJWKSURL string
	// Допустимые issuer ID-токена
	GoogleIssuers []string
	// Интервал обновления JWKS
	JWKSRefreshInterval time.Duration
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Допустимое отклонение часов при проверке токенов
	JWTLeeway time.Duration

	// --- Кэш ролей ---

	// Время жизни записи кэша ролей (смена роли применяется без повторного входа)
	RoleCacheTTL time.Duration
	// Максимальное число записей кэша ролей
	RoleCacheSize int

	// Origins, которым разрешены CORS-запросы браузерного клиента
	CORSAllowedOrigins []string

	// Группа в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию сервера из переменных окружения,
// валидирует значения и возвращает Config или ошибку.
func Load() (*Config, error) {
	var raw rawConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("разбор переменных окружения: %w", err)
	}

	cfg := &Config{
		Port:                   raw.Port,
		DBHost:                 raw.DBHost,
		DBPort:                 raw.DBPort,
		DBName:                 raw.DBName,
		DBUser:                 raw.DBUser,
		DBPassword:             raw.DBPassword,
		DBSSLMode:              raw.DBSSLMode,
		JWTSecret:              raw.JWTSecret,
		JWTTTL:                 raw.JWTTTL,
		GoogleClientID:         raw.GoogleClientID,
		GoogleJWKSURL:          raw.GoogleJWKSURL,
		GoogleIssuers:          trimAll(raw.GoogleIssuers),
		JWKSRefreshInterval:    raw.JWKSRefreshInterval,
		JWKSClientTimeout:      raw.JWKSClientTimeout,
		JWTLeeway:              raw.JWTLeeway,
		RoleCacheTTL:           raw.RoleCacheTTL,
		RoleCacheSize:          raw.RoleCacheSize,
		CORSAllowedOrigins:     trimAll(raw.CORSAllowedOrigins),
		DephealthGroup:         raw.DephealthGroup,
		DephealthCheckInterval: raw.DephealthCheckInterval,
		ShutdownTimeout:        raw.ShutdownTimeout,
	}

	var err error

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("TT_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(raw.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("TT_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat, err = parseLogFormat(raw.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("TT_LOG_FORMAT: %w", err)
	}

	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("TT_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// Секрет HS256 не короче 32 байт
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("TT_JWT_SECRET: длина секрета %d, минимум 32 байта", len(cfg.JWTSecret))
	}

	if cfg.JWTTTL < time.Minute || cfg.JWTTTL > 30*24*time.Hour {
		return nil, fmt.Errorf("TT_JWT_TTL: значение %s вне допустимого диапазона 1m-720h", cfg.JWTTTL)
	}

	if len(cfg.GoogleIssuers) == 0 {
		return nil, fmt.Errorf("TT_GOOGLE_ISSUERS: список не может быть пустым")
	}

	if cfg.JWKSRefreshInterval < time.Minute {
		return nil, fmt.Errorf("TT_JWKS_REFRESH_INTERVAL: значение %s меньше минимального 1m", cfg.JWKSRefreshInterval)
	}

	if cfg.RoleCacheTTL < 0 {
		return nil, fmt.Errorf("TT_ROLE_CACHE_TTL: отрицательное значение %s", cfg.RoleCacheTTL)
	}
	if cfg.RoleCacheSize < 1 || cfg.RoleCacheSize > 100000 {
		return nil, fmt.Errorf("TT_ROLE_CACHE_SIZE: значение %d вне допустимого диапазона 1-100000", cfg.RoleCacheSize)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без учётных данных
// (для лейблов метрик зависимостей).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// --- Вспомогательные функции ---

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseLogFormat проверяет формат логов.
func parseLogFormat(format string) (string, error) {
	switch format {
	case "json", "text":
		return format, nil
	default:
		return "", fmt.Errorf("недопустимое значение %q, допустимые: json, text", format)
	}
}

// trimAll убирает пробелы вокруг элементов и пустые элементы.
func trimAll(items []string) []string {
	result := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}
