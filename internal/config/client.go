package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/bigkaa/tasktracker/internal/credstore"
)

// ClientConfig — конфигурация CLI-клиента Task Tracker.
// Источники по возрастанию приоритета: значения по умолчанию,
// YAML-профиль, переменные окружения TT_CLIENT_*.
type ClientConfig struct {
	// Базовый URL REST API
	APIURL string `yaml:"api_url" env:"TT_CLIENT_API_URL"`
	// Путь к SQLite-файлу хранилища учётных данных
	CredentialsPath string `yaml:"credentials_path" env:"TT_CLIENT_CREDENTIALS_PATH"`
	// Ключ шифрования токена в хранилище (hex, 64 символа; пусто — без шифрования)
	CredentialsKey string `yaml:"credentials_key" env:"TT_CLIENT_CREDENTIALS_KEY"`
	// Таймаут HTTP-запроса (0 — без таймаута, ожидание до ответа сервера)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"TT_CLIENT_REQUEST_TIMEOUT"`
	// Уровень логирования (debug, info, warn, error)
	LogLevelName string `yaml:"log_level" env:"TT_CLIENT_LOG_LEVEL"`
	// Формат логов (auto, json, text)
	LogFormat string `yaml:"log_format" env:"TT_CLIENT_LOG_FORMAT"`
	// Файл для выгрузки метрик клиента в формате textfile-коллектора (опционально)
	MetricsFile string `yaml:"metrics_file" env:"TT_CLIENT_METRICS_FILE"`

	// LogLevel — разобранный LogLevelName
	LogLevel slog.Level `yaml:"-"`
}

// DefaultClientConfig возвращает конфигурацию клиента по умолчанию.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		APIURL:          "http://localhost:5000",
		CredentialsPath: filepath.Join(ConfigDir(), "credentials.db"),
		LogLevelName:    "warn",
		LogFormat:       "auto",
	}
}

// ConfigDir возвращает каталог конфигурации клиента
// ($XDG_CONFIG_HOME/tasktracker или ~/.config/tasktracker).
func ConfigDir() string {
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "tasktracker")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "tasktracker")
}

// ProfilePath возвращает путь к YAML-профилю клиента.
// TT_CLIENT_CONFIG переопределяет путь по умолчанию.
func ProfilePath() string {
	if p := os.Getenv("TT_CLIENT_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadClient загружает конфигурацию клиента. Отсутствующий профиль
// не является ошибкой.
func LoadClient(profilePath string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()

	if profilePath != "" {
		data, err := os.ReadFile(profilePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("разбор профиля %s: %w", profilePath, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("чтение профиля %s: %w", profilePath, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("разбор переменных окружения: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ClientConfig) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("TT_CLIENT_API_URL: некорректный URL %q", c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	if c.CredentialsPath == "" {
		return fmt.Errorf("TT_CLIENT_CREDENTIALS_PATH: путь не может быть пустым")
	}

	if c.CredentialsKey != "" {
		if err := credstore.ValidateKey(c.CredentialsKey); err != nil {
			return fmt.Errorf("TT_CLIENT_CREDENTIALS_KEY: %w", err)
		}
	}

	if c.RequestTimeout != 0 && (c.RequestTimeout < time.Second || c.RequestTimeout > 5*time.Minute) {
		return fmt.Errorf("TT_CLIENT_REQUEST_TIMEOUT: значение %s вне допустимого диапазона 1s-5m (0 — без таймаута)", c.RequestTimeout)
	}

	c.LogLevel, err = parseLogLevel(c.LogLevelName)
	if err != nil {
		return fmt.Errorf("TT_CLIENT_LOG_LEVEL: %w", err)
	}

	switch c.LogFormat {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("TT_CLIENT_LOG_FORMAT: недопустимое значение %q, допустимые: auto, json, text", c.LogFormat)
	}
	return nil
}
