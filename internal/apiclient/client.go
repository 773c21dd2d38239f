// Пакет apiclient — HTTP-клиент REST API Task Tracker.
// Каждый запрос получает JSON-заголовки и, если в хранилище есть токен,
// заголовок Authorization: Bearer. Токен читается из хранилища при каждом
// вызове. Коды ответа клиент не интерпретирует.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bigkaa/tasktracker/internal/credstore"
)

// ProviderLoginPath — endpoint обмена токена провайдера на токен приложения.
const ProviderLoginPath = "/auth/provider"

// maxBodySize — ограничение размера тела ответа.
const maxBodySize = 16 << 20

// Response — сырой ответ сервера.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client — HTTP-клиент REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credstore.Store
	logger     *slog.Logger
}

// New создаёт клиент. baseURL — корень REST API без завершающего слэша.
// store — источник токена; timeout — таймаут одного запроса
// (0 — без таймаута: медленный ответ ждётся, а не считается сбоем сети).
func New(baseURL string, store credstore.Store, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		logger:     logger.With(slog.String("component", "api_client")),
	}
}

// BaseURL возвращает корень REST API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do выполняет запрос к path относительно базового URL.
// body сериализуется в JSON (nil — без тела). Ошибка возвращается только
// при сбое транспорта; любые HTTP-статусы приходят в Response.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	token, err := c.currentToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, method, path, body, token)
}

// ExchangeProviderToken отправляет ID-токен провайдера на сервер.
// Запрос уходит без Bearer: сессии приложения ещё нет.
func (c *Client) ExchangeProviderToken(ctx context.Context, providerToken string) (*Response, error) {
	if providerToken == "" {
		return nil, errors.New("пустой токен провайдера")
	}
	return c.send(ctx, http.MethodPost, ProviderLoginPath, map[string]string{"token": providerToken}, "")
}

// currentToken читает токен из хранилища; отсутствие токена — не ошибка.
func (c *Client) currentToken(ctx context.Context) (string, error) {
	cred, err := c.store.Load(ctx)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("чтение токена: %w", err)
	}
	return cred.Token, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, token string) (*Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("сериализация тела запроса: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	reqURL := c.resolve(path)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Сбой транспорта",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("запрос %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("чтение ответа %s %s: %w", method, path, err)
	}

	c.logger.Debug("Ответ API",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// resolve склеивает базовый URL и относительный путь.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
