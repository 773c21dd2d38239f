// Пакет syncengine — синхронизация локальных коллекций с REST API.
// Все ответы проходят через единый классификатор Classify, который
// превращает (статус, тело) в тегированный Result. Ветвление по статусу
// вне этого пакета не допускается.
package syncengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind — класс результата операции.
type Kind int

// Классы результатов.
const (
	// KindOK — 2xx.
	KindOK Kind = iota
	// KindSessionExpired — 401: сессия завершается принудительно.
	KindSessionExpired
	// KindPermissionDenied — 403: сессия сохраняется, действие запрещено.
	KindPermissionDenied
	// KindValidation — клиентская проверка формы до отправки запроса.
	KindValidation
	// KindRemoteFailure — прочие не-2xx ответы.
	KindRemoteFailure
	// KindNetwork — сбой транспорта, ответа нет.
	KindNetwork
)

var kindNames = map[Kind]string{
	KindOK:               "ok",
	KindSessionExpired:   "session_expired",
	KindPermissionDenied: "permission_denied",
	KindValidation:       "validation",
	KindRemoteFailure:    "remote_failure",
	KindNetwork:          "network",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Сентинелы для errors.Is по классу ошибки.
var (
	ErrSessionExpired   = &Error{Kind: KindSessionExpired}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrRemoteFailure    = &Error{Kind: KindRemoteFailure}
	ErrNetwork          = &Error{Kind: KindNetwork}
)

// Error — ошибка операции с классом.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is сравнивает ошибки по классу.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Result — тегированный результат операции: Ok(payload, message)
// или Err(kind, message).
type Result struct {
	Kind Kind
	// Status — HTTP-статус (0 для Validation и Network)
	Status int
	// Message — для Ok: сообщение сервера (может быть пустым);
	// для ошибок: текст ошибки
	Message string
	// Payload — тело успешного ответа
	Payload json.RawMessage
	// Epoch — эпоха сессии на момент отправки запроса
	Epoch uint64
	// Stale — сессия сменилась, пока запрос был в пути; результат отбрасывается
	Stale bool
	// Cause — исходная ошибка транспорта (только для логов)
	Cause error
}

// OK сообщает об успехе.
func (r Result) OK() bool {
	return r.Kind == KindOK
}

// Err возвращает ошибку результата или nil для Ok.
func (r Result) Err() error {
	if r.Kind == KindOK {
		return nil
	}
	return &Error{Kind: r.Kind, Status: r.Status, Message: r.Message}
}

// Ok — успешный результат.
func Ok(payload []byte, message string) Result {
	return Result{Kind: KindOK, Status: http.StatusOK, Payload: payload, Message: message}
}

// ValidationFailure — результат клиентской проверки формы.
func ValidationFailure(message string) Result {
	return Result{Kind: KindValidation, Message: message}
}

// NetworkErrorMessage — текст для пользователя при сбое транспорта.
// Подробности ошибки остаются в Cause и попадают только в логи.
const NetworkErrorMessage = "Network request failed, the backend may be down or unreachable"

// NetworkFailure — результат сбоя транспорта.
func NetworkFailure(err error) Result {
	return Result{Kind: KindNetwork, Message: NetworkErrorMessage, Cause: err}
}

// Classify — единственная точка классификации ответов сервера.
func Classify(status int, body []byte) Result {
	switch {
	case status >= 200 && status < 300:
		return Result{
			Kind:    KindOK,
			Status:  status,
			Payload: body,
			Message: extractField(body, "message"),
		}
	case status == http.StatusUnauthorized:
		return Result{Kind: KindSessionExpired, Status: status, Message: errorMessage(status, body)}
	case status == http.StatusForbidden:
		return Result{Kind: KindPermissionDenied, Status: status, Message: extractError(body)}
	default:
		return Result{Kind: KindRemoteFailure, Status: status, Message: errorMessage(status, body)}
	}
}

// Decode разбирает полезную нагрузку успешного результата.
func Decode[T any](r Result) (T, error) {
	var v T
	if !r.OK() {
		return v, r.Err()
	}
	if len(r.Payload) == 0 {
		return v, errors.New("пустое тело ответа")
	}
	if err := json.Unmarshal(r.Payload, &v); err != nil {
		return v, fmt.Errorf("некорректное тело ответа: %w", err)
	}
	return v, nil
}

// errorMessage — текст ошибки сервера или "HTTP error! status: N".
func errorMessage(status int, body []byte) string {
	if msg := extractError(body); msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// extractError достаёт текст из {"error": "..."} или
// {"error": {"code": "...", "message": "..."}}.
func extractError(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(envelope.Error, &s) == nil {
		return s
	}
	var detail struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Error, &detail) == nil {
		return detail.Message
	}
	return ""
}

// extractField достаёт строковое поле верхнего уровня JSON-объекта.
func extractField(body []byte, field string) string {
	var obj map[string]json.RawMessage
	if json.Unmarshal(body, &obj) != nil {
		return ""
	}
	var s string
	if json.Unmarshal(obj[field], &s) != nil {
		return ""
	}
	return s
}
